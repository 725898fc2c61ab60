package dto

import (
	"time"

	"github.com/akademika-dev/letter-office-api/internal/models"
)

// SubmitLetterRequest payload for creating a new official letter request.
type SubmitLetterRequest struct {
	Category  string  `json:"category" binding:"required"`
	Subject   string  `json:"subject" binding:"required"`
	OrgUnitID *string `json:"orgUnitId"`
	Notes     string  `json:"notes"`
}

// ForwardLetterRequest moves a letter from initial review to unit approval.
// ExpectedStage carries the caller's last-observed stage for optimistic
// concurrency.
type ForwardLetterRequest struct {
	ExpectedStage models.LetterStage `json:"expectedStage" binding:"required"`
	Notes         string             `json:"notes"`
}

// DecideLetterRequest records the reviewer verdict. IdempotencyKey lets a
// timed-out caller retry without risking a second number allocation.
type DecideLetterRequest struct {
	ExpectedStage  models.LetterStage     `json:"expectedStage" binding:"required"`
	Outcome        models.DecisionOutcome `json:"outcome" binding:"required"`
	Notes          string                 `json:"notes"`
	IdempotencyKey string                 `json:"idempotencyKey"`
}

// LetterQuery mirrors supported listing filters.
type LetterQuery struct {
	Stage    []models.LetterStage
	Category string
	OrgUnit  string
	Limit    int
	Offset   int
}

// ArtifactLink is the opaque artifact reference handed to collaborators for a
// completed, numbered letter.
type ArtifactLink struct {
	LetterID  string    `json:"letterId"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
