package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	"github.com/akademika-dev/letter-office-api/internal/repository"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
)

type letterStore interface {
	Create(ctx context.Context, letter *models.LetterRequest, entry *models.LetterHistoryEntry) error
	GetByID(ctx context.Context, id string) (*models.LetterRequest, error)
	List(ctx context.Context, filter models.LetterFilter) ([]models.LetterRequest, error)
	History(ctx context.Context, letterID string) ([]models.LetterHistoryEntry, error)
	Forward(ctx context.Context, params repository.ForwardParams) (*models.LetterRequest, error)
	Decide(ctx context.Context, params repository.DecideParams) (*models.LetterRequest, error)
}

type numberAllocator interface {
	Allocate(ctx context.Context, ext sqlx.ExtContext, category, orgUnitID string, issuedAt time.Time) (string, error)
}

type idempotencyStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type transitionRecorder interface {
	RecordTransition(action string)
}

// stageOwner is the static role table: which role owns (acts at) each
// non-terminal stage.
var stageOwner = map[models.LetterStage]models.UserRole{
	models.StageInReview:     models.RoleAdmin,
	models.StageUnitApproval: models.RoleUnitHead,
}

const idempotencyKeyPrefix = "letters:decide:"

// decideIdempotencyKey namespaces the client token by letter and actor so a
// reused token can never replay a different letter's decision to a different
// caller.
func decideIdempotencyKey(letterID, actorID, token string) string {
	return idempotencyKeyPrefix + letterID + ":" + actorID + ":" + token
}

// LetterService sequences the fixed approval pipeline. It enforces stage
// legality and role routing; the repository performs the atomic writes.
type LetterService struct {
	repo           letterStore
	allocator      numberAllocator
	idempotency    idempotencyStore
	metrics        transitionRecorder
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewLetterService constructs the orchestrator.
func NewLetterService(repo letterStore, allocator numberAllocator, idempotency idempotencyStore, metrics transitionRecorder, idempotencyTTL time.Duration, logger *zap.Logger) *LetterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &LetterService{
		repo:           repo,
		allocator:      allocator,
		idempotency:    idempotency,
		metrics:        metrics,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// Submit creates a letter at the initial review stage, assigned to the
// reviewing role.
func (s *LetterService) Submit(ctx context.Context, req dto.SubmitLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	category := strings.ToUpper(strings.TrimSpace(req.Category))
	if category == "" || strings.TrimSpace(req.Subject) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category and subject are required")
	}

	firstReviewer := stageOwner[models.StageInReview]
	letter := &models.LetterRequest{
		Category:   category,
		Subject:    strings.TrimSpace(req.Subject),
		OwnerID:    actor.UserID,
		OrgUnitID:  normalizeOrgUnit(req.OrgUnitID),
		Stage:      models.StageInReview,
		AssignedTo: &firstReviewer,
	}
	entry := &models.LetterHistoryEntry{
		Action:    models.ActionSubmitted,
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Notes:     optionalString(req.Notes),
	}
	if err := s.repo.Create(ctx, letter, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create letter request")
	}
	s.recordTransition(models.ActionSubmitted)
	return letter, nil
}

// Get returns a letter enforcing role scoping.
func (s *LetterService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	letter, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load letter")
	}
	if actor.Role == models.RoleStudent && letter.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return letter, nil
}

// List returns letters visible to the actor.
func (s *LetterService) List(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.LetterFilter{
		Stage:    query.Stage,
		Category: strings.ToUpper(strings.TrimSpace(query.Category)),
		OrgUnit:  strings.TrimSpace(query.OrgUnit),
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		// full visibility
	case models.RoleUnitHead:
		if actor.OrgUnitID != nil {
			filter.OrgUnit = *actor.OrgUnitID
		}
	case models.RoleStudent:
		filter.OwnerID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	letters, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list letters")
	}
	return letters, nil
}

// History returns the append-only audit log for a letter.
func (s *LetterService) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.LetterHistoryEntry, error) {
	letter, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load letter history")
	}
	if stage, _ := ReplayHistory(entries); stage != letter.Stage {
		// The projection should always be derivable from the log; a mismatch
		// indicates a write outside the repository.
		s.logger.Warn("letter projection diverges from history",
			zap.String("letter_id", id),
			zap.String("projected", string(letter.Stage)),
			zap.String("replayed", string(stage)),
		)
	}
	return entries, nil
}

// Forward moves a letter from initial review to unit approval.
func (s *LetterService) Forward(ctx context.Context, id string, req dto.ForwardLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.ExpectedStage != models.StageInReview {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot forward from stage %s", req.ExpectedStage))
	}
	if actor.Role != stageOwner[models.StageInReview] && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}

	letter, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if letter.Stage.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("letter is already %s", letter.Stage))
	}
	if letter.Stage != req.ExpectedStage {
		return nil, appErrors.Clone(appErrors.ErrConflict, "letter stage changed, refetch and retry")
	}

	updated, err := s.repo.Forward(ctx, repository.ForwardParams{
		ID:            id,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		ExpectedStage: req.ExpectedStage,
		AssignTo:      stageOwner[models.StageUnitApproval],
		Notes:         optionalString(req.Notes),
	})
	if err != nil {
		return nil, s.mapStoreError(err, "failed to forward letter")
	}
	s.recordTransition(models.ActionForwarded)
	return updated, nil
}

// Decide records a terminal verdict. Approvals allocate the document number
// inside the same transaction as the stage change; rejections never touch a
// counter.
func (s *LetterService) Decide(ctx context.Context, id string, req dto.DecideLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	idemKey := decideIdempotencyKey(id, actor.UserID, req.IdempotencyKey)
	if req.IdempotencyKey != "" && s.idempotency != nil {
		var cached models.LetterRequest
		if err := s.idempotency.Get(ctx, idemKey, &cached); err == nil && cached.ID == id {
			return &cached, nil
		}
	}

	targetStage, action, err := decisionTarget(req.Outcome, req.ExpectedStage)
	if err != nil {
		return nil, err
	}
	if actor.Role != stageOwner[req.ExpectedStage] && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}

	letter, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if letter.Stage.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("letter is already %s", letter.Stage))
	}
	if letter.Stage != req.ExpectedStage {
		return nil, appErrors.Clone(appErrors.ErrConflict, "letter stage changed, refetch and retry")
	}

	params := repository.DecideParams{
		ID:            id,
		ActorID:       actor.UserID,
		ActorRole:     actor.Role,
		ExpectedStage: req.ExpectedStage,
		Stage:         targetStage,
		Action:        action,
		Notes:         optionalString(req.Notes),
	}
	if req.Outcome == models.OutcomeApprove {
		category := letter.Category
		orgUnit := ""
		if letter.OrgUnitID != nil {
			orgUnit = *letter.OrgUnitID
		}
		params.Allocate = func(ctx context.Context, tx *sqlx.Tx) (string, error) {
			return s.allocator.Allocate(ctx, tx, category, orgUnit, time.Now().UTC())
		}
	}

	updated, err := s.repo.Decide(ctx, params)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to decide letter")
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if cacheErr := s.idempotency.Set(ctx, idemKey, updated, s.idempotencyTTL); cacheErr != nil {
			s.logger.Warn("failed to record decide idempotency key", zap.Error(cacheErr))
		}
	}
	s.recordTransition(action)
	return updated, nil
}

// decisionTarget validates outcome against the expected source stage and
// returns the terminal stage plus history action.
func decisionTarget(outcome models.DecisionOutcome, expected models.LetterStage) (models.LetterStage, models.LetterAction, error) {
	switch outcome {
	case models.OutcomeApprove:
		if expected != models.StageUnitApproval {
			return "", "", appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot approve from stage %s", expected))
		}
		return models.StageCompleted, models.ActionApproved, nil
	case models.OutcomeReject:
		if expected != models.StageInReview && expected != models.StageUnitApproval {
			return "", "", appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot reject from stage %s", expected))
		}
		return models.StageRejected, models.ActionRejected, nil
	default:
		return "", "", appErrors.Clone(appErrors.ErrValidation, "outcome must be APPROVE or REJECT")
	}
}

// ReplayHistory folds the append-only log into the projection fields it
// governs. The projection row is derivable from the log; this is the fold.
func ReplayHistory(entries []models.LetterHistoryEntry) (models.LetterStage, *models.UserRole) {
	var stage models.LetterStage
	var assigned *models.UserRole
	for _, entry := range entries {
		switch entry.Action {
		case models.ActionSubmitted:
			stage = models.StageInReview
			owner := stageOwner[models.StageInReview]
			assigned = &owner
		case models.ActionForwarded:
			stage = models.StageUnitApproval
			owner := stageOwner[models.StageUnitApproval]
			assigned = &owner
		case models.ActionApproved:
			stage = models.StageCompleted
			assigned = nil
		case models.ActionRejected:
			stage = models.StageRejected
			assigned = nil
		}
	}
	return stage, assigned
}

func (s *LetterService) mapStoreError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConflict, "letter stage changed, refetch and retry")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
}

func (s *LetterService) recordTransition(action models.LetterAction) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(action))
	}
}

func normalizeOrgUnit(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
