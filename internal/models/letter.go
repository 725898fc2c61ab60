package models

import "time"

// LetterStage enumerates the approval pipeline stages. IN_REVIEW and
// UNIT_APPROVAL are the only non-terminal stages; COMPLETED and REJECTED
// permit no further transitions.
type LetterStage string

const (
	StageInReview     LetterStage = "IN_REVIEW"
	StageUnitApproval LetterStage = "UNIT_APPROVAL"
	StageCompleted    LetterStage = "COMPLETED"
	StageRejected     LetterStage = "REJECTED"
)

// Terminal reports whether no further transition is permitted from the stage.
func (s LetterStage) Terminal() bool {
	return s == StageCompleted || s == StageRejected
}

// LetterAction enumerates recorded workflow actions.
type LetterAction string

const (
	ActionSubmitted LetterAction = "SUBMITTED"
	ActionForwarded LetterAction = "FORWARDED"
	ActionApproved  LetterAction = "APPROVED"
	ActionRejected  LetterAction = "REJECTED"
)

// DecisionOutcome is the reviewer verdict on a Decide call.
type DecisionOutcome string

const (
	OutcomeApprove DecisionOutcome = "APPROVE"
	OutcomeReject  DecisionOutcome = "REJECT"
)

// LetterRequest is one official document request. The row is a materialized
// projection; letter_history is the audit-of-record.
//
// Invariants: DocumentNumber is non-nil iff Stage == COMPLETED; AssignedTo is
// non-nil iff the stage is non-terminal.
type LetterRequest struct {
	ID             string      `db:"id" json:"id"`
	Category       string      `db:"category" json:"category"`
	Subject        string      `db:"subject" json:"subject"`
	OwnerID        string      `db:"owner_id" json:"ownerId"`
	OrgUnitID      *string     `db:"org_unit_id" json:"orgUnitId,omitempty"`
	Stage          LetterStage `db:"stage" json:"stage"`
	AssignedTo     *UserRole   `db:"assigned_to" json:"assignedTo,omitempty"`
	ForwardedBy    *string     `db:"forwarded_by" json:"forwardedBy,omitempty"`
	ForwardedAt    *time.Time  `db:"forwarded_at" json:"forwardedAt,omitempty"`
	DecidedBy      *string     `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt      *time.Time  `db:"decided_at" json:"decidedAt,omitempty"`
	DecisionNotes  *string     `db:"decision_notes" json:"decisionNotes,omitempty"`
	DocumentNumber *string     `db:"document_number" json:"documentNumber,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// LetterHistoryEntry is one append-only audit record per letter mutation.
// Entries are never updated or deleted; replaying them in Seq order
// reconstructs the letter's current stage and assignment. Seq is assigned by
// the database on insert, so two entries written in the same microsecond still
// order unambiguously.
type LetterHistoryEntry struct {
	ID        string       `db:"id" json:"id"`
	Seq       int64        `db:"seq" json:"seq"`
	LetterID  string       `db:"letter_id" json:"letterId"`
	Action    LetterAction `db:"action" json:"action"`
	ActorID   string       `db:"actor_id" json:"actorId"`
	ActorRole UserRole     `db:"actor_role" json:"actorRole"`
	Notes     *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
}

// LetterFilter constrains listing queries.
type LetterFilter struct {
	Stage    []LetterStage
	Category string
	OwnerID  string
	OrgUnit  string
	Limit    int
	Offset   int
}
