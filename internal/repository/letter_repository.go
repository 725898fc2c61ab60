package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/letter-office-api/internal/models"
)

const letterColumns = `id, category, subject, owner_id, org_unit_id, stage, assigned_to,
       forwarded_by, forwarded_at, decided_by, decided_at, decision_notes,
       document_number, created_at, updated_at`

// AllocateFunc produces the rendered document number inside the caller's
// transaction so the counter increment commits or rolls back with the stage
// change.
type AllocateFunc func(ctx context.Context, tx *sqlx.Tx) (string, error)

// LetterRepository persists letter requests and their append-only history.
// Every mutation appends exactly one history entry in the same transaction as
// the projection update.
type LetterRepository struct {
	db *sqlx.DB
}

// NewLetterRepository constructs the repository.
func NewLetterRepository(db *sqlx.DB) *LetterRepository {
	return &LetterRepository{db: db}
}

// Create inserts a new letter row plus its SUBMITTED history entry.
func (r *LetterRepository) Create(ctx context.Context, letter *models.LetterRequest, entry *models.LetterHistoryEntry) error {
	if letter.ID == "" {
		letter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if letter.CreatedAt.IsZero() {
		letter.CreatedAt = now
	}
	letter.UpdatedAt = letter.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create letter tx: %w", err)
	}

	const insertLetter = `INSERT INTO letter_requests
	(id, category, subject, owner_id, org_unit_id, stage, assigned_to, created_at, updated_at)
	VALUES (:id, :category, :subject, :owner_id, :org_unit_id, :stage, :assigned_to, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertLetter, letter); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert letter: %w", err)
	}

	entry.LetterID = letter.ID
	if err = insertHistory(ctx, tx, entry); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create letter tx: %w", err)
	}
	return nil
}

// GetByID fetches a letter by identifier.
func (r *LetterRepository) GetByID(ctx context.Context, id string) (*models.LetterRequest, error) {
	query := `SELECT ` + letterColumns + ` FROM letter_requests WHERE id = $1`
	var letter models.LetterRequest
	if err := r.db.GetContext(ctx, &letter, query, id); err != nil {
		return nil, err
	}
	return &letter, nil
}

// List returns letters matching the filter (latest first).
func (r *LetterRepository) List(ctx context.Context, filter models.LetterFilter) ([]models.LetterRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + letterColumns + ` FROM letter_requests`)

	conditions := make([]string, 0, 4)
	if len(filter.Stage) > 0 {
		placeholders := make([]string, len(filter.Stage))
		for i, stage := range filter.Stage {
			args = append(args, stage)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("stage IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.OrgUnit != "" {
		args = append(args, filter.OrgUnit)
		conditions = append(conditions, fmt.Sprintf("org_unit_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var letters []models.LetterRequest
	if err := r.db.SelectContext(ctx, &letters, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}
	return letters, nil
}

// History returns the letter's audit log in append order. seq is a bigserial
// assigned on insert, so the ordering survives same-timestamp writes.
func (r *LetterRepository) History(ctx context.Context, letterID string) ([]models.LetterHistoryEntry, error) {
	const query = `SELECT id, seq, letter_id, action, actor_id, actor_role, notes, created_at
	FROM letter_history WHERE letter_id = $1 ORDER BY seq ASC`
	var entries []models.LetterHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, letterID); err != nil {
		return nil, fmt.Errorf("list letter history: %w", err)
	}
	return entries, nil
}

// ForwardParams groups the columns written when a letter moves to unit approval.
type ForwardParams struct {
	ID            string
	ActorID       string
	ActorRole     models.UserRole
	ExpectedStage models.LetterStage
	AssignTo      models.UserRole
	Notes         *string
}

// Forward moves the letter into UNIT_APPROVAL when it still sits at the
// caller's expected stage. Zero rows affected means the row moved under the
// caller; sql.ErrNoRows is returned and nothing is written.
func (r *LetterRepository) Forward(ctx context.Context, params ForwardParams) (*models.LetterRequest, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin forward tx: %w", err)
	}

	const update = `UPDATE letter_requests
	SET stage = $1, assigned_to = $2, forwarded_by = $3, forwarded_at = $4, updated_at = $4
	WHERE id = $5 AND stage = $6`
	result, err := tx.ExecContext(ctx, update, models.StageUnitApproval, params.AssignTo, params.ActorID, now, params.ID, params.ExpectedStage)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("forward letter: %w", err)
	}
	if err = requireOneRow(result); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	entry := &models.LetterHistoryEntry{
		LetterID:  params.ID,
		Action:    models.ActionForwarded,
		ActorID:   params.ActorID,
		ActorRole: params.ActorRole,
		Notes:     params.Notes,
		CreatedAt: now,
	}
	if err = insertHistory(ctx, tx, entry); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	letter, err := getLetterTx(ctx, tx, params.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit forward tx: %w", err)
	}
	return letter, nil
}

// DecideParams groups the columns written on a terminal decision.
type DecideParams struct {
	ID            string
	ActorID       string
	ActorRole     models.UserRole
	ExpectedStage models.LetterStage
	Stage         models.LetterStage
	Action        models.LetterAction
	Notes         *string
	// Allocate is invoked inside the decision transaction for approvals; a
	// failure rolls back the stage change and the counter increment together.
	Allocate AllocateFunc
}

// Decide moves the letter into a terminal stage, allocating the document
// number in the same transaction on approval. The expected-stage predicate
// makes the first UPDATE the claim: the losing concurrent actor sees zero rows
// and never reaches the allocator.
func (r *LetterRepository) Decide(ctx context.Context, params DecideParams) (*models.LetterRequest, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decide tx: %w", err)
	}

	const update = `UPDATE letter_requests
	SET stage = $1, assigned_to = NULL, decided_by = $2, decided_at = $3, decision_notes = $4, updated_at = $3
	WHERE id = $5 AND stage = $6`
	result, err := tx.ExecContext(ctx, update, params.Stage, params.ActorID, now, params.Notes, params.ID, params.ExpectedStage)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("decide letter: %w", err)
	}
	if err = requireOneRow(result); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if params.Allocate != nil {
		number, allocErr := params.Allocate(ctx, tx)
		if allocErr != nil {
			_ = tx.Rollback()
			return nil, allocErr
		}
		const setNumber = `UPDATE letter_requests SET document_number = $1 WHERE id = $2`
		if _, err = tx.ExecContext(ctx, setNumber, number, params.ID); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("store document number: %w", err)
		}
	}

	entry := &models.LetterHistoryEntry{
		LetterID:  params.ID,
		Action:    params.Action,
		ActorID:   params.ActorID,
		ActorRole: params.ActorRole,
		Notes:     params.Notes,
		CreatedAt: now,
	}
	if err = insertHistory(ctx, tx, entry); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	letter, err := getLetterTx(ctx, tx, params.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decide tx: %w", err)
	}
	return letter, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entry *models.LetterHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO letter_history (id, letter_id, action, actor_id, actor_role, notes, created_at)
	VALUES (:id, :letter_id, :action, :actor_id, :actor_role, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert letter history: %w", err)
	}
	return nil
}

func getLetterTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.LetterRequest, error) {
	query := `SELECT ` + letterColumns + ` FROM letter_requests WHERE id = $1`
	var letter models.LetterRequest
	if err := tx.GetContext(ctx, &letter, query, id); err != nil {
		return nil, fmt.Errorf("reload letter: %w", err)
	}
	return &letter, nil
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
