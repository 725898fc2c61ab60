package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/letter-office-api/internal/models"
)

// CounterRepository owns the number_counters table. No other subsystem writes
// to it; counter rows are never deleted.
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository constructs the repository.
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// NextValue increments and returns the sequence for a scope+period as one
// atomic upsert. The row lock taken by the statement serializes concurrent
// allocators on the same scope+period and nothing else; the first allocation
// of a new period starts a fresh row at 1 with no carry-over. Runs on the
// caller's executor so it can join the decide transaction.
func (r *CounterRepository) NextValue(ctx context.Context, ext sqlx.ExtContext, scopeKey, periodKey string, now time.Time) (int64, error) {
	if ext == nil {
		ext = r.db
	}
	const query = `INSERT INTO number_counters (scope_key, period_key, value, updated_at)
	VALUES ($1, $2, 1, $3)
	ON CONFLICT (scope_key, period_key)
	DO UPDATE SET value = number_counters.value + 1, updated_at = EXCLUDED.updated_at
	RETURNING value`
	var value int64
	if err := sqlx.GetContext(ctx, ext, &value, query, scopeKey, periodKey, now.UTC()); err != nil {
		return 0, fmt.Errorf("increment counter %s/%s: %w", scopeKey, periodKey, err)
	}
	return value, nil
}

// Get returns the counter row for a scope+period, if it exists.
func (r *CounterRepository) Get(ctx context.Context, scopeKey, periodKey string) (*models.NumberCounter, error) {
	const query = `SELECT scope_key, period_key, value, updated_at
	FROM number_counters WHERE scope_key = $1 AND period_key = $2`
	var counter models.NumberCounter
	if err := r.db.GetContext(ctx, &counter, query, scopeKey, periodKey); err != nil {
		return nil, err
	}
	return &counter, nil
}
