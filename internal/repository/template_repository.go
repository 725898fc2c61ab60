package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akademika-dev/letter-office-api/internal/models"
)

// TemplateRepository persists per-category numbering templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetByCategory fetches the template configured for a category.
func (r *TemplateRepository) GetByCategory(ctx context.Context, category string) (*models.NumberingTemplate, error) {
	const query = `SELECT id, category, pattern, reset_policy, created_at, updated_at
	FROM numbering_templates WHERE category = $1`
	var template models.NumberingTemplate
	if err := r.db.GetContext(ctx, &template, query, category); err != nil {
		return nil, err
	}
	return &template, nil
}

// List returns all templates ordered by category.
func (r *TemplateRepository) List(ctx context.Context) ([]models.NumberingTemplate, error) {
	const query = `SELECT id, category, pattern, reset_policy, created_at, updated_at
	FROM numbering_templates ORDER BY category ASC`
	var templates []models.NumberingTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list numbering templates: %w", err)
	}
	return templates, nil
}

// Upsert creates or replaces the template for a category.
func (r *TemplateRepository) Upsert(ctx context.Context, template *models.NumberingTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	const query = `INSERT INTO numbering_templates (id, category, pattern, reset_policy, created_at, updated_at)
	VALUES (:id, :category, :pattern, :reset_policy, :created_at, :updated_at)
	ON CONFLICT (category)
	DO UPDATE SET pattern = EXCLUDED.pattern, reset_policy = EXCLUDED.reset_policy, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("upsert numbering template: %w", err)
	}
	return nil
}
