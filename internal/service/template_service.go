package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
)

type templateStore interface {
	GetByCategory(ctx context.Context, category string) (*models.NumberingTemplate, error)
	List(ctx context.Context) ([]models.NumberingTemplate, error)
	Upsert(ctx context.Context, template *models.NumberingTemplate) error
}

type templateCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string)
}

const templateCacheKeyPrefix = "letters:template:"

// TemplateService manages per-category numbering templates. Reads go through
// Redis so the allocation hot path rarely touches Postgres for configuration.
type TemplateService struct {
	repo     templateStore
	cache    templateCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(repo templateStore, cache templateCache, cacheTTL time.Duration, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &TemplateService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetByCategory resolves the template for a category, cache first. A missing
// template surfaces as sql.ErrNoRows so the allocator can map it to its own
// configuration error.
func (s *TemplateService) GetByCategory(ctx context.Context, category string) (*models.NumberingTemplate, error) {
	key := templateCacheKeyPrefix + category
	if s.cache != nil {
		var cached models.NumberingTemplate
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	template, err := s.repo.GetByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, template, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("failed to cache numbering template", zap.String("category", category), zap.Error(cacheErr))
		}
	}
	return template, nil
}

// List returns every configured template.
func (s *TemplateService) List(ctx context.Context) ([]models.NumberingTemplate, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list numbering templates")
	}
	return templates, nil
}

// Upsert validates and stores the template for a category, then invalidates
// its cache entry.
func (s *TemplateService) Upsert(ctx context.Context, category string, req dto.UpsertTemplateRequest) (*models.NumberingTemplate, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category is required")
	}
	pattern := strings.TrimSpace(req.Pattern)
	if !strings.Contains(pattern, "{seq}") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pattern must contain the {seq} placeholder")
	}
	if !req.ResetPolicy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown reset policy %s", req.ResetPolicy))
	}

	existing, err := s.repo.GetByCategory(ctx, category)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load numbering template")
	}

	template := &models.NumberingTemplate{
		Category:    category,
		Pattern:     pattern,
		ResetPolicy: req.ResetPolicy,
	}
	if existing != nil {
		template.ID = existing.ID
		template.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to store numbering template")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, templateCacheKeyPrefix+category)
	}
	s.logger.Info("numbering template updated",
		zap.String("category", category),
		zap.String("reset_policy", string(req.ResetPolicy)),
	)
	return template, nil
}
