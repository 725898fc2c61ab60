package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
)

type templateStoreStub struct {
	templates map[string]*models.NumberingTemplate
	upserts   int
}

func newTemplateStoreStub() *templateStoreStub {
	return &templateStoreStub{templates: make(map[string]*models.NumberingTemplate)}
}

func (s *templateStoreStub) GetByCategory(ctx context.Context, category string) (*models.NumberingTemplate, error) {
	if template, ok := s.templates[category]; ok {
		copied := *template
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *templateStoreStub) List(ctx context.Context) ([]models.NumberingTemplate, error) {
	result := make([]models.NumberingTemplate, 0, len(s.templates))
	for _, template := range s.templates {
		result = append(result, *template)
	}
	return result, nil
}

func (s *templateStoreStub) Upsert(ctx context.Context, template *models.NumberingTemplate) error {
	s.upserts++
	copied := *template
	s.templates[template.Category] = &copied
	return nil
}

type templateCacheStub struct {
	entries map[string]*models.NumberingTemplate
	hits    int
	deletes []string
}

func newTemplateCacheStub() *templateCacheStub {
	return &templateCacheStub{entries: make(map[string]*models.NumberingTemplate)}
}

func (s *templateCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	template, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	s.hits++
	*dest.(*models.NumberingTemplate) = *template
	return nil
}

func (s *templateCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.entries[key] = value.(*models.NumberingTemplate)
	return nil
}

func (s *templateCacheStub) Delete(ctx context.Context, key string) {
	s.deletes = append(s.deletes, key)
	delete(s.entries, key)
}

func TestTemplateServiceUpsertRequiresSeqPlaceholder(t *testing.T) {
	svc := NewTemplateService(newTemplateStoreStub(), nil, 0, nil)

	_, err := svc.Upsert(context.Background(), "SKL", dto.UpsertTemplateRequest{
		Pattern:     "{category}/{gregorianYear}",
		ResetPolicy: models.ResetYearly,
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTemplateServiceUpsertRejectsUnknownPolicy(t *testing.T) {
	svc := NewTemplateService(newTemplateStoreStub(), nil, 0, nil)

	_, err := svc.Upsert(context.Background(), "SKL", dto.UpsertTemplateRequest{
		Pattern:     "{seq}/{category}",
		ResetPolicy: models.ResetPolicy("WEEKLY"),
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTemplateServiceUpsertInvalidatesCache(t *testing.T) {
	store := newTemplateStoreStub()
	cache := newTemplateCacheStub()
	svc := NewTemplateService(store, cache, time.Minute, nil)

	template, err := svc.Upsert(context.Background(), "skl", dto.UpsertTemplateRequest{
		Pattern:     "{seq}/{category}/{hijriYear}",
		ResetPolicy: models.ResetYearly,
	})
	require.NoError(t, err)
	require.Equal(t, "SKL", template.Category)
	require.Equal(t, 1, store.upserts)
	require.Contains(t, cache.deletes, "letters:template:SKL")
}

func TestTemplateServiceGetByCategoryCaches(t *testing.T) {
	store := newTemplateStoreStub()
	store.templates["SKL"] = &models.NumberingTemplate{
		Category:    "SKL",
		Pattern:     "{seq}/{category}",
		ResetPolicy: models.ResetNever,
	}
	cache := newTemplateCacheStub()
	svc := NewTemplateService(store, cache, time.Minute, nil)

	first, err := svc.GetByCategory(context.Background(), "SKL")
	require.NoError(t, err)
	require.Equal(t, "SKL", first.Category)

	second, err := svc.GetByCategory(context.Background(), "SKL")
	require.NoError(t, err)
	require.Equal(t, first.Pattern, second.Pattern)
	require.Equal(t, 1, cache.hits)
}

func TestTemplateServiceGetByCategoryMissingPassesThrough(t *testing.T) {
	svc := NewTemplateService(newTemplateStoreStub(), nil, 0, nil)

	_, err := svc.GetByCategory(context.Background(), "UNKNOWN")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
