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

	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
	"github.com/akademika-dev/letter-office-api/pkg/hijri"
)

type templateSource interface {
	GetByCategory(ctx context.Context, category string) (*models.NumberingTemplate, error)
}

type counterSource interface {
	NextValue(ctx context.Context, ext sqlx.ExtContext, scopeKey, periodKey string, now time.Time) (int64, error)
}

type allocationRecorder interface {
	RecordAllocation(category string)
}

// InstitutionScope is the org-unit label substituted into rendered numbers
// when a letter has no owning unit. It is presentation only; counter scope
// keys keep the empty token so a unit that happens to carry this code can
// never share the institution-wide counter.
const InstitutionScope = "UNIV"

// NumberingService allocates official document numbers: scoped monotonic
// sequences rendered through the category's configured template.
type NumberingService struct {
	templates templateSource
	counters  counterSource
	metrics   allocationRecorder
	logger    *zap.Logger
}

// NewNumberingService constructs the allocator.
func NewNumberingService(templates templateSource, counters counterSource, metrics allocationRecorder, logger *zap.Logger) *NumberingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NumberingService{
		templates: templates,
		counters:  counters,
		metrics:   metrics,
		logger:    logger,
	}
}

// Allocate increments the scope+period counter on the caller's executor and
// renders the number. Callers running a transaction pass it as ext so the
// increment commits or rolls back with the rest of their unit of work.
func (s *NumberingService) Allocate(ctx context.Context, ext sqlx.ExtContext, category, orgUnitID string, issuedAt time.Time) (string, error) {
	template, err := s.templates.GetByCategory(ctx, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotConfigured, fmt.Sprintf("no numbering template for category %s", category))
		}
		return "", appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load numbering template")
	}

	scopeKey := ScopeKey(category, orgUnitID)
	periodKey := PeriodKey(template.ResetPolicy, issuedAt)

	seq, err := s.counters.NextValue(ctx, ext, scopeKey, periodKey, issuedAt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to increment number counter")
	}

	rendered := RenderNumber(template.Pattern, seq, category, orgUnitID, issuedAt)
	if s.metrics != nil {
		s.metrics.RecordAllocation(category)
	}
	s.logger.Debug("allocated document number",
		zap.String("scope", scopeKey),
		zap.String("period", periodKey),
		zap.Int64("seq", seq),
	)
	return rendered, nil
}

// ScopeKey derives the counter partition for a category and org unit. The key
// is a readable composite rather than a hash: the counters table is audited by
// humans. Institution-wide letters keep the empty org-unit token.
func ScopeKey(category, orgUnitID string) string {
	return category + "/" + strings.TrimSpace(orgUnitID)
}

// PeriodKey derives the reset partition from the category's policy.
func PeriodKey(policy models.ResetPolicy, issuedAt time.Time) string {
	switch policy {
	case models.ResetYearly:
		return issuedAt.Format("2006")
	case models.ResetMonthly:
		return issuedAt.Format("2006-01")
	default:
		return "-"
	}
}

// RenderNumber substitutes the template placeholders. The sequence is
// zero-padded to three digits and widens naturally beyond 999.
func RenderNumber(pattern string, seq int64, category, orgUnitID string, issuedAt time.Time) string {
	unit := strings.TrimSpace(orgUnitID)
	if unit == "" {
		unit = InstitutionScope
	}
	hijriDate := hijri.FromTime(issuedAt)
	replacer := strings.NewReplacer(
		"{seq}", fmt.Sprintf("%03d", seq),
		"{category}", category,
		"{orgUnit}", unit,
		"{month}", fmt.Sprintf("%02d", int(issuedAt.Month())),
		"{monthRoman}", hijri.RomanMonth(issuedAt.Month()),
		"{hijriYear}", fmt.Sprintf("%d", hijriDate.Year),
		"{gregorianYear}", fmt.Sprintf("%d", issuedAt.Year()),
	)
	return replacer.Replace(pattern)
}
