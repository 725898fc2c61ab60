package models

import "time"

// ResetPolicy controls when a category's counter restarts at 1.
type ResetPolicy string

const (
	ResetNever   ResetPolicy = "NEVER"
	ResetMonthly ResetPolicy = "MONTHLY"
	ResetYearly  ResetPolicy = "YEARLY"
)

// Valid reports whether the policy is one of the supported values.
func (p ResetPolicy) Valid() bool {
	switch p {
	case ResetNever, ResetMonthly, ResetYearly:
		return true
	}
	return false
}

// NumberingTemplate configures the rendered number per document category.
// Pattern placeholders: {seq}, {category}, {orgUnit}, {month}, {monthRoman},
// {hijriYear}, {gregorianYear}.
type NumberingTemplate struct {
	ID          string      `db:"id" json:"id"`
	Category    string      `db:"category" json:"category"`
	Pattern     string      `db:"pattern" json:"pattern"`
	ResetPolicy ResetPolicy `db:"reset_policy" json:"resetPolicy"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

// NumberCounter is the per scope+period sequence row. Rows are created lazily
// on first allocation and never deleted: they are the institution's permanent
// record of how many documents of a kind were issued.
type NumberCounter struct {
	ScopeKey  string    `db:"scope_key" json:"scopeKey"`
	PeriodKey string    `db:"period_key" json:"periodKey"`
	Value     int64     `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
