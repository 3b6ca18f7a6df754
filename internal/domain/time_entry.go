package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is the durable, approved record of time worked.
type TimeEntry struct {
	ID        string
	UserID    string
	TaskID    string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
	// SourceRequestID is set when the entry was materialized from an accepted request.
	SourceRequestID *string
	CreatedAt       time.Time
}

// Duration is always derived from the interval, never stored independently.
func (e *TimeEntry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Hours is the duration in hours rounded to two places, matching the stored column.
func (e *TimeEntry) Hours() decimal.Decimal {
	return decimal.NewFromFloat(e.Duration().Hours()).Round(2)
}

// ValidInterval reports whether start is strictly before end.
func ValidInterval(start, end time.Time) bool {
	return !start.IsZero() && !end.IsZero() && start.Before(end)
}
