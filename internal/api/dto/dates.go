package dto

import "time"

// DateLayout is the calendar date format used for start and due dates.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date or a full RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// FormatDate renders an optional date, nil when unset.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
