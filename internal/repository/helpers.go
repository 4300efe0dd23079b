package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Calendar dates are stored as YYYY-MM-DD text, audit timestamps as RFC 3339.
const (
	dateLayout      = domain.DateLayout
	timestampLayout = time.RFC3339
)

// rowScanner lets one scan function serve QueryRow and Query loops.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullableTimeToString writes a nil date as NULL.
func nullableTimeToString(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// parseNullableTime reads NULL, empty or unparsable text as no date.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if v := parseNullableString(s); v != nil {
		if t, err := time.Parse(layout, *v); err == nil {
			return &t
		}
	}
	return nil
}

// nullableString writes a nil or empty reference as NULL.
func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func parseNullableString(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return &s.String
}

// SQLite has no boolean type; flags are stored as 0 or 1.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool { return i != 0 }

func nowUTC() string {
	return time.Now().UTC().Format(timestampLayout)
}

func parseTimestamps(created, updated string) (createdAt, updatedAt time.Time, err error) {
	if createdAt, err = time.Parse(timestampLayout, created); err != nil {
		return
	}
	updatedAt, err = time.Parse(timestampLayout, updated)
	return
}
