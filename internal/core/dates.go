package core

import (
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// InstantLayout is the fixed-width UTC layout used for persisted instants,
	// so lexical and chronological order agree.
	InstantLayout = "2006-01-02T15:04:05.000Z"
)

// NormalizeInstant converts t to UTC at millisecond precision, the precision
// every store persists.
func NormalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseInstant accepts RFC 3339 timestamps and bare YYYY-MM-DD dates. Bare
// dates are UTC midnight; no client timezone is inferred.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NormalizeInstant(t), nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return NormalizeInstant(t), nil
	}
	return time.Time{}, ErrInvalidDate
}

// IsBareDate reports whether t sits exactly on UTC midnight.
func IsBareDate(t time.Time) bool {
	u := t.UTC()
	return u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0
}

// EndOfDay returns 23:59:59.999 UTC on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// FormatInstant renders t in InstantLayout.
func FormatInstant(t time.Time) string {
	return NormalizeInstant(t).Format(InstantLayout)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
