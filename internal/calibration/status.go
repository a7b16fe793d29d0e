// Package calibration classifies measurement points by how close their next
// calibration is.
package calibration

import "time"

// Status is derived on read and never stored.
type Status string

const (
	StatusNoDate      Status = "no_date"
	StatusInvalidDate Status = "invalid_date"
	StatusOverdue     Status = "overdue"
	StatusDueSoon     Status = "due_soon"
	StatusCurrent     Status = "current"
)

const (
	// DateLayout is the stored representation of calendar dates.
	DateLayout = "2006-01-02"

	// DefaultDueWindowDays is the inclusive look-ahead for StatusDueSoon.
	DefaultDueWindowDays = 30

	// MaxDueWindowDays bounds caller supplied look-ahead windows.
	MaxDueWindowDays = 36500
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusOverdue, StatusDueSoon, StatusCurrent, StatusNoDate, StatusInvalidDate}
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date. Surrounding
// whitespace makes the value malformed.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// ValidDate reports whether value is a well formed YYYY-MM-DD date.
func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Evaluate classifies next against reference with the default window.
func Evaluate(next *string, reference time.Time) Status {
	return EvaluateWithin(next, reference, DefaultDueWindowDays)
}

// EvaluateWithin classifies next against reference. Dates between reference and
// reference+windowDays inclusive are due soon. Malformed dates never fail.
func EvaluateWithin(next *string, reference time.Time, windowDays int) Status {
	if next == nil {
		return StatusNoDate
	}
	delta, ok := deltaDays(*next, reference)
	if !ok {
		return StatusInvalidDate
	}
	switch {
	case delta < 0:
		return StatusOverdue
	case delta <= windowDays:
		return StatusDueSoon
	default:
		return StatusCurrent
	}
}

// DaysRemaining returns the signed number of days from reference to next, or
// nil when next is absent or malformed.
func DaysRemaining(next *string, reference time.Time) *int {
	if next == nil {
		return nil
	}
	delta, ok := deltaDays(*next, reference)
	if !ok {
		return nil
	}
	return &delta
}

// Scheduled reports whether status carries a usable date.
func (s Status) Scheduled() bool {
	return s == StatusOverdue || s == StatusDueSoon || s == StatusCurrent
}

func deltaDays(value string, reference time.Time) (int, bool) {
	due, err := ParseDate(value)
	if err != nil {
		return 0, false
	}
	return DaysBetween(reference, due), true
}

// DaysBetween counts whole calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	// time.Duration saturates after ~292 years; Unix seconds do not.
	return int((to.Unix() - from.Unix()) / 86400)
}

// AddDays returns the YYYY-MM-DD string days after the calendar day of reference.
func AddDays(reference time.Time, days int) string {
	y, m, d := reference.Date()
	return FormatDate(time.Date(y, m, d+days, 0, 0, 0, 0, time.UTC))
}
