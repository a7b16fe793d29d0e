package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

var reference = time.Date(2025, time.June, 1, 14, 37, 0, 0, time.UTC)

func TestEvaluateExamples(t *testing.T) {
	cases := []struct {
		name   string
		next   *string
		status Status
		days   *int
	}{
		{"overdue", ptr("2025-05-15"), StatusOverdue, intPtr(-17)},
		{"due soon", ptr("2025-06-20"), StatusDueSoon, intPtr(19)},
		{"absent", nil, StatusNoDate, nil},
		{"today", ptr("2025-06-01"), StatusDueSoon, intPtr(0)},
		{"window edge", ptr("2025-07-01"), StatusDueSoon, intPtr(30)},
		{"past window", ptr("2025-07-02"), StatusCurrent, intPtr(31)},
		{"yesterday", ptr("2025-05-31"), StatusOverdue, intPtr(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, Evaluate(tc.next, reference))
			assert.Equal(t, tc.days, DaysRemaining(tc.next, reference))
		})
	}
}

func intPtr(v int) *int { return &v }

func TestMalformedDatesNeverClassifyAsScheduled(t *testing.T) {
	for _, raw := range []string{"", "15/05/2025", "2025-13-01", "2025-02-30", "tomorrow", "2025-06-01T00:00:00Z", "20250601", " 2025-06-20", "2025-06-20 "} {
		t.Run(raw, func(t *testing.T) {
			status := Evaluate(ptr(raw), reference)
			assert.Equal(t, StatusInvalidDate, status)
			assert.False(t, status.Scheduled())
			assert.Nil(t, DaysRemaining(ptr(raw), reference))
		})
	}
}

func TestEvaluateCoversEveryDayAroundReference(t *testing.T) {
	ref := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC)
	for offset := -400; offset <= 400; offset++ {
		next := AddDays(ref, offset)
		status := Evaluate(&next, ref)
		days := DaysRemaining(&next, ref)
		require.NotNil(t, days)
		require.Equal(t, offset, *days, next)
		switch {
		case offset < 0:
			require.Equal(t, StatusOverdue, status, next)
		case offset <= DefaultDueWindowDays:
			require.Equal(t, StatusDueSoon, status, next)
		default:
			require.Equal(t, StatusCurrent, status, next)
		}
	}
}

func TestEvaluateWithinWidensWindow(t *testing.T) {
	next := ptr("2025-08-15")
	assert.Equal(t, StatusCurrent, Evaluate(next, reference))
	assert.Equal(t, StatusDueSoon, EvaluateWithin(next, reference, 90))
	assert.Equal(t, StatusCurrent, EvaluateWithin(ptr("2025-06-02"), reference, 0))
}

func TestReferenceTimeOfDayIgnored(t *testing.T) {
	late := time.Date(2025, time.June, 1, 23, 59, 59, 0, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, intPtr(19), DaysRemaining(ptr("2025-06-20"), late))
}

func TestDaysBetweenAcrossLeapYear(t *testing.T) {
	a := time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
	assert.Equal(t, "2024-03-01", AddDays(a, 2))
}

func TestDaysRemainingFarFromReference(t *testing.T) {
	ref := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]int{
		"2400-01-01": 136814,
		"9999-12-31": 2912656,
		"0001-01-01": -739402,
	}
	for next, want := range cases {
		got := DaysRemaining(ptr(next), ref)
		require.NotNil(t, got, next)
		assert.Equal(t, want, *got, next)
	}
	assert.Equal(t, StatusCurrent, Evaluate(ptr("2400-01-01"), ref))
	assert.Equal(t, StatusOverdue, Evaluate(ptr("0001-01-01"), ref))
}
