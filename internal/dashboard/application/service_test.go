package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/calibration"
	dashboard "equip-manager/internal/dashboard/domain"
	"equip-manager/internal/platform/clock"
)

func str(v string) *string { return &v }

type fakeReader struct {
	totals  dashboard.Totals
	points  []dashboard.ScheduledPoint
	groups  []dashboard.Group
	recent  []dashboard.RecentCertificate
	through string
	limit   int
	err     error
}

func (f *fakeReader) Totals(context.Context) (dashboard.Totals, error) { return f.totals, f.err }

func (f *fakeReader) NextCalibrationDates(context.Context) ([]*string, error) {
	out := make([]*string, 0, len(f.points))
	for _, p := range f.points {
		out = append(out, p.NextCalibrationDate)
	}
	return out, f.err
}

func (f *fakeReader) ScheduledPoints(_ context.Context, through string) ([]dashboard.ScheduledPoint, error) {
	f.through = through
	return f.points, f.err
}

func (f *fakeReader) NextDatesBetween(_ context.Context, from, to string) ([]string, error) {
	var out []string
	for _, p := range f.points {
		if d := p.NextCalibrationDate; d != nil && *d >= from && *d < to {
			out = append(out, *d)
		}
	}
	return out, f.err
}

func (f *fakeReader) EquipmentByManufacturer(context.Context) ([]dashboard.Group, error) {
	return f.groups, f.err
}
func (f *fakeReader) EquipmentByType(context.Context) ([]dashboard.Group, error) { return nil, f.err }
func (f *fakeReader) PointsBySite(context.Context) ([]dashboard.Group, error)    { return nil, f.err }
func (f *fakeReader) CertificatesByStatus(context.Context) ([]dashboard.Group, error) {
	return nil, f.err
}

func (f *fakeReader) RecentCertificates(_ context.Context, limit int) ([]dashboard.RecentCertificate, error) {
	f.limit = limit
	return f.recent, f.err
}

func newService(t *testing.T, reader *fakeReader) *Service {
	t.Helper()
	now := clock.Fixed(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))
	svc, err := NewService(reader, WithClock(now))
	require.NoError(t, err)
	return svc
}

func samplePoints() []dashboard.ScheduledPoint {
	return []dashboard.ScheduledPoint{
		{ID: 1, Tag: "A", NextCalibrationDate: str("2025-05-15")},
		{ID: 2, Tag: "B", NextCalibrationDate: str("2025-06-20")},
		{ID: 3, Tag: "C", NextCalibrationDate: str("2025-07-15")},
		{ID: 4, Tag: "D"},
		{ID: 5, Tag: "E", NextCalibrationDate: str("15/05/2025")},
	}
}

func TestSummary(t *testing.T) {
	reader := &fakeReader{totals: dashboard.Totals{Equipment: 3, Points: 5, Certificates: 2}, points: samplePoints()}
	svc := newService(t, reader)

	s, err := svc.Summary(context.Background(), svc.DueWindow())
	require.NoError(t, err)
	assert.Equal(t, 5, s.Totals.Points)
	assert.Equal(t, dashboard.Alerts{Overdue: 1, DueSoon: 1, Days: 30}, s.Alerts)
	assert.Equal(t, "2025-06-01", s.ReferenceDate)

	s, err = svc.Summary(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Alerts.DueSoon)

	_, err = svc.Summary(context.Background(), -1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestWindowOutOfRangeIsRejected(t *testing.T) {
	reader := &fakeReader{points: samplePoints()}
	svc := newService(t, reader)
	ctx := context.Background()

	for _, days := range []int{-1, calibration.MaxDueWindowDays + 1, math.MaxInt} {
		_, err := svc.Summary(ctx, days)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "summary days=%d", days)
		_, err = svc.CriticalPoints(ctx, days)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "critical days=%d", days)
	}
	assert.Empty(t, reader.through)

	got, err := svc.CriticalPoints(ctx, calibration.MaxDueWindowDays)
	require.NoError(t, err)
	assert.Equal(t, "2125-05-08", reader.through)
	assert.Len(t, got.DueSoon, 2)
}

func TestCriticalPointsQueriesThroughWindow(t *testing.T) {
	reader := &fakeReader{points: samplePoints()}
	svc := newService(t, reader)

	got, err := svc.CriticalPoints(context.Background(), 45)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-16", reader.through)
	assert.Len(t, got.Overdue, 1)
	assert.Len(t, got.DueSoon, 2)
}

func TestScheduleDefaultsToCurrentYear(t *testing.T) {
	svc := newService(t, &fakeReader{points: samplePoints()})

	s, err := svc.Schedule(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, s.Year)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Months[4].Count)

	_, err = svc.Schedule(context.Background(), -5)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRecentActivityClampsLimit(t *testing.T) {
	reader := &fakeReader{}
	svc := newService(t, reader)

	items, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Equal(t, DefaultRecentLimit, reader.limit)

	_, err = svc.RecentActivity(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, MaxRecentLimit, reader.limit)
}

func TestStatisticsSortsGroups(t *testing.T) {
	reader := &fakeReader{groups: []dashboard.Group{{Name: "Krohne", Count: 1}, {Name: "ABB", Count: 0}, {Name: "Emerson", Count: 4}}}
	svc := newService(t, reader)

	st, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []dashboard.Group{{Name: "Emerson", Count: 4}, {Name: "Krohne", Count: 1}}, st.EquipmentByManufacturer)
	assert.Empty(t, st.PointsBySite)
}

func TestPerformanceAndStatusCounts(t *testing.T) {
	svc := newService(t, &fakeReader{points: samplePoints()})

	p, err := svc.Performance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, p.Scheduled)
	assert.Equal(t, 66.67, p.Percentage)

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts["invalid_date"])
	assert.Equal(t, 1, counts["current"])
}

func TestReaderErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	svc := newService(t, &fakeReader{err: boom})
	_, err := svc.Summary(context.Background(), 30)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Statistics(context.Background())
	assert.ErrorIs(t, err, boom)
}
