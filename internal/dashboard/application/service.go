package application

import (
	"context"
	"errors"
	"time"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/calibration"
	dashboard "equip-manager/internal/dashboard/domain"
	"equip-manager/internal/platform/clock"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// Service answers dashboard queries. Each call reads the clock once.
type Service struct {
	reader dashboard.Reader
	clock  clock.Clock
	window int
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock overrides the reference clock.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDueWindow sets the default look-ahead in days.
func WithDueWindow(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.window = days
		}
	}
}

// NewService constructs a dashboard service.
func NewService(reader dashboard.Reader, opts ...ServiceOption) (*Service, error) {
	if reader == nil {
		return nil, errors.New("dashboard: nil reader")
	}
	s := &Service{reader: reader, clock: clock.System{}, window: calibration.DefaultDueWindowDays}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DueWindow is the look-ahead used when a caller gives none.
func (s *Service) DueWindow() int {
	return s.window
}

func (s *Service) today() time.Time {
	return clock.Today(s.clock.Now())
}

func checkDays(days int) error {
	if days < 0 || days > calibration.MaxDueWindowDays {
		return apperrors.Validationf("days must be between 0 and %d", calibration.MaxDueWindowDays)
	}
	return nil
}

// Summary returns totals plus overdue and due-soon counts within days.
func (s *Service) Summary(ctx context.Context, days int) (dashboard.Summary, error) {
	if err := checkDays(days); err != nil {
		return dashboard.Summary{}, err
	}
	today := s.today()
	totals, err := s.reader.Totals(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	dates, err := s.reader.NextCalibrationDates(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Summary{
		Totals:        totals,
		Alerts:        dashboard.CountAlerts(dates, today, days),
		ReferenceDate: calibration.FormatDate(today),
	}, nil
}

// Statistics returns the grouped breakdowns.
func (s *Service) Statistics(ctx context.Context) (dashboard.Statistics, error) {
	var (
		st  dashboard.Statistics
		err error
	)
	if st.EquipmentByManufacturer, err = s.grouped(ctx, s.reader.EquipmentByManufacturer); err != nil {
		return dashboard.Statistics{}, err
	}
	if st.EquipmentByType, err = s.grouped(ctx, s.reader.EquipmentByType); err != nil {
		return dashboard.Statistics{}, err
	}
	if st.PointsBySite, err = s.grouped(ctx, s.reader.PointsBySite); err != nil {
		return dashboard.Statistics{}, err
	}
	if st.CertificatesByStatus, err = s.grouped(ctx, s.reader.CertificatesByStatus); err != nil {
		return dashboard.Statistics{}, err
	}
	return st, nil
}

func (s *Service) grouped(ctx context.Context, load func(context.Context) ([]dashboard.Group, error)) ([]dashboard.Group, error) {
	groups, err := load(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.SortGroups(groups), nil
}

// Schedule returns monthly next-calibration counts for year; zero means the
// current year.
func (s *Service) Schedule(ctx context.Context, year int) (dashboard.Schedule, error) {
	if year == 0 {
		year = s.today().Year()
	}
	if year < 1 || year > 9998 {
		return dashboard.Schedule{}, apperrors.Validationf("year %d is out of range", year)
	}
	from, _ := dashboard.MonthRange(year, 1)
	_, to := dashboard.MonthRange(year, 12)
	dates, err := s.reader.NextDatesBetween(ctx, from, to)
	if err != nil {
		return dashboard.Schedule{}, err
	}
	return dashboard.BuildSchedule(year, dates), nil
}

// CriticalPoints lists overdue and due-soon points within days.
func (s *Service) CriticalPoints(ctx context.Context, days int) (dashboard.CriticalPoints, error) {
	if err := checkDays(days); err != nil {
		return dashboard.CriticalPoints{}, err
	}
	today := s.today()
	pts, err := s.reader.ScheduledPoints(ctx, calibration.AddDays(today, days))
	if err != nil {
		return dashboard.CriticalPoints{}, err
	}
	return dashboard.ClassifyCritical(pts, today, days), nil
}

// RecentActivity returns the latest certificates by issue date.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]dashboard.RecentCertificate, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}
	items, err := s.reader.RecentCertificates(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []dashboard.RecentCertificate{}
	}
	return items, nil
}

// Performance reports the share of scheduled points that are not overdue.
func (s *Service) Performance(ctx context.Context) (dashboard.Performance, error) {
	today := s.today()
	dates, err := s.reader.NextCalibrationDates(ctx)
	if err != nil {
		return dashboard.Performance{}, err
	}
	return dashboard.ComputePerformance(dates, today), nil
}

// StatusCounts tallies measurement points per calibration status using the
// configured window.
func (s *Service) StatusCounts(ctx context.Context) (map[string]int, error) {
	today := s.today()
	dates, err := s.reader.NextCalibrationDates(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.StatusCounts(dates, today, s.window), nil
}
