package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"equip-manager/internal/calibration"
	"equip-manager/internal/platform/clock"
	"equip-manager/internal/platform/paging"
	points "equip-manager/internal/points/domain"
)

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EquipmentChecker answers whether a serial number is registered.
type EquipmentChecker interface {
	Exists(ctx context.Context, serial string) (bool, error)
}

// Service manages measurement points and evaluates their calibration status.
type Service struct {
	repo        points.Repository
	equipment   EquipmentChecker
	tx          TxRunner
	clock       clock.Clock
	window      int
	pageDefault int
	pageMax     int
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithDueWindow sets the due-soon look-ahead used for listings.
func WithDueWindow(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.window = days
		}
	}
}

// WithPageSizes overrides default and maximum page sizes.
func WithPageSizes(def, max int) ServiceOption {
	return func(s *Service) {
		s.pageDefault = def
		s.pageMax = max
	}
}

// WithClock overrides the reference clock.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewService constructs a points service.
func NewService(repo points.Repository, equipment EquipmentChecker, tx TxRunner, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("points: nil repository")
	}
	if equipment == nil {
		return nil, errors.New("points: nil equipment checker")
	}
	if tx == nil {
		return nil, errors.New("points: nil tx runner")
	}
	s := &Service{
		repo:        repo,
		equipment:   equipment,
		tx:          tx,
		clock:       clock.System{},
		window:      calibration.DefaultDueWindowDays,
		pageDefault: paging.DefaultPerPage,
		pageMax:     paging.MaxPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) today() time.Time {
	return clock.Today(s.clock.Now())
}

// Get loads one point with its status.
func (s *Service) Get(ctx context.Context, id int64) (*points.View, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := points.NewView(*p, s.today(), s.window)
	return &v, nil
}

func (s *Service) get(ctx context.Context, id int64) (*points.Point, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, points.NotFound(id)
	}
	return p, nil
}

// List returns one page of points ordered by tag. dueSoon keeps points due on
// or before today plus the configured window, overdue ones included.
func (s *Service) List(ctx context.Context, filter points.Filter, dueSoon bool) (paging.Page[points.View], error) {
	today := s.today()
	filter.Page = filter.Page.Normalize(s.pageDefault, s.pageMax)
	filter.Search = strings.TrimSpace(filter.Search)
	if dueSoon {
		through := calibration.AddDays(today, s.window)
		filter.DueThrough = &through
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return paging.Page[points.View]{}, err
	}
	views := make([]points.View, 0, len(items))
	for _, p := range items {
		views = append(views, points.NewView(p, today, s.window))
	}
	return paging.NewPage(views, total, filter.Page), nil
}

// ListAll returns every point ordered by tag.
func (s *Service) ListAll(ctx context.Context) ([]points.Point, error) {
	return s.repo.ListAll(ctx)
}

// TagExists reports whether a point with tag is registered.
func (s *Service) TagExists(ctx context.Context, tag string) (bool, error) {
	p, err := s.repo.GetByTag(ctx, strings.TrimSpace(tag))
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// CountByEquipment counts points attached to serial.
func (s *Service) CountByEquipment(ctx context.Context, serial string) (int, error) {
	return s.repo.CountByEquipment(ctx, serial)
}

// Create registers a point. The tag must be unused and the equipment, when
// given, must exist.
func (s *Service) Create(ctx context.Context, p *points.Point) error {
	if p == nil {
		return errors.New("points: nil point")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureTagFree(ctx, p.Tag, 0); err != nil {
			return err
		}
		if err := s.ensureEquipment(ctx, p.EquipmentSerial); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
}

// Update merges pt into the stored point.
func (s *Service) Update(ctx context.Context, id int64, pt points.Patch) (*points.View, error) {
	var updated *points.Point
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.get(ctx, id)
		if err != nil {
			return err
		}
		pt.Apply(current)
		if err := current.Validate(); err != nil {
			return err
		}
		if err := s.ensureTagFree(ctx, current.Tag, current.ID); err != nil {
			return err
		}
		if err := s.ensureEquipment(ctx, current.EquipmentSerial); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		updated, err = s.get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	v := points.NewView(*updated, s.today(), s.window)
	return &v, nil
}

// Delete removes a point.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.get(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) ensureTagFree(ctx context.Context, tag string, self int64) error {
	owner, err := s.repo.GetByTag(ctx, tag)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != self {
		return points.DuplicateTag(tag)
	}
	return nil
}

func (s *Service) ensureEquipment(ctx context.Context, serial *string) error {
	if serial == nil {
		return nil
	}
	ok, err := s.equipment.Exists(ctx, *serial)
	if err != nil {
		return err
	}
	if !ok {
		return points.UnknownEquipment(*serial)
	}
	return nil
}
