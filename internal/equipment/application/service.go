package application

import (
	"context"
	"errors"
	"strings"

	equipment "equip-manager/internal/equipment/domain"
	"equip-manager/internal/platform/paging"
)

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DependentCounter counts records that reference an equipment serial.
type DependentCounter interface {
	CountByEquipment(ctx context.Context, serial string) (int, error)
}

// Service handles equipment registration.
type Service struct {
	repo         equipment.Repository
	points       DependentCounter
	certificates DependentCounter
	tx           TxRunner
	pageDefault  int
	pageMax      int
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithPageSizes overrides default and maximum page sizes.
func WithPageSizes(def, max int) ServiceOption {
	return func(s *Service) {
		s.pageDefault = def
		s.pageMax = max
	}
}

// NewService constructs an equipment service.
func NewService(repo equipment.Repository, points, certificates DependentCounter, tx TxRunner, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("equipment: nil repository")
	}
	if points == nil || certificates == nil {
		return nil, errors.New("equipment: nil dependent counter")
	}
	if tx == nil {
		return nil, errors.New("equipment: nil tx runner")
	}
	s := &Service{
		repo:         repo,
		points:       points,
		certificates: certificates,
		tx:           tx,
		pageDefault:  paging.DefaultPerPage,
		pageMax:      paging.MaxPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get loads one equipment.
func (s *Service) Get(ctx context.Context, serial string) (*equipment.Equipment, error) {
	serial = strings.TrimSpace(serial)
	e, err := s.repo.Get(ctx, serial)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, equipment.NotFound(serial)
	}
	return e, nil
}

// Exists reports whether serial is registered.
func (s *Service) Exists(ctx context.Context, serial string) (bool, error) {
	e, err := s.repo.Get(ctx, strings.TrimSpace(serial))
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// List returns one page of equipment ordered by serial number.
func (s *Service) List(ctx context.Context, filter equipment.Filter) (paging.Page[equipment.Equipment], error) {
	filter.Page = filter.Page.Normalize(s.pageDefault, s.pageMax)
	filter.Search = strings.TrimSpace(filter.Search)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return paging.Page[equipment.Equipment]{}, err
	}
	return paging.NewPage(items, total, filter.Page), nil
}

// ListAll returns every equipment ordered by serial number.
func (s *Service) ListAll(ctx context.Context) ([]equipment.Equipment, error) {
	return s.repo.ListAll(ctx)
}

// Create registers new equipment. Serial number and tag must be unused.
func (s *Service) Create(ctx context.Context, e *equipment.Equipment) error {
	if e == nil {
		return errors.New("equipment: nil equipment")
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, e.SerialNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return equipment.DuplicateSerial(e.SerialNumber)
		}
		if err := s.ensureTagFree(ctx, e.Tag, ""); err != nil {
			return err
		}
		return s.repo.Create(ctx, e)
	})
}

// Update merges p into the stored equipment.
func (s *Service) Update(ctx context.Context, serial string, p equipment.Patch) (*equipment.Equipment, error) {
	var updated *equipment.Equipment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, serial)
		if err != nil {
			return err
		}
		p.Apply(current)
		if err := current.Validate(); err != nil {
			return err
		}
		if err := s.ensureTagFree(ctx, current.Tag, current.SerialNumber); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		updated, err = s.repo.Get(ctx, current.SerialNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes equipment that no point or certificate references.
func (s *Service) Delete(ctx context.Context, serial string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, serial)
		if err != nil {
			return err
		}
		points, err := s.points.CountByEquipment(ctx, current.SerialNumber)
		if err != nil {
			return err
		}
		certificates, err := s.certificates.CountByEquipment(ctx, current.SerialNumber)
		if err != nil {
			return err
		}
		if points > 0 || certificates > 0 {
			return equipment.HasDependents(current.SerialNumber, points, certificates)
		}
		return s.repo.Delete(ctx, current.SerialNumber)
	})
}

func (s *Service) ensureTagFree(ctx context.Context, tag *string, self string) error {
	if tag == nil {
		return nil
	}
	owner, err := s.repo.GetByTag(ctx, *tag)
	if err != nil {
		return err
	}
	if owner != nil && owner.SerialNumber != self {
		return equipment.DuplicateTag(*tag)
	}
	return nil
}
