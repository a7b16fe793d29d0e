package application

import (
	"context"
	"errors"
	"strings"

	"equip-manager/internal/apperrors"
	certificates "equip-manager/internal/certificates/domain"
	"equip-manager/internal/platform/paging"
)

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EquipmentChecker answers whether a serial number is registered.
type EquipmentChecker interface {
	Exists(ctx context.Context, serial string) (bool, error)
}

// Service manages calibration certificates.
type Service struct {
	repo        certificates.Repository
	equipment   EquipmentChecker
	tx          TxRunner
	pageDefault int
	pageMax     int
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

// NewService constructs a certificates service.
func NewService(repo certificates.Repository, equipment EquipmentChecker, tx TxRunner, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("certificates: nil repository")
	}
	if equipment == nil {
		return nil, errors.New("certificates: nil equipment checker")
	}
	if tx == nil {
		return nil, errors.New("certificates: nil tx runner")
	}
	s := &Service{
		repo:        repo,
		equipment:   equipment,
		tx:          tx,
		pageDefault: paging.DefaultPerPage,
		pageMax:     paging.MaxPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get loads one certificate.
func (s *Service) Get(ctx context.Context, id int64) (*certificates.Certificate, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, certificates.NotFound(id)
	}
	return c, nil
}

// List returns one page of certificates, newest issue date first.
func (s *Service) List(ctx context.Context, filter certificates.Filter) (paging.Page[certificates.Certificate], error) {
	filter.Page = filter.Page.Normalize(s.pageDefault, s.pageMax)
	filter.Search = strings.TrimSpace(filter.Search)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return paging.Page[certificates.Certificate]{}, err
	}
	return paging.NewPage(items, total, filter.Page), nil
}

// ListByEquipment returns every certificate of serial, newest first.
func (s *Service) ListByEquipment(ctx context.Context, serial string) ([]certificates.Certificate, error) {
	serial = strings.TrimSpace(serial)
	ok, err := s.equipment.Exists(ctx, serial)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFoundf("equipment %q not found", serial)
	}
	items, err := s.repo.ListByEquipment(ctx, serial)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []certificates.Certificate{}
	}
	return items, nil
}

// CountByEquipment counts certificates issued for serial.
func (s *Service) CountByEquipment(ctx context.Context, serial string) (int, error) {
	return s.repo.CountByEquipment(ctx, serial)
}

// Create registers a certificate for existing equipment.
func (s *Service) Create(ctx context.Context, c *certificates.Certificate) error {
	if c == nil {
		return errors.New("certificates: nil certificate")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.check(ctx, c); err != nil {
			return err
		}
		return s.repo.Create(ctx, c)
	})
}

// Update merges p into the stored certificate and rechecks its identity.
func (s *Service) Update(ctx context.Context, id int64, p certificates.Patch) (*certificates.Certificate, error) {
	var updated *certificates.Certificate
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		p.Apply(current)
		if err := current.Validate(); err != nil {
			return err
		}
		if err := s.check(ctx, current); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		updated, err = s.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a certificate.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) check(ctx context.Context, c *certificates.Certificate) error {
	ok, err := s.equipment.Exists(ctx, c.EquipmentSerial)
	if err != nil {
		return err
	}
	if !ok {
		return certificates.UnknownEquipment(c.EquipmentSerial)
	}
	existing, err := s.repo.FindByKey(ctx, c.Key())
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return certificates.Duplicate(c.Key())
	}
	return nil
}
