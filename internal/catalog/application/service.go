package application

import (
	"context"
	"errors"
	"strings"

	catalog "equip-manager/internal/catalog/domain"
)

// TxRunner runs a unit of work atomically.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service manages reference lists.
type Service struct {
	repo catalog.Repository
	tx   TxRunner
}

// NewService constructs a catalog service.
func NewService(repo catalog.Repository, tx TxRunner) (*Service, error) {
	if repo == nil {
		return nil, errors.New("catalog: nil repository")
	}
	if tx == nil {
		return nil, errors.New("catalog: nil tx runner")
	}
	return &Service{repo: repo, tx: tx}, nil
}

// List returns one reference list ordered by name.
func (s *Service) List(ctx context.Context, kind catalog.Kind, parentID *int64) ([]catalog.Lookup, error) {
	if !kind.Valid() {
		return nil, catalog.UnknownKind(string(kind))
	}
	items, err := s.repo.List(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.Lookup{}
	}
	return items, nil
}

// All returns every reference list keyed by kind.
func (s *Service) All(ctx context.Context) (map[catalog.Kind][]catalog.Lookup, error) {
	out := make(map[catalog.Kind][]catalog.Lookup, len(catalog.Kinds()))
	for _, kind := range catalog.Kinds() {
		items, err := s.List(ctx, kind, nil)
		if err != nil {
			return nil, err
		}
		out[kind] = items
	}
	return out, nil
}

// Get loads one lookup.
func (s *Service) Get(ctx context.Context, kind catalog.Kind, id int64) (*catalog.Lookup, error) {
	lookup, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if lookup == nil {
		return nil, catalog.NotFound(kind, id)
	}
	return lookup, nil
}

// Create adds a lookup. Names are unique within a kind.
func (s *Service) Create(ctx context.Context, kind catalog.Kind, name string, parentID *int64) (*catalog.Lookup, error) {
	lookup := &catalog.Lookup{Kind: kind, Name: name, ParentID: parentID}
	if err := lookup.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUniqueName(ctx, lookup, 0); err != nil {
			return err
		}
		if err := s.ensureParent(ctx, lookup); err != nil {
			return err
		}
		return s.repo.Create(ctx, lookup)
	})
	if err != nil {
		return nil, err
	}
	return lookup, nil
}

// Update renames or re-parents a lookup.
func (s *Service) Update(ctx context.Context, kind catalog.Kind, id int64, p catalog.Patch) (*catalog.Lookup, error) {
	var updated *catalog.Lookup
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.Get(ctx, kind, id)
		if err != nil {
			return err
		}
		p.Apply(current)
		if err := current.Validate(); err != nil {
			return err
		}
		if err := s.ensureUniqueName(ctx, current, id); err != nil {
			return err
		}
		if err := s.ensureParent(ctx, current); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a lookup that nothing references.
func (s *Service) Delete(ctx context.Context, kind catalog.Kind, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, kind, id); err != nil {
			return err
		}
		refs, err := s.repo.CountReferences(ctx, kind, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return catalog.InUse(kind, id, refs)
		}
		return s.repo.Delete(ctx, kind, id)
	})
}

// Ensure returns the id of the lookup called name, creating it when missing.
// A blank name yields nil. Used by spreadsheet import.
func (s *Service) Ensure(ctx context.Context, kind catalog.Kind, name string, parentID *int64) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	existing, err := s.repo.FindByName(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &existing.ID, nil
	}
	created, err := s.Create(ctx, kind, name, parentID)
	if err != nil {
		return nil, err
	}
	return &created.ID, nil
}

// Names maps ids to names for one kind.
func (s *Service) Names(ctx context.Context, kind catalog.Kind) (map[int64]string, error) {
	items, err := s.List(ctx, kind, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(items))
	for _, item := range items {
		out[item.ID] = item.Name
	}
	return out, nil
}

func (s *Service) ensureUniqueName(ctx context.Context, lookup *catalog.Lookup, selfID int64) error {
	existing, err := s.repo.FindByName(ctx, lookup.Kind, lookup.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return catalog.Duplicate(lookup.Kind, lookup.Name)
	}
	return nil
}

func (s *Service) ensureParent(ctx context.Context, lookup *catalog.Lookup) error {
	parentKind, ok := lookup.Kind.Parent()
	if !ok || lookup.ParentID == nil {
		return nil
	}
	parent, err := s.repo.Get(ctx, parentKind, *lookup.ParentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return catalog.MissingParent(parentKind, *lookup.ParentID)
	}
	return nil
}
