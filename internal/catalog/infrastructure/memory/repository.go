package memory

import (
	"context"
	"sort"
	"sync"

	catalog "equip-manager/internal/catalog/domain"
)

// ReferenceCounter reports how many records outside the catalog use a lookup.
type ReferenceCounter func(kind catalog.Kind, id int64) int

// Repository is an in-memory catalog.
type Repository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[catalog.Kind]map[int64]catalog.Lookup
	refs   ReferenceCounter
}

// Option configures the repository.
type Option func(*Repository)

// WithReferenceCounter plugs in usage counts from other stores.
func WithReferenceCounter(fn ReferenceCounter) Option {
	return func(r *Repository) {
		r.refs = fn
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{items: make(map[catalog.Kind]map[int64]catalog.Lookup)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) List(_ context.Context, kind catalog.Kind, parentID *int64) ([]catalog.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []catalog.Lookup
	for _, item := range r.items[kind] {
		if parentID != nil && (item.ParentID == nil || *item.ParentID != *parentID) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repository) Get(_ context.Context, kind catalog.Kind, id int64) (*catalog.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[kind][id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *Repository) FindByName(_ context.Context, kind catalog.Kind, name string) (*catalog.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items[kind] {
		if item.Name == name {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (r *Repository) Create(_ context.Context, lookup *catalog.Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	lookup.ID = r.nextID
	if r.items[lookup.Kind] == nil {
		r.items[lookup.Kind] = make(map[int64]catalog.Lookup)
	}
	r.items[lookup.Kind][lookup.ID] = *lookup
	return nil
}

func (r *Repository) Update(_ context.Context, lookup *catalog.Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[lookup.Kind][lookup.ID]; !ok {
		return catalog.NotFound(lookup.Kind, lookup.ID)
	}
	r.items[lookup.Kind][lookup.ID] = *lookup
	return nil
}

func (r *Repository) Delete(_ context.Context, kind catalog.Kind, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[kind], id)
	return nil
}

// CountReferences counts child lookups plus whatever the ReferenceCounter reports.
func (r *Repository) CountReferences(_ context.Context, kind catalog.Kind, id int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, child := range catalog.Kinds() {
		if parent, ok := child.Parent(); !ok || parent != kind {
			continue
		}
		for _, item := range r.items[child] {
			if item.ParentID != nil && *item.ParentID == id {
				n++
			}
		}
	}
	if r.refs != nil {
		n += r.refs(kind, id)
	}
	return n, nil
}

func (r *Repository) Count(_ context.Context, kind catalog.Kind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items[kind]), nil
}
