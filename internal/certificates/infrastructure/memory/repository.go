package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	certificates "equip-manager/internal/certificates/domain"
	"equip-manager/internal/platform/paging"
)

// Repository is an in-memory certificate store.
type Repository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]certificates.Certificate
}

func NewRepository() *Repository {
	return &Repository{items: make(map[int64]certificates.Certificate)}
}

func (r *Repository) Get(_ context.Context, id int64) (*certificates.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *Repository) FindByKey(_ context.Context, key certificates.Key) (*certificates.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.Key() == key {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (r *Repository) List(_ context.Context, filter certificates.Filter) ([]certificates.Certificate, int, error) {
	matched := r.sorted(filter.Matches)
	return paging.Slice(matched, filter.Page), len(matched), nil
}

func (r *Repository) ListByEquipment(_ context.Context, serial string) ([]certificates.Certificate, error) {
	return r.sorted(func(c certificates.Certificate) bool { return c.EquipmentSerial == serial }), nil
}

func (r *Repository) sorted(keep func(certificates.Certificate) bool) []certificates.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]certificates.Certificate, 0, len(r.items))
	for _, c := range r.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return certificates.Newer(out[i], out[j]) })
	return out
}

func (r *Repository) Create(_ context.Context, c *certificates.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Key() == c.Key() {
			return certificates.Duplicate(c.Key())
		}
	}
	r.nextID++
	now := time.Now().UTC()
	c.ID = r.nextID
	c.CreatedAt, c.UpdatedAt = now, now
	r.items[c.ID] = *c
	return nil
}

func (r *Repository) Update(_ context.Context, c *certificates.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return certificates.NotFound(c.ID)
	}
	c.UpdatedAt = time.Now().UTC()
	r.items[c.ID] = *c
	return nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *Repository) CountByEquipment(_ context.Context, serial string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, c := range r.items {
		if c.EquipmentSerial == serial {
			n++
		}
	}
	return n, nil
}
