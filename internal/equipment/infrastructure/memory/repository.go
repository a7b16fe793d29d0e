package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	equipment "equip-manager/internal/equipment/domain"
	"equip-manager/internal/platform/paging"
)

// Repository is an in-memory equipment store.
type Repository struct {
	mu    sync.RWMutex
	items map[string]equipment.Equipment
}

func NewRepository() *Repository {
	return &Repository{items: make(map[string]equipment.Equipment)}
}

func (r *Repository) Get(_ context.Context, serial string) (*equipment.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[serial]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *Repository) GetByTag(_ context.Context, tag string) (*equipment.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.items {
		if e.Tag != nil && *e.Tag == tag {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *Repository) List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, int, error) {
	all, _ := r.ListAll(ctx)
	matched := make([]equipment.Equipment, 0, len(all))
	for _, e := range all {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	return paging.Slice(matched, filter.Page), len(matched), nil
}

func (r *Repository) ListAll(_ context.Context) ([]equipment.Equipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]equipment.Equipment, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out, nil
}

func (r *Repository) Create(_ context.Context, e *equipment.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[e.SerialNumber]; ok {
		return equipment.DuplicateSerial(e.SerialNumber)
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	r.items[e.SerialNumber] = *e
	return nil
}

func (r *Repository) Update(_ context.Context, e *equipment.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[e.SerialNumber]; !ok {
		return equipment.NotFound(e.SerialNumber)
	}
	e.UpdatedAt = time.Now().UTC()
	r.items[e.SerialNumber] = *e
	return nil
}

func (r *Repository) Delete(_ context.Context, serial string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, serial)
	return nil
}

// Len reports the number of stored rows.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
