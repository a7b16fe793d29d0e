package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"equip-manager/internal/platform/paging"
	points "equip-manager/internal/points/domain"
)

// Repository is an in-memory point store.
type Repository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]points.Point
}

func NewRepository() *Repository {
	return &Repository{items: make(map[int64]points.Point)}
}

func (r *Repository) Get(_ context.Context, id int64) (*points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *Repository) GetByTag(_ context.Context, tag string) (*points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if p.Tag == tag {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *Repository) List(ctx context.Context, filter points.Filter) ([]points.Point, int, error) {
	all, _ := r.ListAll(ctx)
	matched := make([]points.Point, 0, len(all))
	for _, p := range all {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	return paging.Slice(matched, filter.Page), len(matched), nil
}

func (r *Repository) ListAll(_ context.Context) ([]points.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]points.Point, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (r *Repository) Create(_ context.Context, p *points.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Tag == p.Tag {
			return points.DuplicateTag(p.Tag)
		}
	}
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.CreatedAt, p.UpdatedAt = now, now
	r.items[p.ID] = *p
	return nil
}

func (r *Repository) Update(_ context.Context, p *points.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return points.NotFound(p.ID)
	}
	p.UpdatedAt = time.Now().UTC()
	r.items[p.ID] = *p
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
	for _, p := range r.items {
		if p.EquipmentSerial != nil && *p.EquipmentSerial == serial {
			n++
		}
	}
	return n, nil
}
