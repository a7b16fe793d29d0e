package catalog

import (
	"context"
	"strings"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/platform/patch"
)

// Kind names a reference list.
type Kind string

const (
	KindManufacturers       Kind = "manufacturers"
	KindModels              Kind = "models"
	KindEquipmentTypes      Kind = "equipment-types"
	KindSites               Kind = "sites"
	KindInstallations       Kind = "installations"
	KindUnits               Kind = "units"
	KindClassifications     Kind = "classifications"
	KindTestNatures         Kind = "test-natures"
	KindStatuses            Kind = "statuses"
	KindUncertaintyServices Kind = "uncertainty-services"
	KindAcceptanceCriteria  Kind = "acceptance-criteria"
)

var kinds = []Kind{
	KindManufacturers,
	KindModels,
	KindEquipmentTypes,
	KindSites,
	KindInstallations,
	KindUnits,
	KindClassifications,
	KindTestNatures,
	KindStatuses,
	KindUncertaintyServices,
	KindAcceptanceCriteria,
}

// Kinds lists every reference list.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind resolves a path segment.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", UnknownKind(raw)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Parent returns the kind a lookup of k hangs under.
func (k Kind) Parent() (Kind, bool) {
	switch k {
	case KindModels:
		return KindManufacturers, true
	case KindInstallations:
		return KindSites, true
	default:
		return "", false
	}
}

// Lookup is one entry of a reference list.
type Lookup struct {
	ID       int64  `json:"id"`
	Kind     Kind   `json:"-"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// Validate checks lookup invariants.
func (l *Lookup) Validate() error {
	if !l.Kind.Valid() {
		return apperrors.Validationf("unknown lookup list %q", l.Kind)
	}
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return apperrors.Validationf("name is required")
	}
	parent, hasParent := l.Kind.Parent()
	switch {
	case hasParent && l.ParentID == nil:
		return apperrors.Validationf("%s requires parent_id referencing %s", l.Kind, parent)
	case !hasParent && l.ParentID != nil:
		return apperrors.Validationf("%s does not take a parent_id", l.Kind)
	}
	return nil
}

// Patch overrides lookup fields.
type Patch struct {
	Name     patch.Field[string] `json:"name"`
	ParentID patch.Field[*int64] `json:"parent_id"`
}

// Apply merges the patch into l.
func (p Patch) Apply(l *Lookup) {
	p.Name.Apply(&l.Name)
	p.ParentID.Apply(&l.ParentID)
}

// Repository persists reference lists. Missing rows come back as nil, nil.
type Repository interface {
	List(ctx context.Context, kind Kind, parentID *int64) ([]Lookup, error)
	Get(ctx context.Context, kind Kind, id int64) (*Lookup, error)
	FindByName(ctx context.Context, kind Kind, name string) (*Lookup, error)
	Create(ctx context.Context, lookup *Lookup) error
	Update(ctx context.Context, lookup *Lookup) error
	Delete(ctx context.Context, kind Kind, id int64) error
	CountReferences(ctx context.Context, kind Kind, id int64) (int, error)
	Count(ctx context.Context, kind Kind) (int, error)
}
