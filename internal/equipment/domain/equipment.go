package equipment

import (
	"context"
	"strings"
	"time"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/platform/paging"
	"equip-manager/internal/platform/patch"
)

// Equipment is a measuring instrument identified by its serial number.
// The *Name fields are resolved lookup names, filled on read only.
type Equipment struct {
	SerialNumber            string    `json:"serial_number"`
	Tag                     *string   `json:"tag"`
	Name                    string    `json:"name"`
	ManufacturerID          *int64    `json:"manufacturer_id"`
	ManufacturerName        *string   `json:"manufacturer,omitempty"`
	ModelID                 *int64    `json:"model_id"`
	ModelName               *string   `json:"model,omitempty"`
	EquipmentTypeID         *int64    `json:"equipment_type_id"`
	EquipmentTypeName       *string   `json:"equipment_type,omitempty"`
	UnitID                  *int64    `json:"unit_id"`
	UnitName                *string   `json:"unit,omitempty"`
	Resolution              *float64  `json:"resolution"`
	RangeMin                *float64  `json:"range_min"`
	RangeMax                *float64  `json:"range_max"`
	ApplicationRangeMin     *float64  `json:"application_range_min"`
	ApplicationRangeMax     *float64  `json:"application_range_max"`
	CalibratedRangeMin      *float64  `json:"calibrated_range_min"`
	CalibratedRangeMax      *float64  `json:"calibrated_range_max"`
	EnvironmentalConditions *string   `json:"environmental_conditions"`
	MaxPermissibleError     *float64  `json:"max_permissible_error"`
	AcceptanceCriterionID   *int64    `json:"acceptance_criterion_id"`
	AcceptanceCriterionName *string   `json:"acceptance_criterion,omitempty"`
	SoftwareVersion         *string   `json:"software_version"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Normalize trims identifiers and turns blank optional text into nil.
func (e *Equipment) Normalize() {
	e.SerialNumber = strings.TrimSpace(e.SerialNumber)
	e.Name = strings.TrimSpace(e.Name)
	e.Tag = blankToNil(e.Tag)
	e.EnvironmentalConditions = blankToNil(e.EnvironmentalConditions)
	e.SoftwareVersion = blankToNil(e.SoftwareVersion)
}

// Validate checks equipment invariants.
func (e *Equipment) Validate() error {
	e.Normalize()
	if e.SerialNumber == "" {
		return apperrors.Validationf("serial_number is required")
	}
	if e.Name == "" {
		return apperrors.Validationf("name is required")
	}
	if err := checkRange("range", e.RangeMin, e.RangeMax); err != nil {
		return err
	}
	if err := checkRange("application_range", e.ApplicationRangeMin, e.ApplicationRangeMax); err != nil {
		return err
	}
	return checkRange("calibrated_range", e.CalibratedRangeMin, e.CalibratedRangeMax)
}

func checkRange(name string, lo, hi *float64) error {
	if lo != nil && hi != nil && *lo > *hi {
		return apperrors.Validationf("%s_min %g exceeds %s_max %g", name, *lo, name, *hi)
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Patch overrides equipment fields. The serial number is immutable and has no
// override.
type Patch struct {
	Tag                     patch.Field[*string]  `json:"tag"`
	Name                    patch.Field[string]   `json:"name"`
	ManufacturerID          patch.Field[*int64]   `json:"manufacturer_id"`
	ModelID                 patch.Field[*int64]   `json:"model_id"`
	EquipmentTypeID         patch.Field[*int64]   `json:"equipment_type_id"`
	UnitID                  patch.Field[*int64]   `json:"unit_id"`
	Resolution              patch.Field[*float64] `json:"resolution"`
	RangeMin                patch.Field[*float64] `json:"range_min"`
	RangeMax                patch.Field[*float64] `json:"range_max"`
	ApplicationRangeMin     patch.Field[*float64] `json:"application_range_min"`
	ApplicationRangeMax     patch.Field[*float64] `json:"application_range_max"`
	CalibratedRangeMin      patch.Field[*float64] `json:"calibrated_range_min"`
	CalibratedRangeMax      patch.Field[*float64] `json:"calibrated_range_max"`
	EnvironmentalConditions patch.Field[*string]  `json:"environmental_conditions"`
	MaxPermissibleError     patch.Field[*float64] `json:"max_permissible_error"`
	AcceptanceCriterionID   patch.Field[*int64]   `json:"acceptance_criterion_id"`
	SoftwareVersion         patch.Field[*string]  `json:"software_version"`
}

// Apply merges the patch into e.
func (p Patch) Apply(e *Equipment) {
	p.Tag.Apply(&e.Tag)
	p.Name.Apply(&e.Name)
	p.ManufacturerID.Apply(&e.ManufacturerID)
	p.ModelID.Apply(&e.ModelID)
	p.EquipmentTypeID.Apply(&e.EquipmentTypeID)
	p.UnitID.Apply(&e.UnitID)
	p.Resolution.Apply(&e.Resolution)
	p.RangeMin.Apply(&e.RangeMin)
	p.RangeMax.Apply(&e.RangeMax)
	p.ApplicationRangeMin.Apply(&e.ApplicationRangeMin)
	p.ApplicationRangeMax.Apply(&e.ApplicationRangeMax)
	p.CalibratedRangeMin.Apply(&e.CalibratedRangeMin)
	p.CalibratedRangeMax.Apply(&e.CalibratedRangeMax)
	p.EnvironmentalConditions.Apply(&e.EnvironmentalConditions)
	p.MaxPermissibleError.Apply(&e.MaxPermissibleError)
	p.AcceptanceCriterionID.Apply(&e.AcceptanceCriterionID)
	p.SoftwareVersion.Apply(&e.SoftwareVersion)
}

// Filter narrows a listing.
type Filter struct {
	Search          string
	ManufacturerID  *int64
	EquipmentTypeID *int64
	Page            paging.Request
}

// Matches applies the filter to one record; in-memory stores use it.
func (f Filter) Matches(e Equipment) bool {
	if f.ManufacturerID != nil && (e.ManufacturerID == nil || *e.ManufacturerID != *f.ManufacturerID) {
		return false
	}
	if f.EquipmentTypeID != nil && (e.EquipmentTypeID == nil || *e.EquipmentTypeID != *f.EquipmentTypeID) {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(e.SerialNumber), needle) || strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	return e.Tag != nil && strings.Contains(strings.ToLower(*e.Tag), needle)
}

// Repository persists equipment. Missing rows come back as nil, nil.
type Repository interface {
	Get(ctx context.Context, serial string) (*Equipment, error)
	GetByTag(ctx context.Context, tag string) (*Equipment, error)
	List(ctx context.Context, filter Filter) ([]Equipment, int, error)
	ListAll(ctx context.Context) ([]Equipment, error)
	Create(ctx context.Context, e *Equipment) error
	Update(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, serial string) error
}
