package points

import (
	"context"
	"strings"
	"time"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/calibration"
	"equip-manager/internal/platform/paging"
	"equip-manager/internal/platform/patch"
)

// Point is a metering location identified by its tag. The *Name fields are
// resolved on read only.
type Point struct {
	ID                       int64     `json:"id"`
	SiteID                   *int64    `json:"site_id"`
	SiteName                 *string   `json:"site,omitempty"`
	Name                     string    `json:"name"`
	Tag                      string    `json:"tag"`
	ClassificationID         *int64    `json:"classification_id"`
	ClassificationName       *string   `json:"classification,omitempty"`
	EquipmentSerial          *string   `json:"equipment_serial"`
	EquipmentName            *string   `json:"equipment_name,omitempty"`
	CurrentCertificate       *string   `json:"current_certificate"`
	LastCalibrationDate      *string   `json:"last_calibration_date"`
	NextCalibrationDate      *string   `json:"next_calibration_date"`
	CalibrationFrequencyDays *int      `json:"calibration_frequency_days"`
	RemovalDate              *string   `json:"removal_date"`
	InUseDate                *string   `json:"in_use_date"`
	ExpiryControl            *string   `json:"expiry_control"`
	CalibrationRequest       *string   `json:"calibration_request"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Normalize trims identifiers and turns blank optional text into nil.
func (p *Point) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Tag = strings.TrimSpace(p.Tag)
	for _, s := range []**string{
		&p.EquipmentSerial, &p.CurrentCertificate,
		&p.LastCalibrationDate, &p.NextCalibrationDate,
		&p.RemovalDate, &p.InUseDate,
		&p.ExpiryControl, &p.CalibrationRequest,
	} {
		*s = blankToNil(*s)
	}
}

// Validate checks point invariants. Stored dates must be YYYY-MM-DD.
func (p *Point) Validate() error {
	p.Normalize()
	if p.Name == "" {
		return apperrors.Validationf("name is required")
	}
	if p.Tag == "" {
		return apperrors.Validationf("tag is required")
	}
	dates := []struct {
		field string
		value *string
	}{
		{"last_calibration_date", p.LastCalibrationDate},
		{"next_calibration_date", p.NextCalibrationDate},
		{"removal_date", p.RemovalDate},
		{"in_use_date", p.InUseDate},
	}
	for _, d := range dates {
		if d.value != nil && !calibration.ValidDate(*d.value) {
			return InvalidDate(d.field, *d.value)
		}
	}
	if p.CalibrationFrequencyDays != nil && *p.CalibrationFrequencyDays < 0 {
		return apperrors.Validationf("calibration_frequency_days must not be negative")
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

// View is a point with its calibration status for one reference day.
type View struct {
	Point
	CalibrationStatus calibration.Status `json:"calibration_status"`
	DaysRemaining     *int               `json:"days_remaining"`
}

// NewView evaluates p against today.
func NewView(p Point, today time.Time, windowDays int) View {
	return View{
		Point:             p,
		CalibrationStatus: calibration.EvaluateWithin(p.NextCalibrationDate, today, windowDays),
		DaysRemaining:     calibration.DaysRemaining(p.NextCalibrationDate, today),
	}
}

// Patch overrides point fields.
type Patch struct {
	SiteID                   patch.Field[*int64]  `json:"site_id"`
	Name                     patch.Field[string]  `json:"name"`
	Tag                      patch.Field[string]  `json:"tag"`
	ClassificationID         patch.Field[*int64]  `json:"classification_id"`
	EquipmentSerial          patch.Field[*string] `json:"equipment_serial"`
	CurrentCertificate       patch.Field[*string] `json:"current_certificate"`
	LastCalibrationDate      patch.Field[*string] `json:"last_calibration_date"`
	NextCalibrationDate      patch.Field[*string] `json:"next_calibration_date"`
	CalibrationFrequencyDays patch.Field[*int]    `json:"calibration_frequency_days"`
	RemovalDate              patch.Field[*string] `json:"removal_date"`
	InUseDate                patch.Field[*string] `json:"in_use_date"`
	ExpiryControl            patch.Field[*string] `json:"expiry_control"`
	CalibrationRequest       patch.Field[*string] `json:"calibration_request"`
}

// Apply merges the patch into p.
func (pt Patch) Apply(p *Point) {
	pt.SiteID.Apply(&p.SiteID)
	pt.Name.Apply(&p.Name)
	pt.Tag.Apply(&p.Tag)
	pt.ClassificationID.Apply(&p.ClassificationID)
	pt.EquipmentSerial.Apply(&p.EquipmentSerial)
	pt.CurrentCertificate.Apply(&p.CurrentCertificate)
	pt.LastCalibrationDate.Apply(&p.LastCalibrationDate)
	pt.NextCalibrationDate.Apply(&p.NextCalibrationDate)
	pt.CalibrationFrequencyDays.Apply(&p.CalibrationFrequencyDays)
	pt.RemovalDate.Apply(&p.RemovalDate)
	pt.InUseDate.Apply(&p.InUseDate)
	pt.ExpiryControl.Apply(&p.ExpiryControl)
	pt.CalibrationRequest.Apply(&p.CalibrationRequest)
}

// Filter narrows a listing. DueThrough keeps points whose well formed next
// calibration date is on or before it.
type Filter struct {
	Search           string
	SiteID           *int64
	ClassificationID *int64
	EquipmentSerial  *string
	DueThrough       *string
	Page             paging.Request
}

// Matches applies the filter to one record; in-memory stores use it.
func (f Filter) Matches(p Point) bool {
	if f.SiteID != nil && (p.SiteID == nil || *p.SiteID != *f.SiteID) {
		return false
	}
	if f.ClassificationID != nil && (p.ClassificationID == nil || *p.ClassificationID != *f.ClassificationID) {
		return false
	}
	if f.EquipmentSerial != nil && (p.EquipmentSerial == nil || *p.EquipmentSerial != *f.EquipmentSerial) {
		return false
	}
	if f.DueThrough != nil {
		next := p.NextCalibrationDate
		if next == nil || !calibration.ValidDate(*next) || *next > *f.DueThrough {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Tag), needle) {
		return true
	}
	return p.EquipmentSerial != nil && strings.Contains(strings.ToLower(*p.EquipmentSerial), needle)
}

// Repository persists points. Missing rows come back as nil, nil.
type Repository interface {
	Get(ctx context.Context, id int64) (*Point, error)
	GetByTag(ctx context.Context, tag string) (*Point, error)
	List(ctx context.Context, filter Filter) ([]Point, int, error)
	ListAll(ctx context.Context) ([]Point, error)
	Create(ctx context.Context, p *Point) error
	Update(ctx context.Context, p *Point) error
	Delete(ctx context.Context, id int64) error
	CountByEquipment(ctx context.Context, serial string) (int, error)
}
