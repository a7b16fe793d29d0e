package certificates

import (
	"context"
	"strings"
	"time"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/calibration"
	"equip-manager/internal/platform/paging"
	"equip-manager/internal/platform/patch"
)

// Certificate is a calibration certificate issued for one equipment. An absent
// revision is the empty string.
type Certificate struct {
	ID              int64     `json:"id"`
	EquipmentSerial string    `json:"equipment_serial"`
	EquipmentName   *string   `json:"equipment_name,omitempty"`
	Number          string    `json:"number"`
	Revision        string    `json:"revision"`
	IssueDate       string    `json:"issue_date"`
	StatusID        *int64    `json:"status_id"`
	StatusName      *string   `json:"status,omitempty"`
	FilePath        *string   `json:"file_path"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Key is the natural identity of a certificate.
type Key struct {
	EquipmentSerial string
	Number          string
	Revision        string
}

func (c *Certificate) Key() Key {
	return Key{EquipmentSerial: c.EquipmentSerial, Number: c.Number, Revision: c.Revision}
}

// Validate normalizes and checks certificate invariants.
func (c *Certificate) Validate() error {
	c.EquipmentSerial = strings.TrimSpace(c.EquipmentSerial)
	c.Number = strings.TrimSpace(c.Number)
	c.Revision = strings.TrimSpace(c.Revision)
	c.IssueDate = strings.TrimSpace(c.IssueDate)
	if c.FilePath != nil {
		if v := strings.TrimSpace(*c.FilePath); v == "" {
			c.FilePath = nil
		} else {
			c.FilePath = &v
		}
	}
	switch {
	case c.EquipmentSerial == "":
		return apperrors.Validationf("equipment_serial is required")
	case c.Number == "":
		return apperrors.Validationf("number is required")
	case c.IssueDate == "":
		return apperrors.Validationf("issue_date is required")
	case !calibration.ValidDate(c.IssueDate):
		return apperrors.Validationf("issue_date %q is not a YYYY-MM-DD date", c.IssueDate)
	}
	return nil
}

// Patch overrides certificate fields.
type Patch struct {
	EquipmentSerial patch.Field[string]  `json:"equipment_serial"`
	Number          patch.Field[string]  `json:"number"`
	Revision        patch.Field[*string] `json:"revision"`
	IssueDate       patch.Field[string]  `json:"issue_date"`
	StatusID        patch.Field[*int64]  `json:"status_id"`
	FilePath        patch.Field[*string] `json:"file_path"`
}

// Apply merges the patch into c. A null revision resets it to empty.
func (p Patch) Apply(c *Certificate) {
	p.EquipmentSerial.Apply(&c.EquipmentSerial)
	p.Number.Apply(&c.Number)
	if p.Revision.Set {
		c.Revision = ""
		if p.Revision.Value != nil {
			c.Revision = *p.Revision.Value
		}
	}
	p.IssueDate.Apply(&c.IssueDate)
	p.StatusID.Apply(&c.StatusID)
	p.FilePath.Apply(&c.FilePath)
}

// Filter narrows a listing.
type Filter struct {
	Search          string
	EquipmentSerial *string
	StatusID        *int64
	Page            paging.Request
}

// Matches applies the filter to one record; in-memory stores use it.
func (f Filter) Matches(c Certificate) bool {
	if f.EquipmentSerial != nil && c.EquipmentSerial != *f.EquipmentSerial {
		return false
	}
	if f.StatusID != nil && (c.StatusID == nil || *c.StatusID != *f.StatusID) {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(c.Number), needle) ||
		strings.Contains(strings.ToLower(c.EquipmentSerial), needle)
}

// Newer orders certificates by issue date then id, newest first.
func Newer(a, b Certificate) bool {
	if a.IssueDate != b.IssueDate {
		return a.IssueDate > b.IssueDate
	}
	return a.ID > b.ID
}

// Repository persists certificates. Missing rows come back as nil, nil.
type Repository interface {
	Get(ctx context.Context, id int64) (*Certificate, error)
	FindByKey(ctx context.Context, key Key) (*Certificate, error)
	List(ctx context.Context, filter Filter) ([]Certificate, int, error)
	ListByEquipment(ctx context.Context, serial string) ([]Certificate, error)
	Create(ctx context.Context, c *Certificate) error
	Update(ctx context.Context, c *Certificate) error
	Delete(ctx context.Context, id int64) error
	CountByEquipment(ctx context.Context, serial string) (int, error)
}
