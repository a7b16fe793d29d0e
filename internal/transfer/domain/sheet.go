package transfer

import (
	"fmt"
	"strings"

	"equip-manager/internal/apperrors"
)

// Table is a sheet as read: a header row and raw data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Sheet is a sheet to write. Cells are strings or numbers.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// DataRowNumber is the spreadsheet row of the index-th data row; the header
// occupies row 1.
func DataRowNumber(index int) int {
	return index + 2
}

// DefaultMaxReportedErrors caps Result.Errors.
const DefaultMaxReportedErrors = 10

// Result summarises an import batch.
type Result struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`

	maxErrors int
}

// NewResult returns an empty result keeping at most maxErrors messages.
func NewResult(maxErrors int) *Result {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxReportedErrors
	}
	return &Result{Errors: []string{}, maxErrors: maxErrors}
}

// Fail records a failed row.
func (r *Result) Fail(row int, err error) {
	r.Failed++
	if len(r.Errors) < r.maxErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("row %d: %s", row, strings.TrimSpace(err.Error())))
	}
}

// EquipmentTemplate is the import template with two example rows.
func EquipmentTemplate() Sheet {
	resolution, lo, hi := 0.01, 0.0, 100.0
	return Sheet{
		Name:    "equipment",
		Headers: Headers(EquipmentColumns),
		Rows: [][]any{
			EquipmentRecord{
				SerialNumber: "EQ001", Tag: optional("FT-001"), Name: "Medidor de Vazão Principal",
				Manufacturer: "Emerson", Model: "Micro Motion F200", EquipmentType: "Medidor de Vazão", Unit: "m³/h",
				Resolution: &resolution, RangeMin: &lo, RangeMax: &hi,
			}.Cells(),
			EquipmentRecord{
				SerialNumber: "EQ002", Tag: optional("PT-001"), Name: "Transmissor de Pressão",
				Manufacturer: "Yokogawa", Model: "EJA110E", EquipmentType: "Transmissor de Pressão", Unit: "bar",
				Resolution: &resolution, RangeMin: &lo, RangeMax: &hi,
			}.Cells(),
		},
	}
}

// PointTemplate is the import template with two example rows.
func PointTemplate() Sheet {
	yearly, halfYearly := 365, 180
	return Sheet{
		Name:    "points",
		Headers: Headers(PointColumns),
		Rows: [][]any{
			PointRecord{
				Tag: "PM001", Name: "Ponto de Medição Fiscal", Site: "Polo Norte", Classification: "Fiscal",
				EquipmentSerial: optional("EQ001"), LastCalibrationDate: optional("2025-01-15"),
				NextCalibrationDate: optional("2026-01-15"), CalibrationFrequencyDays: &yearly,
			}.Cells(),
			PointRecord{
				Tag: "PM002", Name: "Ponto de Medição Operacional", Site: "Polo Sul", Classification: "Operacional",
				EquipmentSerial: optional("EQ002"), LastCalibrationDate: optional("2025-03-01"),
				NextCalibrationDate: optional("2025-08-28"), CalibrationFrequencyDays: &halfYearly,
			}.Cells(),
		},
	}
}

// Entity names what a spreadsheet carries.
type Entity string

const (
	EntityEquipment Entity = "equipment"
	EntityPoints    Entity = "points"
)

// ParseEntity validates a path or command argument.
func ParseEntity(raw string) (Entity, error) {
	switch e := Entity(strings.ToLower(strings.TrimSpace(raw))); e {
	case EntityEquipment, EntityPoints:
		return e, nil
	}
	return "", apperrors.Validationf("unknown spreadsheet kind %q", raw)
}

// Columns returns the recognised columns for e.
func (e Entity) Columns() []Column {
	if e == EntityPoints {
		return PointColumns
	}
	return EquipmentColumns
}

// Template returns the import template for e.
func (e Entity) Template() Sheet {
	if e == EntityPoints {
		return PointTemplate()
	}
	return EquipmentTemplate()
}

// FileName is the download name for an export or template.
func (e Entity) FileName(prefix string) string {
	return prefix + "_" + string(e) + ".xlsx"
}
