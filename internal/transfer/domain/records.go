package transfer

import (
	"errors"
	"fmt"
)

// EquipmentRecord is one parsed equipment row. Lookups are carried by name.
type EquipmentRecord struct {
	SerialNumber  string
	Tag           *string
	Name          string
	Manufacturer  string
	Model         string
	EquipmentType string
	Unit          string
	Resolution    *float64
	RangeMin      *float64
	RangeMax      *float64
}

// ParseEquipmentRow validates and converts one equipment row.
func ParseEquipmentRow(row Row) (EquipmentRecord, error) {
	rec := EquipmentRecord{
		SerialNumber:  row.Get(ColSerial),
		Tag:           optional(row.Get(ColTag)),
		Name:          row.Get(ColName),
		Manufacturer:  row.Get(ColManufacturer),
		Model:         row.Get(ColModel),
		EquipmentType: row.Get(ColType),
		Unit:          row.Get(ColUnit),
	}
	if rec.SerialNumber == "" {
		return EquipmentRecord{}, errors.New("serial number is required")
	}
	if rec.Name == "" {
		rec.Name = "Equipamento " + rec.SerialNumber
	}
	if rec.Model != "" && rec.Manufacturer == "" {
		return EquipmentRecord{}, fmt.Errorf("model %q requires a manufacturer", rec.Model)
	}
	var err error
	if rec.Resolution, err = ParseNumber(row.Get(ColResolution)); err != nil {
		return EquipmentRecord{}, fmt.Errorf("resolution: %w", err)
	}
	if rec.RangeMin, err = ParseNumber(row.Get(ColRangeMin)); err != nil {
		return EquipmentRecord{}, fmt.Errorf("range min: %w", err)
	}
	if rec.RangeMax, err = ParseNumber(row.Get(ColRangeMax)); err != nil {
		return EquipmentRecord{}, fmt.Errorf("range max: %w", err)
	}
	return rec, nil
}

// Cells renders the record in EquipmentColumns order.
func (r EquipmentRecord) Cells() []any {
	tag := ""
	if r.Tag != nil {
		tag = *r.Tag
	}
	return []any{
		r.SerialNumber, tag, r.Name, r.Manufacturer, r.Model, r.EquipmentType, r.Unit,
		NumberCell(r.Resolution), NumberCell(r.RangeMin), NumberCell(r.RangeMax),
	}
}

// PointRecord is one parsed measurement point row.
type PointRecord struct {
	Tag                      string
	Name                     string
	Site                     string
	Classification           string
	EquipmentSerial          *string
	LastCalibrationDate      *string
	NextCalibrationDate      *string
	CalibrationFrequencyDays *int
}

// ParsePointRow validates and converts one point row.
func ParsePointRow(row Row) (PointRecord, error) {
	rec := PointRecord{
		Tag:             row.Get(ColPointTag),
		Name:            row.Get(ColPointName),
		Site:            row.Get(ColSite),
		Classification:  row.Get(ColClassification),
		EquipmentSerial: optional(row.Get(ColEquipmentSerial)),
	}
	if rec.Tag == "" {
		return PointRecord{}, errors.New("point tag is required")
	}
	if rec.Name == "" {
		rec.Name = "Ponto " + rec.Tag
	}
	var err error
	if rec.LastCalibrationDate, err = NormalizeDate(row.Get(ColLastCalibration)); err != nil {
		return PointRecord{}, fmt.Errorf("last calibration: %w", err)
	}
	if rec.NextCalibrationDate, err = NormalizeDate(row.Get(ColNextCalibration)); err != nil {
		return PointRecord{}, fmt.Errorf("next calibration: %w", err)
	}
	if rec.CalibrationFrequencyDays, err = ParseWholeNumber(row.Get(ColFrequency)); err != nil {
		return PointRecord{}, fmt.Errorf("calibration frequency: %w", err)
	}
	return rec, nil
}

// Cells renders the record in PointColumns order.
func (r PointRecord) Cells() []any {
	frequency := any("")
	if r.CalibrationFrequencyDays != nil {
		frequency = *r.CalibrationFrequencyDays
	}
	return []any{
		r.Tag, r.Name, r.Site, r.Classification,
		deref(r.EquipmentSerial), deref(r.LastCalibrationDate), deref(r.NextCalibrationDate),
		frequency,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
