package application

import (
	"context"
	"errors"
	"fmt"

	catalog "equip-manager/internal/catalog/domain"
	equipment "equip-manager/internal/equipment/domain"
	points "equip-manager/internal/points/domain"
	transfer "equip-manager/internal/transfer/domain"
)

// LookupNamer maps lookup ids to names.
type LookupNamer interface {
	Names(ctx context.Context, kind catalog.Kind) (map[int64]string, error)
}

// EquipmentLister lists all equipment.
type EquipmentLister interface {
	ListAll(ctx context.Context) ([]equipment.Equipment, error)
}

// PointLister lists all measurement points.
type PointLister interface {
	ListAll(ctx context.Context) ([]points.Point, error)
}

// Exporter renders stored records as sheets the Importer reads back.
type Exporter struct {
	lookups   LookupNamer
	equipment EquipmentLister
	points    PointLister
}

func NewExporter(lookups LookupNamer, equipmentLister EquipmentLister, pointLister PointLister) (*Exporter, error) {
	if lookups == nil || equipmentLister == nil || pointLister == nil {
		return nil, errors.New("transfer: nil store")
	}
	return &Exporter{lookups: lookups, equipment: equipmentLister, points: pointLister}, nil
}

// Export builds the sheet for entity.
func (x *Exporter) Export(ctx context.Context, entity transfer.Entity) (transfer.Sheet, error) {
	switch entity {
	case transfer.EntityEquipment:
		return x.exportEquipment(ctx)
	case transfer.EntityPoints:
		return x.exportPoints(ctx)
	}
	return transfer.Sheet{}, fmt.Errorf("transfer: unknown entity %q", entity)
}

type names map[catalog.Kind]map[int64]string

func (n names) lookup(kind catalog.Kind, id *int64) string {
	if id == nil {
		return ""
	}
	return n[kind][*id]
}

func (x *Exporter) loadNames(ctx context.Context, kinds ...catalog.Kind) (names, error) {
	out := make(names, len(kinds))
	for _, kind := range kinds {
		m, err := x.lookups.Names(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("transfer: load %s: %w", kind, err)
		}
		out[kind] = m
	}
	return out, nil
}

func (x *Exporter) exportEquipment(ctx context.Context) (transfer.Sheet, error) {
	items, err := x.equipment.ListAll(ctx)
	if err != nil {
		return transfer.Sheet{}, err
	}
	n, err := x.loadNames(ctx, catalog.KindManufacturers, catalog.KindModels, catalog.KindEquipmentTypes, catalog.KindUnits)
	if err != nil {
		return transfer.Sheet{}, err
	}
	sheet := transfer.Sheet{Name: "equipment", Headers: transfer.Headers(transfer.EquipmentColumns), Rows: make([][]any, 0, len(items))}
	for _, e := range items {
		sheet.Rows = append(sheet.Rows, transfer.EquipmentRecord{
			SerialNumber:  e.SerialNumber,
			Tag:           e.Tag,
			Name:          e.Name,
			Manufacturer:  n.lookup(catalog.KindManufacturers, e.ManufacturerID),
			Model:         n.lookup(catalog.KindModels, e.ModelID),
			EquipmentType: n.lookup(catalog.KindEquipmentTypes, e.EquipmentTypeID),
			Unit:          n.lookup(catalog.KindUnits, e.UnitID),
			Resolution:    e.Resolution,
			RangeMin:      e.RangeMin,
			RangeMax:      e.RangeMax,
		}.Cells())
	}
	return sheet, nil
}

func (x *Exporter) exportPoints(ctx context.Context) (transfer.Sheet, error) {
	items, err := x.points.ListAll(ctx)
	if err != nil {
		return transfer.Sheet{}, err
	}
	n, err := x.loadNames(ctx, catalog.KindSites, catalog.KindClassifications)
	if err != nil {
		return transfer.Sheet{}, err
	}
	sheet := transfer.Sheet{Name: "points", Headers: transfer.Headers(transfer.PointColumns), Rows: make([][]any, 0, len(items))}
	for _, p := range items {
		sheet.Rows = append(sheet.Rows, transfer.PointRecord{
			Tag:                      p.Tag,
			Name:                     p.Name,
			Site:                     n.lookup(catalog.KindSites, p.SiteID),
			Classification:           n.lookup(catalog.KindClassifications, p.ClassificationID),
			EquipmentSerial:          p.EquipmentSerial,
			LastCalibrationDate:      p.LastCalibrationDate,
			NextCalibrationDate:      p.NextCalibrationDate,
			CalibrationFrequencyDays: p.CalibrationFrequencyDays,
		}.Cells())
	}
	return sheet, nil
}
