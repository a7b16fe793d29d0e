package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	catalog "equip-manager/internal/catalog/domain"
	equipment "equip-manager/internal/equipment/domain"
	"equip-manager/internal/observability/metrics"
	points "equip-manager/internal/points/domain"
	transfer "equip-manager/internal/transfer/domain"
)

// TxRunner runs a unit of work atomically. Nested units become savepoints.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LookupEnsurer resolves lookup names, creating missing ones.
type LookupEnsurer interface {
	Ensure(ctx context.Context, kind catalog.Kind, name string, parentID *int64) (*int64, error)
	Get(ctx context.Context, kind catalog.Kind, id int64) (*catalog.Lookup, error)
}

// EquipmentStore is the equipment side of an import.
type EquipmentStore interface {
	Exists(ctx context.Context, serial string) (bool, error)
	Create(ctx context.Context, e *equipment.Equipment) error
}

// PointStore is the measurement point side of an import.
type PointStore interface {
	TagExists(ctx context.Context, tag string) (bool, error)
	Create(ctx context.Context, p *points.Point) error
}

// Importer loads spreadsheet tables row by row. A failing row is rolled back
// alone and reported; the rest of the batch is kept.
type Importer struct {
	tx        TxRunner
	lookups   LookupEnsurer
	equipment EquipmentStore
	points    PointStore
	maxErrors int
	logger    *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithMaxErrors caps the row messages kept in a result.
func WithMaxErrors(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.maxErrors = n
		}
	}
}

// WithLogger sets the importer logger.
func WithLogger(logger *zap.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func NewImporter(tx TxRunner, lookups LookupEnsurer, equipmentStore EquipmentStore, pointStore PointStore, opts ...ImporterOption) (*Importer, error) {
	if tx == nil {
		return nil, errors.New("transfer: nil tx runner")
	}
	if lookups == nil || equipmentStore == nil || pointStore == nil {
		return nil, errors.New("transfer: nil store")
	}
	i := &Importer{
		tx:        tx,
		lookups:   lookups,
		equipment: equipmentStore,
		points:    pointStore,
		maxErrors: transfer.DefaultMaxReportedErrors,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Import writes every non-blank row of table as entity records.
func (i *Importer) Import(ctx context.Context, entity transfer.Entity, table transfer.Table) (res *transfer.Result, err error) {
	start := time.Now()
	res = transfer.NewResult(i.maxErrors)
	defer func() {
		metrics.ObserveImport(string(entity), res.Imported, res.Failed, time.Since(start), err)
	}()

	var importRow func(ctx context.Context, row transfer.Row) error
	switch entity {
	case transfer.EntityEquipment:
		importRow = i.importEquipment
	case transfer.EntityPoints:
		importRow = i.importPoint
	default:
		return res, fmt.Errorf("transfer: unknown entity %q", entity)
	}

	idx := transfer.IndexHeaders(table.Headers, entity.Columns())
	err = i.tx.WithinTx(ctx, func(ctx context.Context) error {
		for n, raw := range table.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if transfer.Blank(raw) {
				continue
			}
			row := idx.BuildRow(raw)
			rowErr := i.tx.WithinTx(ctx, func(ctx context.Context) error {
				return importRow(ctx, row)
			})
			if rowErr != nil {
				res.Fail(transfer.DataRowNumber(n), rowErr)
				continue
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		i.logger.Error("import failed", zap.String("entity", string(entity)), zap.Error(err))
		return res, err
	}
	i.logger.Info("import finished",
		zap.String("entity", string(entity)),
		zap.Int("imported", res.Imported),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (i *Importer) importEquipment(ctx context.Context, row transfer.Row) error {
	rec, err := transfer.ParseEquipmentRow(row)
	if err != nil {
		return err
	}
	exists, err := i.equipment.Exists(ctx, rec.SerialNumber)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("equipment %s already exists", rec.SerialNumber)
	}

	e := &equipment.Equipment{
		SerialNumber: rec.SerialNumber,
		Tag:          rec.Tag,
		Name:         rec.Name,
		Resolution:   rec.Resolution,
		RangeMin:     rec.RangeMin,
		RangeMax:     rec.RangeMax,
	}
	if e.ManufacturerID, err = i.lookups.Ensure(ctx, catalog.KindManufacturers, rec.Manufacturer, nil); err != nil {
		return err
	}
	if rec.Model != "" {
		if e.ModelID, err = i.lookups.Ensure(ctx, catalog.KindModels, rec.Model, e.ManufacturerID); err != nil {
			return err
		}
		if err := i.checkModelOwner(ctx, *e.ModelID, *e.ManufacturerID); err != nil {
			return err
		}
	}
	if e.EquipmentTypeID, err = i.lookups.Ensure(ctx, catalog.KindEquipmentTypes, rec.EquipmentType, nil); err != nil {
		return err
	}
	if e.UnitID, err = i.lookups.Ensure(ctx, catalog.KindUnits, rec.Unit, nil); err != nil {
		return err
	}
	return i.equipment.Create(ctx, e)
}

// checkModelOwner rejects a model name already registered under another
// manufacturer; model names are unique across manufacturers.
func (i *Importer) checkModelOwner(ctx context.Context, modelID, manufacturerID int64) error {
	model, err := i.lookups.Get(ctx, catalog.KindModels, modelID)
	if err != nil {
		return err
	}
	if model.ParentID != nil && *model.ParentID == manufacturerID {
		return nil
	}
	if model.ParentID == nil {
		return fmt.Errorf("model %s has no manufacturer", model.Name)
	}
	owner, err := i.lookups.Get(ctx, catalog.KindManufacturers, *model.ParentID)
	if err != nil {
		return err
	}
	return fmt.Errorf("model %s belongs to manufacturer %s", model.Name, owner.Name)
}

func (i *Importer) importPoint(ctx context.Context, row transfer.Row) error {
	rec, err := transfer.ParsePointRow(row)
	if err != nil {
		return err
	}
	exists, err := i.points.TagExists(ctx, rec.Tag)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("point %s already exists", rec.Tag)
	}

	p := &points.Point{
		Tag:                      rec.Tag,
		Name:                     rec.Name,
		EquipmentSerial:          rec.EquipmentSerial,
		LastCalibrationDate:      rec.LastCalibrationDate,
		NextCalibrationDate:      rec.NextCalibrationDate,
		CalibrationFrequencyDays: rec.CalibrationFrequencyDays,
	}
	if p.SiteID, err = i.lookups.Ensure(ctx, catalog.KindSites, rec.Site, nil); err != nil {
		return err
	}
	if p.ClassificationID, err = i.lookups.Ensure(ctx, catalog.KindClassifications, rec.Classification, nil); err != nil {
		return err
	}
	return i.points.Create(ctx, p)
}
