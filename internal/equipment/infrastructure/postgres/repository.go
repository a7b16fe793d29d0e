package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	equipment "equip-manager/internal/equipment/domain"
	"equip-manager/internal/platform/database"
)

const defaultEquipmentTable = "equipment"

const selectColumns = `
	e.serial_number, e.tag, e.name,
	e.manufacturer_id, m.name,
	e.model_id, md.name,
	e.equipment_type_id, t.name,
	e.unit_id, u.name,
	e.resolution, e.range_min, e.range_max,
	e.application_range_min, e.application_range_max,
	e.calibrated_range_min, e.calibrated_range_max,
	e.environmental_conditions, e.max_permissible_error,
	e.acceptance_criterion_id, ac.name,
	e.software_version, e.created_at, e.updated_at`

const joins = `
LEFT JOIN manufacturers m ON m.id = e.manufacturer_id
LEFT JOIN equipment_models md ON md.id = e.model_id
LEFT JOIN equipment_types t ON t.id = e.equipment_type_id
LEFT JOIN units u ON u.id = e.unit_id
LEFT JOIN acceptance_criteria ac ON ac.id = e.acceptance_criterion_id`

// EquipmentRepository is a Postgres implementation for equipment.
type EquipmentRepository struct {
	db    database.DBTX
	table string
}

// EquipmentOption configures the repository.
type EquipmentOption func(*EquipmentRepository)

// WithEquipmentTable overrides the default table name.
func WithEquipmentTable(table string) EquipmentOption {
	return func(repo *EquipmentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEquipmentRepository constructs a repository.
func NewEquipmentRepository(db database.DBTX, opts ...EquipmentOption) *EquipmentRepository {
	repo := &EquipmentRepository{db: db, table: defaultEquipmentTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *EquipmentRepository) conn(ctx context.Context) (database.DBTX, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	return database.Conn(ctx, r.db), nil
}

// Get loads equipment by serial number.
func (r *EquipmentRepository) Get(ctx context.Context, serial string) (*equipment.Equipment, error) {
	return r.getBy(ctx, "e.serial_number", serial)
}

// GetByTag loads equipment by tag.
func (r *EquipmentRepository) GetByTag(ctx context.Context, tag string) (*equipment.Equipment, error) {
	return r.getBy(ctx, "e.tag", tag)
}

func (r *EquipmentRepository) getBy(ctx context.Context, column, value string) (*equipment.Equipment, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s e%s
WHERE %s = $1
LIMIT 1`, selectColumns, r.table, joins, column)

	e, err := scanEquipment(db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// List returns one page matching filter and the total match count.
func (r *EquipmentRepository) List(ctx context.Context, filter equipment.Filter) ([]equipment.Equipment, int, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	where, args := buildWhere(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s e%s`, r.table, where)
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s e%s%s
ORDER BY e.serial_number
LIMIT $%d OFFSET $%d`, selectColumns, r.table, joins, where, len(args)+1, len(args)+2)
	args = append(args, filter.Page.PerPage, filter.Page.Offset())

	items, err := r.query(ctx, db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every equipment ordered by serial number.
func (r *EquipmentRepository) ListAll(ctx context.Context) ([]equipment.Equipment, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s e%s
ORDER BY e.serial_number`, selectColumns, r.table, joins)
	return r.query(ctx, db, query)
}

func (r *EquipmentRepository) query(ctx context.Context, db database.DBTX, query string, args ...any) ([]equipment.Equipment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []equipment.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func buildWhere(filter equipment.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(e.serial_number ILIKE $%d OR e.tag ILIKE $%d OR e.name ILIKE $%d)", n, n, n))
	}
	if filter.ManufacturerID != nil {
		args = append(args, *filter.ManufacturerID)
		clauses = append(clauses, fmt.Sprintf("e.manufacturer_id = $%d", len(args)))
	}
	if filter.EquipmentTypeID != nil {
		args = append(args, *filter.EquipmentTypeID)
		clauses = append(clauses, fmt.Sprintf("e.equipment_type_id = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

// Create inserts equipment.
func (r *EquipmentRepository) Create(ctx context.Context, e *equipment.Equipment) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if e == nil {
		return errors.New("equipment repo: nil equipment")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	serial_number,
	tag,
	name,
	manufacturer_id,
	model_id,
	equipment_type_id,
	unit_id,
	resolution,
	range_min,
	range_max,
	application_range_min,
	application_range_max,
	calibrated_range_min,
	calibrated_range_max,
	environmental_conditions,
	max_permissible_error,
	acceptance_criterion_id,
	software_version
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
)
RETURNING created_at, updated_at`, r.table)

	err = db.QueryRowContext(ctx, query, e.SerialNumber, e.Tag, e.Name,
		e.ManufacturerID, e.ModelID, e.EquipmentTypeID, e.UnitID,
		e.Resolution, e.RangeMin, e.RangeMax,
		e.ApplicationRangeMin, e.ApplicationRangeMax,
		e.CalibratedRangeMin, e.CalibratedRangeMax,
		e.EnvironmentalConditions, e.MaxPermissibleError,
		e.AcceptanceCriterionID, e.SoftwareVersion,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return mapWriteError(e, err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return nil
}

// Update writes every mutable column.
func (r *EquipmentRepository) Update(ctx context.Context, e *equipment.Equipment) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if e == nil {
		return errors.New("equipment repo: nil equipment")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	tag = $2,
	name = $3,
	manufacturer_id = $4,
	model_id = $5,
	equipment_type_id = $6,
	unit_id = $7,
	resolution = $8,
	range_min = $9,
	range_max = $10,
	application_range_min = $11,
	application_range_max = $12,
	calibrated_range_min = $13,
	calibrated_range_max = $14,
	environmental_conditions = $15,
	max_permissible_error = $16,
	acceptance_criterion_id = $17,
	software_version = $18,
	updated_at = NOW()
WHERE serial_number = $1`, r.table)

	res, err := db.ExecContext(ctx, query, e.SerialNumber, e.Tag, e.Name,
		e.ManufacturerID, e.ModelID, e.EquipmentTypeID, e.UnitID,
		e.Resolution, e.RangeMin, e.RangeMax,
		e.ApplicationRangeMin, e.ApplicationRangeMax,
		e.CalibratedRangeMin, e.CalibratedRangeMax,
		e.EnvironmentalConditions, e.MaxPermissibleError,
		e.AcceptanceCriterionID, e.SoftwareVersion,
	)
	if err != nil {
		return mapWriteError(e, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return equipment.NotFound(e.SerialNumber)
	}
	return nil
}

// Delete removes equipment by serial number.
func (r *EquipmentRepository) Delete(ctx context.Context, serial string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE serial_number = $1`, r.table), serial)
	if database.IsForeignKeyViolation(err) {
		return equipment.HasDependents(serial, 0, 0)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row scanner) (*equipment.Equipment, error) {
	var (
		e                                                   equipment.Equipment
		tag, manufacturer, model, eqType, unit, env, sw, ac sql.NullString
		manufacturerID, modelID, typeID, unitID, acID       sql.NullInt64
		resolution, rangeMin, rangeMax                      sql.NullFloat64
		appMin, appMax, calMin, calMax, mpe                 sql.NullFloat64
	)
	if err := row.Scan(
		&e.SerialNumber, &tag, &e.Name,
		&manufacturerID, &manufacturer,
		&modelID, &model,
		&typeID, &eqType,
		&unitID, &unit,
		&resolution, &rangeMin, &rangeMax,
		&appMin, &appMax,
		&calMin, &calMax,
		&env, &mpe,
		&acID, &ac,
		&sw, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Tag = database.NullString(tag)
	e.ManufacturerID, e.ManufacturerName = database.NullInt64(manufacturerID), database.NullString(manufacturer)
	e.ModelID, e.ModelName = database.NullInt64(modelID), database.NullString(model)
	e.EquipmentTypeID, e.EquipmentTypeName = database.NullInt64(typeID), database.NullString(eqType)
	e.UnitID, e.UnitName = database.NullInt64(unitID), database.NullString(unit)
	e.Resolution, e.RangeMin, e.RangeMax = database.NullFloat64(resolution), database.NullFloat64(rangeMin), database.NullFloat64(rangeMax)
	e.ApplicationRangeMin, e.ApplicationRangeMax = database.NullFloat64(appMin), database.NullFloat64(appMax)
	e.CalibratedRangeMin, e.CalibratedRangeMax = database.NullFloat64(calMin), database.NullFloat64(calMax)
	e.EnvironmentalConditions = database.NullString(env)
	e.MaxPermissibleError = database.NullFloat64(mpe)
	e.AcceptanceCriterionID, e.AcceptanceCriterionName = database.NullInt64(acID), database.NullString(ac)
	e.SoftwareVersion = database.NullString(sw)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func mapWriteError(e *equipment.Equipment, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		if strings.Contains(database.ConstraintName(err), "tag") && e.Tag != nil {
			return equipment.DuplicateTag(*e.Tag)
		}
		return equipment.DuplicateSerial(e.SerialNumber)
	case database.IsForeignKeyViolation(err):
		return equipment.InvalidReference(referenceField(database.ConstraintName(err)))
	default:
		return err
	}
}

// referenceField derives the column from Postgres' default constraint name,
// e.g. equipment_manufacturer_id_fkey.
func referenceField(constraint string) string {
	field := strings.TrimSuffix(strings.TrimPrefix(constraint, defaultEquipmentTable+"_"), "_fkey")
	if field == "" {
		return "reference"
	}
	return field
}
