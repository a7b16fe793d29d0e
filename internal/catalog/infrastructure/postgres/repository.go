package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	catalog "equip-manager/internal/catalog/domain"
	"equip-manager/internal/platform/database"
)

type tableSpec struct {
	table        string
	parentColumn string
}

type reference struct {
	table  string
	column string
}

var defaultTables = map[catalog.Kind]tableSpec{
	catalog.KindManufacturers:       {table: "manufacturers"},
	catalog.KindModels:              {table: "equipment_models", parentColumn: "manufacturer_id"},
	catalog.KindEquipmentTypes:      {table: "equipment_types"},
	catalog.KindSites:               {table: "sites"},
	catalog.KindInstallations:       {table: "installations", parentColumn: "site_id"},
	catalog.KindUnits:               {table: "units"},
	catalog.KindClassifications:     {table: "point_classifications"},
	catalog.KindTestNatures:         {table: "test_natures"},
	catalog.KindStatuses:            {table: "statuses"},
	catalog.KindUncertaintyServices: {table: "uncertainty_services"},
	catalog.KindAcceptanceCriteria:  {table: "acceptance_criteria"},
}

var references = map[catalog.Kind][]reference{
	catalog.KindManufacturers:      {{"equipment", "manufacturer_id"}, {"equipment_models", "manufacturer_id"}},
	catalog.KindModels:             {{"equipment", "model_id"}},
	catalog.KindEquipmentTypes:     {{"equipment", "equipment_type_id"}},
	catalog.KindSites:              {{"measurement_points", "site_id"}, {"installations", "site_id"}},
	catalog.KindUnits:              {{"equipment", "unit_id"}},
	catalog.KindClassifications:    {{"measurement_points", "classification_id"}},
	catalog.KindStatuses:           {{"certificates", "status_id"}},
	catalog.KindAcceptanceCriteria: {{"equipment", "acceptance_criterion_id"}},
}

// LookupRepository is a Postgres implementation for every reference list.
type LookupRepository struct {
	db     database.DBTX
	tables map[catalog.Kind]tableSpec
}

// LookupOption configures the repository.
type LookupOption func(*LookupRepository)

// WithTable overrides the table backing kind.
func WithTable(kind catalog.Kind, table string) LookupOption {
	return func(repo *LookupRepository) {
		if table == "" {
			return
		}
		spec := repo.tables[kind]
		spec.table = table
		repo.tables[kind] = spec
	}
}

// NewLookupRepository constructs a repository.
func NewLookupRepository(db database.DBTX, opts ...LookupOption) *LookupRepository {
	repo := &LookupRepository{db: db, tables: make(map[catalog.Kind]tableSpec, len(defaultTables))}
	for kind, spec := range defaultTables {
		repo.tables[kind] = spec
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *LookupRepository) spec(kind catalog.Kind) (tableSpec, error) {
	if r == nil || r.db == nil {
		return tableSpec{}, errors.New("lookup repo: nil db")
	}
	spec, ok := r.tables[kind]
	if !ok {
		return tableSpec{}, catalog.UnknownKind(string(kind))
	}
	return spec, nil
}

func parentExpr(spec tableSpec) string {
	if spec.parentColumn == "" {
		return "NULL::BIGINT"
	}
	return spec.parentColumn
}

// List returns kind ordered by name.
func (r *LookupRepository) List(ctx context.Context, kind catalog.Kind, parentID *int64) ([]catalog.Lookup, error) {
	spec, err := r.spec(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT id, name, %s
FROM %s`, parentExpr(spec), spec.table)
	var args []any
	if parentID != nil && spec.parentColumn != "" {
		query += fmt.Sprintf("\nWHERE %s = $1", spec.parentColumn)
		args = append(args, *parentID)
	}
	query += "\nORDER BY name, id"

	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Lookup
	for rows.Next() {
		item, err := scanLookup(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

// Get loads a lookup by id.
func (r *LookupRepository) Get(ctx context.Context, kind catalog.Kind, id int64) (*catalog.Lookup, error) {
	spec, err := r.spec(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT id, name, %s
FROM %s
WHERE id = $1
LIMIT 1`, parentExpr(spec), spec.table)
	return r.queryOne(ctx, kind, query, id)
}

// FindByName loads a lookup by exact name.
func (r *LookupRepository) FindByName(ctx context.Context, kind catalog.Kind, name string) (*catalog.Lookup, error) {
	spec, err := r.spec(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT id, name, %s
FROM %s
WHERE name = $1
LIMIT 1`, parentExpr(spec), spec.table)
	return r.queryOne(ctx, kind, query, name)
}

// Create inserts a lookup and assigns its id.
func (r *LookupRepository) Create(ctx context.Context, lookup *catalog.Lookup) error {
	if lookup == nil {
		return errors.New("lookup repo: nil lookup")
	}
	spec, err := r.spec(lookup.Kind)
	if err != nil {
		return err
	}
	var row *sql.Row
	if spec.parentColumn == "" {
		query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, spec.table)
		row = database.Conn(ctx, r.db).QueryRowContext(ctx, query, lookup.Name)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (name, %s) VALUES ($1, $2) RETURNING id`, spec.table, spec.parentColumn)
		row = database.Conn(ctx, r.db).QueryRowContext(ctx, query, lookup.Name, lookup.ParentID)
	}
	if err := row.Scan(&lookup.ID); err != nil {
		return mapWriteError(lookup, err)
	}
	return nil
}

// Update writes name and parent.
func (r *LookupRepository) Update(ctx context.Context, lookup *catalog.Lookup) error {
	if lookup == nil {
		return errors.New("lookup repo: nil lookup")
	}
	spec, err := r.spec(lookup.Kind)
	if err != nil {
		return err
	}
	var res sql.Result
	if spec.parentColumn == "" {
		query := fmt.Sprintf(`UPDATE %s SET name = $2 WHERE id = $1`, spec.table)
		res, err = database.Conn(ctx, r.db).ExecContext(ctx, query, lookup.ID, lookup.Name)
	} else {
		query := fmt.Sprintf(`UPDATE %s SET name = $2, %s = $3 WHERE id = $1`, spec.table, spec.parentColumn)
		res, err = database.Conn(ctx, r.db).ExecContext(ctx, query, lookup.ID, lookup.Name, lookup.ParentID)
	}
	if err != nil {
		return mapWriteError(lookup, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.NotFound(lookup.Kind, lookup.ID)
	}
	return nil
}

// Delete removes a lookup.
func (r *LookupRepository) Delete(ctx context.Context, kind catalog.Kind, id int64) error {
	spec, err := r.spec(kind)
	if err != nil {
		return err
	}
	_, err = database.Conn(ctx, r.db).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, spec.table), id)
	if database.IsForeignKeyViolation(err) {
		return catalog.InUse(kind, id, 1)
	}
	return err
}

// CountReferences sums usages across dependent tables.
func (r *LookupRepository) CountReferences(ctx context.Context, kind catalog.Kind, id int64) (int, error) {
	if _, err := r.spec(kind); err != nil {
		return 0, err
	}
	total := 0
	for _, ref := range references[kind] {
		var n int
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, ref.table, ref.column)
		if err := database.Conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&n); err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Count returns the number of rows in kind.
func (r *LookupRepository) Count(ctx context.Context, kind catalog.Kind) (int, error) {
	spec, err := r.spec(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := database.Conn(ctx, r.db).QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, spec.table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *LookupRepository) queryOne(ctx context.Context, kind catalog.Kind, query string, arg any) (*catalog.Lookup, error) {
	item, err := scanLookup(database.Conn(ctx, r.db).QueryRowContext(ctx, query, arg), kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLookup(row scanner, kind catalog.Kind) (*catalog.Lookup, error) {
	var (
		item   = catalog.Lookup{Kind: kind}
		parent sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.Name, &parent); err != nil {
		return nil, err
	}
	if parent.Valid {
		item.ParentID = &parent.Int64
	}
	return &item, nil
}

func mapWriteError(lookup *catalog.Lookup, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return catalog.Duplicate(lookup.Kind, lookup.Name)
	case database.IsForeignKeyViolation(err):
		parent, _ := lookup.Kind.Parent()
		var id int64
		if lookup.ParentID != nil {
			id = *lookup.ParentID
		}
		return catalog.MissingParent(parent, id)
	default:
		return err
	}
}
