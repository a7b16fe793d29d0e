package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"equip-manager/internal/platform/database"
	points "equip-manager/internal/points/domain"
)

const defaultPointTable = "measurement_points"

const selectColumns = `
	p.id, p.site_id, s.name, p.name, p.tag,
	p.classification_id, c.name,
	p.equipment_serial, e.name,
	p.current_certificate, p.last_calibration_date, p.next_calibration_date,
	p.calibration_frequency_days, p.removal_date, p.in_use_date,
	p.expiry_control, p.calibration_request,
	p.created_at, p.updated_at`

const joins = `
LEFT JOIN sites s ON s.id = p.site_id
LEFT JOIN point_classifications c ON c.id = p.classification_id
LEFT JOIN equipment e ON e.serial_number = p.equipment_serial`

// wellFormedDate guards string range comparisons against legacy free text.
const wellFormedDate = `p.next_calibration_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'`

// PointRepository is a Postgres implementation for measurement points.
type PointRepository struct {
	db    database.DBTX
	table string
}

// PointOption configures the repository.
type PointOption func(*PointRepository)

// WithPointTable overrides the default table name.
func WithPointTable(table string) PointOption {
	return func(repo *PointRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewPointRepository constructs a repository.
func NewPointRepository(db database.DBTX, opts ...PointOption) *PointRepository {
	repo := &PointRepository{db: db, table: defaultPointTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *PointRepository) conn(ctx context.Context) (database.DBTX, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("point repo: nil db")
	}
	return database.Conn(ctx, r.db), nil
}

// Get loads a point by id.
func (r *PointRepository) Get(ctx context.Context, id int64) (*points.Point, error) {
	return r.getBy(ctx, "p.id", id)
}

// GetByTag loads a point by tag.
func (r *PointRepository) GetByTag(ctx context.Context, tag string) (*points.Point, error) {
	return r.getBy(ctx, "p.tag", tag)
}

func (r *PointRepository) getBy(ctx context.Context, column string, value any) (*points.Point, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s p%s
WHERE %s = $1
LIMIT 1`, selectColumns, r.table, joins, column)

	p, err := scanPoint(db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns one page matching filter and the total match count.
func (r *PointRepository) List(ctx context.Context, filter points.Filter) ([]points.Point, int, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	where, args := buildWhere(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s p%s`, r.table, where)
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s p%s%s
ORDER BY p.tag
LIMIT $%d OFFSET $%d`, selectColumns, r.table, joins, where, len(args)+1, len(args)+2)
	args = append(args, filter.Page.PerPage, filter.Page.Offset())

	items, err := r.query(ctx, db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every point ordered by tag.
func (r *PointRepository) ListAll(ctx context.Context) ([]points.Point, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s p%s
ORDER BY p.tag`, selectColumns, r.table, joins)
	return r.query(ctx, db, query)
}

func (r *PointRepository) query(ctx context.Context, db database.DBTX, query string, args ...any) ([]points.Point, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []points.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func buildWhere(filter points.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(p.name ILIKE $%d OR p.tag ILIKE $%d OR p.equipment_serial ILIKE $%d)", n, n, n))
	}
	if filter.SiteID != nil {
		args = append(args, *filter.SiteID)
		clauses = append(clauses, fmt.Sprintf("p.site_id = $%d", len(args)))
	}
	if filter.ClassificationID != nil {
		args = append(args, *filter.ClassificationID)
		clauses = append(clauses, fmt.Sprintf("p.classification_id = $%d", len(args)))
	}
	if filter.EquipmentSerial != nil {
		args = append(args, *filter.EquipmentSerial)
		clauses = append(clauses, fmt.Sprintf("p.equipment_serial = $%d", len(args)))
	}
	if filter.DueThrough != nil {
		args = append(args, *filter.DueThrough)
		clauses = append(clauses, fmt.Sprintf("(%s AND p.next_calibration_date <= $%d)", wellFormedDate, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

// Create inserts a point and assigns its id.
func (r *PointRepository) Create(ctx context.Context, p *points.Point) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New("point repo: nil point")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	site_id,
	name,
	tag,
	classification_id,
	equipment_serial,
	current_certificate,
	last_calibration_date,
	next_calibration_date,
	calibration_frequency_days,
	removal_date,
	in_use_date,
	expiry_control,
	calibration_request
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
RETURNING id, created_at, updated_at`, r.table)

	err = db.QueryRowContext(ctx, query, writeArgs(p)...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteError(p, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

// Update writes every mutable column.
func (r *PointRepository) Update(ctx context.Context, p *points.Point) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New("point repo: nil point")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	site_id = $1,
	name = $2,
	tag = $3,
	classification_id = $4,
	equipment_serial = $5,
	current_certificate = $6,
	last_calibration_date = $7,
	next_calibration_date = $8,
	calibration_frequency_days = $9,
	removal_date = $10,
	in_use_date = $11,
	expiry_control = $12,
	calibration_request = $13,
	updated_at = NOW()
WHERE id = $14`, r.table)

	res, err := db.ExecContext(ctx, query, append(writeArgs(p), p.ID)...)
	if err != nil {
		return mapWriteError(p, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return points.NotFound(p.ID)
	}
	return nil
}

func writeArgs(p *points.Point) []any {
	return []any{
		p.SiteID, p.Name, p.Tag, p.ClassificationID, p.EquipmentSerial,
		p.CurrentCertificate, p.LastCalibrationDate, p.NextCalibrationDate,
		p.CalibrationFrequencyDays, p.RemovalDate, p.InUseDate,
		p.ExpiryControl, p.CalibrationRequest,
	}
}

// Delete removes a point by id.
func (r *PointRepository) Delete(ctx context.Context, id int64) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	return err
}

// CountByEquipment counts points attached to serial.
func (r *PointRepository) CountByEquipment(ctx context.Context, serial string) (int, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE equipment_serial = $1`, r.table), serial).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoint(row scanner) (*points.Point, error) {
	var (
		p                                           points.Point
		site, classification, serial, equipmentName sql.NullString
		certificate, last, next, removal, inUse     sql.NullString
		expiry, request                             sql.NullString
		siteID, classificationID, frequency         sql.NullInt64
	)
	if err := row.Scan(
		&p.ID, &siteID, &site, &p.Name, &p.Tag,
		&classificationID, &classification,
		&serial, &equipmentName,
		&certificate, &last, &next,
		&frequency, &removal, &inUse,
		&expiry, &request,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.SiteID, p.SiteName = database.NullInt64(siteID), database.NullString(site)
	p.ClassificationID, p.ClassificationName = database.NullInt64(classificationID), database.NullString(classification)
	p.EquipmentSerial, p.EquipmentName = database.NullString(serial), database.NullString(equipmentName)
	p.CurrentCertificate = database.NullString(certificate)
	p.LastCalibrationDate = database.NullString(last)
	p.NextCalibrationDate = database.NullString(next)
	p.CalibrationFrequencyDays = database.NullInt(frequency)
	p.RemovalDate = database.NullString(removal)
	p.InUseDate = database.NullString(inUse)
	p.ExpiryControl = database.NullString(expiry)
	p.CalibrationRequest = database.NullString(request)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func mapWriteError(p *points.Point, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return points.DuplicateTag(p.Tag)
	case database.IsForeignKeyViolation(err):
		constraint := database.ConstraintName(err)
		if strings.Contains(constraint, "equipment_serial") && p.EquipmentSerial != nil {
			return points.UnknownEquipment(*p.EquipmentSerial)
		}
		field := strings.TrimSuffix(strings.TrimPrefix(constraint, defaultPointTable+"_"), "_fkey")
		if field == "" {
			field = "reference"
		}
		return points.InvalidReference(field)
	default:
		return err
	}
}
