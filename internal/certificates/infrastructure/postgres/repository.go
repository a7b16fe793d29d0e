package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	certificates "equip-manager/internal/certificates/domain"
	"equip-manager/internal/platform/database"
)

const (
	defaultCertificateTable = "certificates"
	uniqueKeyConstraint     = "certificates_equipment_number_revision_key"
)

const selectColumns = `
	c.id, c.equipment_serial, e.name, c.number, c.revision, c.issue_date,
	c.status_id, s.name, c.file_path, c.created_at, c.updated_at`

const joins = `
LEFT JOIN equipment e ON e.serial_number = c.equipment_serial
LEFT JOIN statuses s ON s.id = c.status_id`

const newestFirst = `ORDER BY c.issue_date DESC, c.id DESC`

// CertificateRepository is a Postgres implementation for certificates.
type CertificateRepository struct {
	db    database.DBTX
	table string
}

// CertificateOption configures the repository.
type CertificateOption func(*CertificateRepository)

// WithCertificateTable overrides the default table name.
func WithCertificateTable(table string) CertificateOption {
	return func(repo *CertificateRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewCertificateRepository constructs a repository.
func NewCertificateRepository(db database.DBTX, opts ...CertificateOption) *CertificateRepository {
	repo := &CertificateRepository{db: db, table: defaultCertificateTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *CertificateRepository) conn(ctx context.Context) (database.DBTX, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("certificate repo: nil db")
	}
	return database.Conn(ctx, r.db), nil
}

// Get loads a certificate by id.
func (r *CertificateRepository) Get(ctx context.Context, id int64) (*certificates.Certificate, error) {
	return r.getOne(ctx, "c.id = $1", id)
}

// FindByKey loads a certificate by its natural key.
func (r *CertificateRepository) FindByKey(ctx context.Context, key certificates.Key) (*certificates.Certificate, error) {
	return r.getOne(ctx, "c.equipment_serial = $1 AND c.number = $2 AND c.revision = $3",
		key.EquipmentSerial, key.Number, key.Revision)
}

func (r *CertificateRepository) getOne(ctx context.Context, where string, args ...any) (*certificates.Certificate, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s c%s
WHERE %s
LIMIT 1`, selectColumns, r.table, joins, where)

	c, err := scanCertificate(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// List returns one page matching filter and the total match count.
func (r *CertificateRepository) List(ctx context.Context, filter certificates.Filter) ([]certificates.Certificate, int, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	where, args := buildWhere(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s c%s`, r.table, where)
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s c%s%s
%s
LIMIT $%d OFFSET $%d`, selectColumns, r.table, joins, where, newestFirst, len(args)+1, len(args)+2)
	args = append(args, filter.Page.PerPage, filter.Page.Offset())

	items, err := r.query(ctx, db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByEquipment returns every certificate of serial, newest first.
func (r *CertificateRepository) ListByEquipment(ctx context.Context, serial string) ([]certificates.Certificate, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s c%s
WHERE c.equipment_serial = $1
%s`, selectColumns, r.table, joins, newestFirst)
	return r.query(ctx, db, query, serial)
}

func (r *CertificateRepository) query(ctx context.Context, db database.DBTX, query string, args ...any) ([]certificates.Certificate, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []certificates.Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func buildWhere(filter certificates.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(c.number ILIKE $%d OR c.equipment_serial ILIKE $%d)", n, n))
	}
	if filter.EquipmentSerial != nil {
		args = append(args, *filter.EquipmentSerial)
		clauses = append(clauses, fmt.Sprintf("c.equipment_serial = $%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("c.status_id = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

// Create inserts a certificate and assigns its id.
func (r *CertificateRepository) Create(ctx context.Context, c *certificates.Certificate) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.New("certificate repo: nil certificate")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (equipment_serial, number, revision, issue_date, status_id, file_path)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`, r.table)

	err = db.QueryRowContext(ctx, query, c.EquipmentSerial, c.Number, c.Revision, c.IssueDate, c.StatusID, c.FilePath).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapWriteError(c, err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return nil
}

// Update writes every mutable column.
func (r *CertificateRepository) Update(ctx context.Context, c *certificates.Certificate) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.New("certificate repo: nil certificate")
	}
	query := fmt.Sprintf(`
UPDATE %s SET
	equipment_serial = $2,
	number = $3,
	revision = $4,
	issue_date = $5,
	status_id = $6,
	file_path = $7,
	updated_at = NOW()
WHERE id = $1`, r.table)

	res, err := db.ExecContext(ctx, query, c.ID, c.EquipmentSerial, c.Number, c.Revision, c.IssueDate, c.StatusID, c.FilePath)
	if err != nil {
		return mapWriteError(c, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certificates.NotFound(c.ID)
	}
	return nil
}

// Delete removes a certificate by id.
func (r *CertificateRepository) Delete(ctx context.Context, id int64) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
	return err
}

// CountByEquipment counts certificates issued for serial.
func (r *CertificateRepository) CountByEquipment(ctx context.Context, serial string) (int, error) {
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

func scanCertificate(row scanner) (*certificates.Certificate, error) {
	var (
		c                        certificates.Certificate
		equipmentName, status, f sql.NullString
		statusID                 sql.NullInt64
	)
	if err := row.Scan(
		&c.ID, &c.EquipmentSerial, &equipmentName, &c.Number, &c.Revision, &c.IssueDate,
		&statusID, &status, &f, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.EquipmentName = database.NullString(equipmentName)
	c.StatusID, c.StatusName = database.NullInt64(statusID), database.NullString(status)
	c.FilePath = database.NullString(f)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func mapWriteError(c *certificates.Certificate, err error) error {
	switch {
	case database.IsUniqueViolation(err) && database.ConstraintName(err) == uniqueKeyConstraint:
		return certificates.Duplicate(c.Key())
	case database.IsForeignKeyViolation(err):
		if strings.Contains(database.ConstraintName(err), "status") {
			return certificates.InvalidStatus()
		}
		return certificates.UnknownEquipment(c.EquipmentSerial)
	default:
		return err
	}
}
