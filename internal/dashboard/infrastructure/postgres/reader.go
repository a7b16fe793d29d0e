package postgres

import (
	"context"
	"database/sql"
	"errors"

	dashboard "equip-manager/internal/dashboard/domain"
	"equip-manager/internal/platform/database"
)

const wellFormedNextDate = `next_calibration_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'`

// Reader runs the dashboard read queries.
type Reader struct {
	db database.DBTX
}

// NewReader constructs a reader.
func NewReader(db database.DBTX) *Reader {
	return &Reader{db: db}
}

func (r *Reader) conn(ctx context.Context) (database.DBTX, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("dashboard reader: nil db")
	}
	return database.Conn(ctx, r.db), nil
}

// Totals counts equipment, points and certificates.
func (r *Reader) Totals(ctx context.Context) (dashboard.Totals, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return dashboard.Totals{}, err
	}
	var t dashboard.Totals
	err = db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM equipment),
	(SELECT COUNT(*) FROM measurement_points),
	(SELECT COUNT(*) FROM certificates)`).Scan(&t.Equipment, &t.Points, &t.Certificates)
	return t, err
}

// NextCalibrationDates returns the raw next date of every point.
func (r *Reader) NextCalibrationDates(ctx context.Context) ([]*string, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT next_calibration_date FROM measurement_points`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*string
	for rows.Next() {
		var d sql.NullString
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, database.NullString(d))
	}
	return out, rows.Err()
}

// ScheduledPoints returns points with a well formed next date on or before
// through, with site and equipment names.
func (r *Reader) ScheduledPoints(ctx context.Context, through string) ([]dashboard.ScheduledPoint, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
SELECT p.id, p.tag, p.name, p.next_calibration_date, s.name, p.equipment_serial, e.name
FROM measurement_points p
LEFT JOIN sites s ON s.id = p.site_id
LEFT JOIN equipment e ON e.serial_number = p.equipment_serial
WHERE p.`+wellFormedNextDate+`
	AND p.next_calibration_date <= $1
ORDER BY p.next_calibration_date, p.tag`, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dashboard.ScheduledPoint
	for rows.Next() {
		var (
			p                   dashboard.ScheduledPoint
			next                string
			site, serial, equip sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Tag, &p.Name, &next, &site, &serial, &equip); err != nil {
			return nil, err
		}
		p.NextCalibrationDate = &next
		p.SiteName = database.NullString(site)
		p.EquipmentSerial = database.NullString(serial)
		p.EquipmentName = database.NullString(equip)
		out = append(out, p)
	}
	return out, rows.Err()
}

// NextDatesBetween returns next dates in [from, to).
func (r *Reader) NextDatesBetween(ctx context.Context, from, to string) ([]string, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
SELECT next_calibration_date
FROM measurement_points
WHERE next_calibration_date >= $1 AND next_calibration_date < $2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// EquipmentByManufacturer counts equipment per manufacturer.
func (r *Reader) EquipmentByManufacturer(ctx context.Context) ([]dashboard.Group, error) {
	return r.groups(ctx, `
SELECT m.name, COUNT(e.serial_number)
FROM manufacturers m
LEFT JOIN equipment e ON e.manufacturer_id = m.id
GROUP BY m.id, m.name`)
}

// EquipmentByType counts equipment per equipment type.
func (r *Reader) EquipmentByType(ctx context.Context) ([]dashboard.Group, error) {
	return r.groups(ctx, `
SELECT t.name, COUNT(e.serial_number)
FROM equipment_types t
LEFT JOIN equipment e ON e.equipment_type_id = t.id
GROUP BY t.id, t.name`)
}

// PointsBySite counts measurement points per site.
func (r *Reader) PointsBySite(ctx context.Context) ([]dashboard.Group, error) {
	return r.groups(ctx, `
SELECT s.name, COUNT(p.id)
FROM sites s
LEFT JOIN measurement_points p ON p.site_id = s.id
GROUP BY s.id, s.name`)
}

// CertificatesByStatus counts certificates per status.
func (r *Reader) CertificatesByStatus(ctx context.Context) ([]dashboard.Group, error) {
	return r.groups(ctx, `
SELECT st.name, COUNT(c.id)
FROM statuses st
LEFT JOIN certificates c ON c.status_id = st.id
GROUP BY st.id, st.name`)
}

func (r *Reader) groups(ctx context.Context, query string) ([]dashboard.Group, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dashboard.Group
	for rows.Next() {
		var g dashboard.Group
		if err := rows.Scan(&g.Name, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// RecentCertificates returns the newest certificates by issue date.
func (r *Reader) RecentCertificates(ctx context.Context, limit int) ([]dashboard.RecentCertificate, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
SELECT c.id, c.number, c.revision, c.issue_date, c.equipment_serial, e.name, st.name
FROM certificates c
LEFT JOIN equipment e ON e.serial_number = c.equipment_serial
LEFT JOIN statuses st ON st.id = c.status_id
ORDER BY c.issue_date DESC, c.id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dashboard.RecentCertificate
	for rows.Next() {
		var (
			c             dashboard.RecentCertificate
			equip, status sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Number, &c.Revision, &c.IssueDate, &c.EquipmentSerial, &equip, &status); err != nil {
			return nil, err
		}
		c.EquipmentName = database.NullString(equip)
		c.StatusName = database.NullString(status)
		out = append(out, c)
	}
	return out, rows.Err()
}
