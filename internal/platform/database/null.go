package database

import "database/sql"

// NullString converts a nullable column into an optional value.
func NullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func NullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func NullFloat64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func NullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
