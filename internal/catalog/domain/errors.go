package catalog

import (
	"equip-manager/internal/apperrors"
)

// NotFound reports a missing lookup.
func NotFound(kind Kind, id int64) error {
	return apperrors.NotFoundf("%s %d not found", kind, id)
}

// Duplicate reports a name already used within kind.
func Duplicate(kind Kind, name string) error {
	return apperrors.Conflictf("%s %q already exists", kind, name)
}

// InUse reports a lookup still referenced by other records.
func InUse(kind Kind, id int64, refs int) error {
	return apperrors.Conflictf("%s %d is referenced by %d record(s) and cannot be deleted", kind, id, refs)
}

// MissingParent reports a parent_id that does not resolve.
func MissingParent(kind Kind, id int64) error {
	return apperrors.Validationf("%s %d does not exist", kind, id)
}

// UnknownKind reports a reference list that does not exist.
func UnknownKind(raw string) error {
	return apperrors.NotFoundf("unknown lookup list %q", raw)
}
