package equipment

import "equip-manager/internal/apperrors"

// Error kinds, re-exported for callers of this package.
var (
	ErrNotFound   = apperrors.ErrNotFound
	ErrConflict   = apperrors.ErrConflict
	ErrValidation = apperrors.ErrValidation
)

// NotFound reports a missing serial number.
func NotFound(serial string) error {
	return apperrors.NotFoundf("equipment %q not found", serial)
}

// DuplicateSerial reports a serial number already registered.
func DuplicateSerial(serial string) error {
	return apperrors.Conflictf("equipment with serial number %q already exists", serial)
}

// DuplicateTag reports a tag used by another equipment.
func DuplicateTag(tag string) error {
	return apperrors.Conflictf("equipment tag %q already exists", tag)
}

// HasDependents reports points or certificates still referencing the equipment.
func HasDependents(serial string, points, certificates int) error {
	return apperrors.Conflictf("equipment %q has %d measurement point(s) and %d certificate(s) and cannot be deleted", serial, points, certificates)
}

// InvalidReference reports a lookup id that does not resolve.
func InvalidReference(field string) error {
	return apperrors.Validationf("%s references a missing record", field)
}
