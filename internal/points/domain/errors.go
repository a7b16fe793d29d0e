package points

import "equip-manager/internal/apperrors"

// Error kinds, re-exported for callers of this package.
var (
	ErrNotFound   = apperrors.ErrNotFound
	ErrConflict   = apperrors.ErrConflict
	ErrValidation = apperrors.ErrValidation
)

func NotFound(id int64) error {
	return apperrors.NotFoundf("measurement point %d not found", id)
}

func DuplicateTag(tag string) error {
	return apperrors.Conflictf("measurement point tag %q already exists", tag)
}

// UnknownEquipment reports a serial number with no equipment behind it.
func UnknownEquipment(serial string) error {
	return apperrors.Validationf("equipment %q does not exist", serial)
}

func InvalidDate(field, value string) error {
	return apperrors.Validationf("%s %q is not a YYYY-MM-DD date", field, value)
}

func InvalidReference(field string) error {
	return apperrors.Validationf("%s references a missing record", field)
}
