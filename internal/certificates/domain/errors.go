package certificates

import "equip-manager/internal/apperrors"

// Error kinds, re-exported for callers of this package.
var (
	ErrNotFound   = apperrors.ErrNotFound
	ErrConflict   = apperrors.ErrConflict
	ErrValidation = apperrors.ErrValidation
)

func NotFound(id int64) error {
	return apperrors.NotFoundf("certificate %d not found", id)
}

// Duplicate reports a reused (equipment, number, revision) triple.
func Duplicate(key Key) error {
	if key.Revision == "" {
		return apperrors.Conflictf("certificate %q already exists for equipment %q", key.Number, key.EquipmentSerial)
	}
	return apperrors.Conflictf("certificate %q revision %q already exists for equipment %q", key.Number, key.Revision, key.EquipmentSerial)
}

func UnknownEquipment(serial string) error {
	return apperrors.Validationf("equipment %q does not exist", serial)
}

func InvalidStatus() error {
	return apperrors.Validationf("status_id references a missing record")
}
