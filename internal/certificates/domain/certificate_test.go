package certificates

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/platform/patch"
)

func TestValidate(t *testing.T) {
	c := Certificate{EquipmentSerial: " SN-1 ", Number: " C-1 ", IssueDate: "2025-01-10", Revision: " "}
	require.NoError(t, c.Validate())
	assert.Equal(t, Key{EquipmentSerial: "SN-1", Number: "C-1"}, c.Key())

	for _, bad := range []Certificate{
		{Number: "C", IssueDate: "2025-01-01"},
		{EquipmentSerial: "S", IssueDate: "2025-01-01"},
		{EquipmentSerial: "S", Number: "C"},
		{EquipmentSerial: "S", Number: "C", IssueDate: "10/01/2025"},
	} {
		assert.ErrorIs(t, bad.Validate(), apperrors.ErrValidation)
	}
}

func TestPatchRevisionNullResets(t *testing.T) {
	c := Certificate{Revision: "B"}
	Patch{Revision: patch.Some[*string](nil)}.Apply(&c)
	assert.Equal(t, "", c.Revision)

	rev := "C"
	Patch{Revision: patch.Some(&rev)}.Apply(&c)
	assert.Equal(t, "C", c.Revision)

	Patch{}.Apply(&c)
	assert.Equal(t, "C", c.Revision)
}

func TestNewerOrdering(t *testing.T) {
	list := []Certificate{
		{ID: 1, IssueDate: "2024-03-01"},
		{ID: 2, IssueDate: "2025-01-01"},
		{ID: 3, IssueDate: "2024-03-01"},
	}
	sort.Slice(list, func(i, j int) bool { return Newer(list[i], list[j]) })
	assert.Equal(t, []int64{2, 3, 1}, []int64{list[0].ID, list[1].ID, list[2].ID})
}
