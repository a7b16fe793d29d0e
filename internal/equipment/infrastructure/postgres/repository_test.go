package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equip-manager/internal/apperrors"
	catalog "equip-manager/internal/catalog/domain"
	catalogrepo "equip-manager/internal/catalog/infrastructure/postgres"
	equipment "equip-manager/internal/equipment/domain"
	equipmentrepo "equip-manager/internal/equipment/infrastructure/postgres"
	"equip-manager/internal/platform/database/dbtest"
	"equip-manager/internal/platform/paging"
)

func TestEquipmentRepositoryRoundTrip(t *testing.T) {
	db := dbtest.DB(t)
	ctx := context.Background()
	lookups := catalogrepo.NewLookupRepository(db)
	repo := equipmentrepo.NewEquipmentRepository(db)

	vendor := &catalog.Lookup{Kind: catalog.KindManufacturers, Name: "Endress+Hauser"}
	require.NoError(t, lookups.Create(ctx, vendor))

	tag := "FT-101"
	lo, hi := 0.0, 250.0
	e := &equipment.Equipment{
		SerialNumber:   "EH-0001",
		Tag:            &tag,
		Name:           "Medidor de vazao",
		ManufacturerID: &vendor.ID,
		RangeMin:       &lo,
		RangeMax:       &hi,
	}
	require.NoError(t, repo.Create(ctx, e))
	assert.False(t, e.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "EH-0001")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ManufacturerName)
	assert.Equal(t, "Endress+Hauser", *got.ManufacturerName)
	assert.Equal(t, 250.0, *got.RangeMax)
	assert.Nil(t, got.ModelID)

	byTag, err := repo.GetByTag(ctx, "FT-101")
	require.NoError(t, err)
	require.NotNil(t, byTag)
	assert.Equal(t, "EH-0001", byTag.SerialNumber)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &equipment.Equipment{SerialNumber: "EH-0001", Name: "dup"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	badRef := int64(999)
	err = repo.Create(ctx, &equipment.Equipment{SerialNumber: "EH-0002", Name: "x", UnitID: &badRef})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got.Name = "Medidor eletromagnetico"
	require.NoError(t, repo.Update(ctx, got))

	items, total, err := repo.List(ctx, equipment.Filter{Search: "eletro", Page: paging.Request{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	items, total, err = repo.List(ctx, equipment.Filter{ManufacturerID: &badRef, Page: paging.Request{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	require.NoError(t, repo.Delete(ctx, "EH-0001"))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
