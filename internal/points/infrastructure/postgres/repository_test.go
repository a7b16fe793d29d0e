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
	points "equip-manager/internal/points/domain"
	pointrepo "equip-manager/internal/points/infrastructure/postgres"
)

func str(v string) *string { return &v }

func TestPointRepositoryRoundTrip(t *testing.T) {
	db := dbtest.DB(t)
	ctx := context.Background()

	site := &catalog.Lookup{Kind: catalog.KindSites, Name: "Polo Norte"}
	require.NoError(t, catalogrepo.NewLookupRepository(db).Create(ctx, site))
	require.NoError(t, equipmentrepo.NewEquipmentRepository(db).Create(ctx, &equipment.Equipment{SerialNumber: "SN-1", Name: "Medidor"}))

	repo := pointrepo.NewPointRepository(db)
	p := &points.Point{
		Name:                "Entrada",
		Tag:                 "FT-001",
		SiteID:              &site.ID,
		EquipmentSerial:     str("SN-1"),
		NextCalibrationDate: str("2025-06-20"),
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	legacy := &points.Point{Name: "Legado", Tag: "FT-002", NextCalibrationDate: str("sem data")}
	require.NoError(t, repo.Create(ctx, legacy))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Polo Norte", *got.SiteName)
	assert.Equal(t, "Medidor", *got.EquipmentName)

	byTag, err := repo.GetByTag(ctx, "FT-002")
	require.NoError(t, err)
	require.NotNil(t, byTag)
	assert.Equal(t, "sem data", *byTag.NextCalibrationDate)

	err = repo.Create(ctx, &points.Point{Name: "Dup", Tag: "FT-001"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	err = repo.Create(ctx, &points.Point{Name: "X", Tag: "FT-003", EquipmentSerial: str("SN-404")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	through := "2025-07-01"
	items, total, err := repo.List(ctx, points.Filter{DueThrough: &through, Page: paging.Request{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "FT-001", items[0].Tag)

	n, err := repo.CountByEquipment(ctx, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got.Name = "Entrada principal"
	got.NextCalibrationDate = nil
	require.NoError(t, repo.Update(ctx, got))
	reloaded, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Entrada principal", reloaded.Name)
	assert.Nil(t, reloaded.NextCalibrationDate)

	require.NoError(t, repo.Delete(ctx, p.ID))
	missing, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
