package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equip-manager/internal/apperrors"
	catalog "equip-manager/internal/catalog/domain"
	catalogmem "equip-manager/internal/catalog/infrastructure/memory"
	"equip-manager/internal/platform/database"
	"equip-manager/internal/platform/patch"
)

func newService(t *testing.T, opts ...catalogmem.Option) (*Service, *catalogmem.Repository) {
	t.Helper()
	repo := catalogmem.NewRepository(opts...)
	svc, err := NewService(repo, database.Direct{})
	require.NoError(t, err)
	return svc, repo
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, catalog.KindManufacturers, "Emerson", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, catalog.KindManufacturers, " Emerson ", nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Create(ctx, catalog.KindEquipmentTypes, "Emerson", nil)
	assert.NoError(t, err, "names are unique per list only")
}

func TestCreateModelRequiresExistingManufacturer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	missing := int64(99)
	_, err := svc.Create(ctx, catalog.KindModels, "3051S", &missing)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	emerson, err := svc.Create(ctx, catalog.KindManufacturers, "Emerson", nil)
	require.NoError(t, err)
	model, err := svc.Create(ctx, catalog.KindModels, "3051S", &emerson.ID)
	require.NoError(t, err)

	models, err := svc.List(ctx, catalog.KindModels, &emerson.ID)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, model.ID, models[0].ID)
}

func TestUpdateAppliesOnlyPresentFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	site, err := svc.Create(ctx, catalog.KindSites, "Polo Norte", nil)
	require.NoError(t, err)
	inst, err := svc.Create(ctx, catalog.KindInstallations, "P-50", &site.ID)
	require.NoError(t, err)

	var p catalog.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"P-51"}`), &p))
	updated, err := svc.Update(ctx, catalog.KindInstallations, inst.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "P-51", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, site.ID, *updated.ParentID)

	_, err = svc.Update(ctx, catalog.KindInstallations, 404, p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateRejectsRenameOntoExistingName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Create(ctx, catalog.KindUnits, "bar", nil)
	require.NoError(t, err)
	kpa, err := svc.Create(ctx, catalog.KindUnits, "kPa", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, catalog.KindUnits, kpa.ID, catalog.Patch{Name: patchName("bar")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	same, err := svc.Update(ctx, catalog.KindUnits, kpa.ID, catalog.Patch{Name: patchName("kPa")})
	require.NoError(t, err)
	assert.Equal(t, "kPa", same.Name)
}

func TestDeleteGuardedByReferences(t *testing.T) {
	ctx := context.Background()
	used := map[int64]int{}
	svc, repo := newService(t, catalogmem.WithReferenceCounter(func(kind catalog.Kind, id int64) int {
		if kind == catalog.KindStatuses {
			return used[id]
		}
		return 0
	}))

	status, err := svc.Create(ctx, catalog.KindStatuses, "Vigente", nil)
	require.NoError(t, err)
	used[status.ID] = 2

	err = svc.Delete(ctx, catalog.KindStatuses, status.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	used[status.ID] = 0
	require.NoError(t, svc.Delete(ctx, catalog.KindStatuses, status.ID))
	n, _ := repo.Count(ctx, catalog.KindStatuses)
	assert.Zero(t, n)

	assert.ErrorIs(t, svc.Delete(ctx, catalog.KindStatuses, status.ID), apperrors.ErrNotFound)
}

func TestDeleteManufacturerWithModels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	abb, err := svc.Create(ctx, catalog.KindManufacturers, "ABB", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, catalog.KindModels, "FSM4000", &abb.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, catalog.KindManufacturers, abb.ID), apperrors.ErrConflict)
}

func TestEnsureCreatesOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	first, err := svc.Ensure(ctx, catalog.KindManufacturers, " Krohne ", nil)
	require.NoError(t, err)
	second, err := svc.Ensure(ctx, catalog.KindManufacturers, "Krohne", nil)
	require.NoError(t, err)
	assert.Equal(t, *first, *second)

	blank, err := svc.Ensure(ctx, catalog.KindManufacturers, "  ", nil)
	require.NoError(t, err)
	assert.Nil(t, blank)

	n, _ := repo.Count(ctx, catalog.KindManufacturers)
	assert.Equal(t, 1, n)
}

func TestAllCoversEveryKind(t *testing.T) {
	svc, _ := newService(t)
	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(catalog.Kinds()))
	for _, items := range all {
		assert.NotNil(t, items)
	}
}

func patchName(name string) patch.Field[string] {
	return patch.Some(name)
}
