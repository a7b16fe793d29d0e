package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	catalog "equip-manager/internal/catalog/domain"
	catalogmem "equip-manager/internal/catalog/infrastructure/memory"
	"equip-manager/internal/platform/database"
)

func TestEmbeddedCatalogue(t *testing.T) {
	sets, err := Parse(defaultCatalog)
	require.NoError(t, err)

	byKind := map[catalog.Kind][]string{}
	for _, set := range sets {
		byKind[set.Kind] = set.Names
	}
	assert.Len(t, byKind[catalog.KindManufacturers], 8)
	assert.Contains(t, byKind[catalog.KindManufacturers], "Endress+Hauser")
	assert.Len(t, byKind[catalog.KindEquipmentTypes], 9)
	assert.Equal(t, []string{"Polo Norte", "Polo Sul", "Polo Leste", "Polo Oeste"}, byKind[catalog.KindSites])
	assert.Len(t, byKind[catalog.KindUnits], 14)
	assert.Contains(t, byKind[catalog.KindUnits], "%")
	assert.Len(t, byKind[catalog.KindClassifications], 5)
	assert.Len(t, byKind[catalog.KindTestNatures], 6)
	assert.Len(t, byKind[catalog.KindStatuses], 7)
	assert.Len(t, byKind[catalog.KindUncertaintyServices], 6)
	assert.Contains(t, byKind[catalog.KindAcceptanceCriteria], "±0.5%")
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := catalogmem.NewRepository()
	seeder, err := NewSeeder(repo, database.Direct{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	first, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, 66, first.Inserted)

	second, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	n, err := repo.Count(ctx, catalog.KindStatuses)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSeedSkipsWhenManufacturersExist(t *testing.T) {
	ctx := context.Background()
	repo := catalogmem.NewRepository()
	require.NoError(t, repo.Create(ctx, &catalog.Lookup{Kind: catalog.KindManufacturers, Name: "Custom"}))

	seeder, err := NewSeeder(repo, database.Direct{}, nil)
	require.NoError(t, err)
	result, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	n, err := repo.Count(ctx, catalog.KindUnits)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseRejectsEmptyCatalogue(t *testing.T) {
	_, err := Parse([]byte("units: [bar]\n"))
	assert.Error(t, err)
	_, err = Parse([]byte("manufacturers: {"))
	assert.Error(t, err)
}
