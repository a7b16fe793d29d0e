package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "equip-manager/internal/catalog/domain"
	catalogrepo "equip-manager/internal/catalog/infrastructure/postgres"
	certificates "equip-manager/internal/certificates/domain"
	certificaterepo "equip-manager/internal/certificates/infrastructure/postgres"
	dashboard "equip-manager/internal/dashboard/domain"
	dashboardrepo "equip-manager/internal/dashboard/infrastructure/postgres"
	equipment "equip-manager/internal/equipment/domain"
	equipmentrepo "equip-manager/internal/equipment/infrastructure/postgres"
	"equip-manager/internal/platform/database/dbtest"
	points "equip-manager/internal/points/domain"
	pointrepo "equip-manager/internal/points/infrastructure/postgres"
)

func str(v string) *string { return &v }

func TestReaderQueries(t *testing.T) {
	db := dbtest.DB(t)
	ctx := context.Background()
	lookups := catalogrepo.NewLookupRepository(db)

	emerson := &catalog.Lookup{Kind: catalog.KindManufacturers, Name: "Emerson"}
	abb := &catalog.Lookup{Kind: catalog.KindManufacturers, Name: "ABB"}
	north := &catalog.Lookup{Kind: catalog.KindSites, Name: "Polo Norte"}
	approved := &catalog.Lookup{Kind: catalog.KindStatuses, Name: "Aprovado"}
	for _, l := range []*catalog.Lookup{emerson, abb, north, approved} {
		require.NoError(t, lookups.Create(ctx, l))
	}

	equipments := equipmentrepo.NewEquipmentRepository(db)
	require.NoError(t, equipments.Create(ctx, &equipment.Equipment{SerialNumber: "SN-1", Name: "Medidor", ManufacturerID: &emerson.ID}))
	require.NoError(t, equipments.Create(ctx, &equipment.Equipment{SerialNumber: "SN-2", Name: "Transmissor", ManufacturerID: &emerson.ID}))

	pts := pointrepo.NewPointRepository(db)
	for _, p := range []*points.Point{
		{Name: "A", Tag: "A", SiteID: &north.ID, EquipmentSerial: str("SN-1"), NextCalibrationDate: str("2025-05-15")},
		{Name: "B", Tag: "B", NextCalibrationDate: str("2025-06-20")},
		{Name: "C", Tag: "C", NextCalibrationDate: str("2025-12-31")},
		{Name: "D", Tag: "D", NextCalibrationDate: str("em breve")},
		{Name: "E", Tag: "E"},
	} {
		require.NoError(t, pts.Create(ctx, p))
	}

	certs := certificaterepo.NewCertificateRepository(db)
	require.NoError(t, certs.Create(ctx, &certificates.Certificate{EquipmentSerial: "SN-1", Number: "C-1", IssueDate: "2025-01-01", StatusID: &approved.ID}))
	require.NoError(t, certs.Create(ctx, &certificates.Certificate{EquipmentSerial: "SN-2", Number: "C-2", IssueDate: "2025-03-01"}))

	reader := dashboardrepo.NewReader(db)

	totals, err := reader.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, dashboard.Totals{Equipment: 2, Points: 5, Certificates: 2}, totals)

	dates, err := reader.NextCalibrationDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 5)

	scheduled, err := reader.ScheduledPoints(ctx, "2025-07-01")
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, "A", scheduled[0].Tag)
	assert.Equal(t, "Polo Norte", *scheduled[0].SiteName)
	assert.Equal(t, "Medidor", *scheduled[0].EquipmentName)

	inYear, err := reader.NextDatesBetween(ctx, "2025-01-01", "2026-01-01")
	require.NoError(t, err)
	assert.Len(t, inYear, 3)

	byManufacturer, err := reader.EquipmentByManufacturer(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []dashboard.Group{{Name: "Emerson", Count: 2}, {Name: "ABB", Count: 0}}, byManufacturer)

	bySite, err := reader.PointsBySite(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dashboard.Group{{Name: "Polo Norte", Count: 1}}, bySite)

	byStatus, err := reader.CertificatesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dashboard.Group{{Name: "Aprovado", Count: 1}}, byStatus)

	recent, err := reader.RecentCertificates(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "C-2", recent[0].Number)
	assert.Nil(t, recent[0].StatusName)
}
