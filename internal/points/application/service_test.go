package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equip-manager/internal/apperrors"
	"equip-manager/internal/calibration"
	"equip-manager/internal/platform/clock"
	"equip-manager/internal/platform/database"
	"equip-manager/internal/platform/patch"
	points "equip-manager/internal/points/domain"
	"equip-manager/internal/points/infrastructure/memory"
)

type knownSerials map[string]bool

func (k knownSerials) Exists(_ context.Context, serial string) (bool, error) {
	return k[serial], nil
}

func str(v string) *string { return &v }

func newService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	opts = append([]ServiceOption{WithClock(clock.Fixed(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)))}, opts...)
	svc, err := NewService(repo, knownSerials{"SN-1": true}, database.Direct{}, opts...)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateChecksEquipmentAndTag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	err := svc.Create(ctx, &points.Point{Name: "P", Tag: "T-1", EquipmentSerial: str("SN-2")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, svc.Create(ctx, &points.Point{Name: "P", Tag: "T-1", EquipmentSerial: str("SN-1")}))
	err = svc.Create(ctx, &points.Point{Name: "Q", Tag: "T-1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	n, err := svc.CountByEquipment(ctx, "SN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, err := svc.TagExists(ctx, " T-1 ")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetEvaluatesAgainstToday(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p := &points.Point{Name: "P", Tag: "T", NextCalibrationDate: str("2025-05-15")}
	require.NoError(t, svc.Create(ctx, p))

	v, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, calibration.StatusOverdue, v.CalibrationStatus)
	assert.Equal(t, -17, *v.DaysRemaining)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDueWindowOption(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, WithDueWindow(10))
	p := &points.Point{Name: "P", Tag: "T", NextCalibrationDate: str("2025-06-20")}
	require.NoError(t, svc.Create(ctx, p))

	v, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, calibration.StatusCurrent, v.CalibrationStatus)

	page, err := svc.List(ctx, points.Filter{}, true)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestUpdateRechecksTagAndDates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a := &points.Point{Name: "A", Tag: "A"}
	b := &points.Point{Name: "B", Tag: "B"}
	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))

	_, err := svc.Update(ctx, b.ID, points.Patch{Tag: patch.Some("A")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Update(ctx, b.ID, points.Patch{NextCalibrationDate: patch.Some(str("2025-13-01"))})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	v, err := svc.Update(ctx, b.ID, points.Patch{NextCalibrationDate: patch.Some(str("2025-08-01"))})
	require.NoError(t, err)
	assert.Equal(t, "B", v.Name)
	assert.Equal(t, calibration.StatusCurrent, v.CalibrationStatus)
}

func TestDeleteMissing(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), 42), apperrors.ErrNotFound)
}
