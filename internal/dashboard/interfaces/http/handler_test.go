package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboardapp "equip-manager/internal/dashboard/application"
	dashboard "equip-manager/internal/dashboard/domain"
	"equip-manager/internal/platform/clock"
)

func str(v string) *string { return &v }

type staticReader struct {
	points []dashboard.ScheduledPoint
}

func (s staticReader) Totals(context.Context) (dashboard.Totals, error) {
	return dashboard.Totals{Equipment: 1, Points: len(s.points)}, nil
}

func (s staticReader) NextCalibrationDates(context.Context) ([]*string, error) {
	var out []*string
	for _, p := range s.points {
		out = append(out, p.NextCalibrationDate)
	}
	return out, nil
}

func (s staticReader) ScheduledPoints(context.Context, string) ([]dashboard.ScheduledPoint, error) {
	return s.points, nil
}

func (s staticReader) NextDatesBetween(_ context.Context, from, to string) ([]string, error) {
	var out []string
	for _, p := range s.points {
		if d := p.NextCalibrationDate; d != nil && *d >= from && *d < to {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (staticReader) EquipmentByManufacturer(context.Context) ([]dashboard.Group, error) {
	return []dashboard.Group{{Name: "Emerson", Count: 1}}, nil
}
func (staticReader) EquipmentByType(context.Context) ([]dashboard.Group, error)      { return nil, nil }
func (staticReader) PointsBySite(context.Context) ([]dashboard.Group, error)         { return nil, nil }
func (staticReader) CertificatesByStatus(context.Context) ([]dashboard.Group, error) { return nil, nil }

func (staticReader) RecentCertificates(context.Context, int) ([]dashboard.RecentCertificate, error) {
	return nil, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	reader := staticReader{points: []dashboard.ScheduledPoint{
		{ID: 1, Tag: "FT-01", Name: "Entrada", NextCalibrationDate: str("2025-05-15"), SiteName: str("Polo Sul")},
		{ID: 2, Tag: "FT-02", Name: "Saída", NextCalibrationDate: str("2025-06-20"), EquipmentSerial: str("SN-1")},
		{ID: 3, Tag: "FT-03", Name: "Teste", NextCalibrationDate: str("2025-07-15")},
	}}
	svc, err := dashboardapp.NewService(reader, dashboardapp.WithClock(clock.Fixed(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	h, err := NewHandler(svc, nil)
	require.NoError(t, err)
	return h
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestSummaryUsesDaysParameter(t *testing.T) {
	h := newHandler(t)

	rec, env := get(t, h, "/api/v1/dashboard/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary dashboard.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, dashboard.Alerts{Overdue: 1, DueSoon: 1, Days: 30}, summary.Alerts)

	rec, env = get(t, h, "/api/v1/dashboard/summary?days=60")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.Alerts.DueSoon)

	rec, _ = get(t, h, "/api/v1/dashboard/summary?days=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleAndPerformance(t *testing.T) {
	h := newHandler(t)

	rec, env := get(t, h, "/api/v1/dashboard/schedule?year=2025")
	require.Equal(t, http.StatusOK, rec.Code)
	var schedule dashboard.Schedule
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	assert.Equal(t, 3, schedule.Total)
	assert.Equal(t, "2026-01-01", schedule.Months[11].End)

	rec, env = get(t, h, "/api/v1/dashboard/performance")
	require.Equal(t, http.StatusOK, rec.Code)
	var perf dashboard.Performance
	require.NoError(t, json.Unmarshal(env.Data, &perf))
	assert.Equal(t, 66.67, perf.Percentage)

	rec, env = get(t, h, "/api/v1/dashboard/recent-activity")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestCriticalPointsAndAlerts(t *testing.T) {
	h := newHandler(t)

	rec, env := get(t, h, "/api/v1/dashboard/critical-points")
	require.Equal(t, http.StatusOK, rec.Code)
	var report dashboard.CriticalPoints
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Overdue, 1)
	assert.Equal(t, -17, report.Overdue[0].DaysRemaining)
	require.Len(t, report.DueSoon, 1)
	assert.Equal(t, 19, report.DueSoon[0].DaysRemaining)

	rec, env = get(t, h.Alerts(), AlertsPath+"?days=50")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Summary.DueSoon)
}

func TestCriticalPointsPDF(t *testing.T) {
	h := newHandler(t)
	rec, _ := get(t, h, "/api/v1/dashboard/critical-points/report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "critical-points-2025-06-01.pdf")
}

func TestUnknownRoute(t *testing.T) {
	h := newHandler(t)
	rec, _ := get(t, h, "/api/v1/dashboard/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
