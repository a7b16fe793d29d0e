package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	dashboardapp "equip-manager/internal/dashboard/application"
	"equip-manager/internal/observability/metrics"
)

const (
	basePath = "/api/v1/dashboard"

	// AlertsPath serves the critical points listing under the points API.
	AlertsPath = "/api/v1/points/calibration-alerts"
)

// Handler provides dashboard endpoints.
type Handler struct {
	service *dashboardapp.Service
	logger  *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *dashboardapp.Service, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}, nil
}

// ServeHTTP handles /api/v1/dashboard/*.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apihttp.MethodNotAllowed(w, http.MethodGet)
		return
	}
	parts := apihttp.PathSegments(r.URL.Path, basePath)
	switch {
	case len(parts) == 1 && parts[0] == "summary":
		h.handleSummary(w, r)
	case len(parts) == 1 && parts[0] == "statistics":
		h.handleStatistics(w, r)
	case len(parts) == 1 && parts[0] == "schedule":
		h.handleSchedule(w, r)
	case len(parts) == 1 && parts[0] == "critical-points":
		h.handleCriticalPoints(w, r)
	case len(parts) == 2 && parts[0] == "critical-points" && parts[1] == "report.pdf":
		h.handleCriticalPointsPDF(w, r)
	case len(parts) == 1 && parts[0] == "recent-activity":
		h.handleRecentActivity(w, r)
	case len(parts) == 1 && parts[0] == "performance":
		h.handlePerformance(w, r)
	default:
		apihttp.NotFound(w)
	}
}

// Alerts serves the critical points listing at AlertsPath.
func (h *Handler) Alerts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleCriticalPoints(w, r)
	})
}

func (h *Handler) days(r *http.Request) (int, error) {
	return apihttp.QueryInt(r, "days", h.service.DueWindow())
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	days, err := h.days(r)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	summary, err := h.service.Summary(r.Context(), days)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	year, err := apihttp.QueryInt(r, "year", 0)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	schedule, err := h.service.Schedule(r.Context(), year)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, schedule)
}

func (h *Handler) handleCriticalPoints(w http.ResponseWriter, r *http.Request) {
	days, err := h.days(r)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	report, err := h.service.CriticalPoints(r.Context(), days)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleCriticalPointsPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultError
	defer func() {
		metrics.ObserveExport("critical_points", "pdf", result, time.Since(start))
	}()

	days, err := h.days(r)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	report, err := h.service.CriticalPoints(r.Context(), days)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	body, err := BuildCriticalPointsPDF(report)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	result = metrics.ResultSuccess
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="critical-points-`+report.ReferenceDate+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := apihttp.QueryInt(r, "limit", dashboardapp.DefaultRecentLimit)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	items, err := h.service.RecentActivity(r.Context(), limit)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.service.Performance(r.Context())
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, perf)
}
