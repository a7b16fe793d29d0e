package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/audit"
	"equip-manager/internal/platform/paging"
	pointsapp "equip-manager/internal/points/application"
	points "equip-manager/internal/points/domain"
)

const (
	basePath     = "/api/v1/points"
	resourceType = "measurement_point"
)

// Handler provides measurement point endpoints.
type Handler struct {
	service  *pointsapp.Service
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewHandler constructs a handler. recorder may be nil.
func NewHandler(service *pointsapp.Service, recorder *audit.Recorder, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("points handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, recorder: recorder, logger: logger}, nil
}

// ServeHTTP handles /api/v1/points and /api/v1/points/{id}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := apihttp.PathSegments(r.URL.Path, basePath)
	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			apihttp.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 1:
		id, err := apihttp.ParseID(parts[0])
		if err != nil {
			apihttp.WriteError(w, r, h.logger, err)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPut, http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			apihttp.MethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		apihttp.NotFound(w)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	siteID, err := apihttp.QueryInt64(r, "site_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	classificationID, err := apihttp.QueryInt64(r, "classification_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	filter := points.Filter{
		Search:           r.URL.Query().Get("search"),
		SiteID:           siteID,
		ClassificationID: classificationID,
		Page:             paging.FromQuery(r.URL.Query()),
	}
	if serial := strings.TrimSpace(r.URL.Query().Get("equipment_serial")); serial != "" {
		filter.EquipmentSerial = &serial
	}
	page, err := h.service.List(r.Context(), filter, apihttp.QueryBool(r, "due_soon"))
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p points.Point
	if err := apihttp.DecodeJSON(r, &p); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.Create(r.Context(), &p); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	created, err := h.service.Get(r.Context(), p.ID)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionCreate, resourceType, strconv.FormatInt(p.ID, 10), created)
	apihttp.WriteMessage(w, http.StatusCreated, "measurement point created", created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var pt points.Patch
	if err := apihttp.DecodeJSON(r, &pt); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, pt)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionUpdate, resourceType, strconv.FormatInt(id, 10), updated)
	apihttp.WriteMessage(w, http.StatusOK, "measurement point updated", updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionDelete, resourceType, strconv.FormatInt(id, 10), nil)
	apihttp.WriteMessage(w, http.StatusOK, "measurement point deleted", nil)
}
