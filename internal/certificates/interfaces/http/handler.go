package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/audit"
	certificatesapp "equip-manager/internal/certificates/application"
	certificates "equip-manager/internal/certificates/domain"
	"equip-manager/internal/platform/paging"
)

const (
	basePath     = "/api/v1/certificates"
	resourceType = "certificate"

	// ByEquipmentPattern is the mux pattern served by ByEquipment.
	ByEquipmentPattern = "/api/v1/equipment/{serial}/certificates"
)

// Handler provides certificate endpoints.
type Handler struct {
	service  *certificatesapp.Service
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewHandler constructs a handler. recorder may be nil.
func NewHandler(service *certificatesapp.Service, recorder *audit.Recorder, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("certificates handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, recorder: recorder, logger: logger}, nil
}

// ServeHTTP handles /api/v1/certificates and /api/v1/certificates/{id}.
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

// ByEquipment lists the certificates of the equipment named by the {serial}
// path value.
func (h *Handler) ByEquipment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w, http.MethodGet)
			return
		}
		list, err := h.service.ListByEquipment(r.Context(), r.PathValue("serial"))
		if err != nil {
			apihttp.WriteError(w, r, h.logger, err)
			return
		}
		apihttp.WriteJSON(w, http.StatusOK, list)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	statusID, err := apihttp.QueryInt64(r, "status_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	filter := certificates.Filter{
		Search:   r.URL.Query().Get("search"),
		StatusID: statusID,
		Page:     paging.FromQuery(r.URL.Query()),
	}
	if serial := strings.TrimSpace(r.URL.Query().Get("equipment_serial")); serial != "" {
		filter.EquipmentSerial = &serial
	}
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var c certificates.Certificate
	if err := apihttp.DecodeJSON(r, &c); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.Create(r.Context(), &c); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	created, err := h.service.Get(r.Context(), c.ID)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionCreate, resourceType, strconv.FormatInt(c.ID, 10), created)
	apihttp.WriteMessage(w, http.StatusCreated, "certificate created", created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var p certificates.Patch
	if err := apihttp.DecodeJSON(r, &p); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, p)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionUpdate, resourceType, strconv.FormatInt(id, 10), updated)
	apihttp.WriteMessage(w, http.StatusOK, "certificate updated", updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionDelete, resourceType, strconv.FormatInt(id, 10), nil)
	apihttp.WriteMessage(w, http.StatusOK, "certificate deleted", nil)
}
