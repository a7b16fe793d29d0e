package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/audit"
	equipmentapp "equip-manager/internal/equipment/application"
	equipment "equip-manager/internal/equipment/domain"
	"equip-manager/internal/platform/paging"
)

const (
	basePath     = "/api/v1/equipment"
	resourceType = "equipment"
)

// Handler provides equipment endpoints.
type Handler struct {
	service  *equipmentapp.Service
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewHandler constructs a handler. recorder may be nil.
func NewHandler(service *equipmentapp.Service, recorder *audit.Recorder, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("equipment handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, recorder: recorder, logger: logger}, nil
}

// ServeHTTP handles /api/v1/equipment and /api/v1/equipment/{serial}.
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
		serial := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, serial)
		case http.MethodPut, http.MethodPatch:
			h.handleUpdate(w, r, serial)
		case http.MethodDelete:
			h.handleDelete(w, r, serial)
		default:
			apihttp.MethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		apihttp.NotFound(w)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	manufacturerID, err := apihttp.QueryInt64(r, "manufacturer_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	typeID, err := apihttp.QueryInt64(r, "equipment_type_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	page, err := h.service.List(r.Context(), equipment.Filter{
		Search:          r.URL.Query().Get("search"),
		ManufacturerID:  manufacturerID,
		EquipmentTypeID: typeID,
		Page:            paging.FromQuery(r.URL.Query()),
	})
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, serial string) {
	e, err := h.service.Get(r.Context(), serial)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var e equipment.Equipment
	if err := apihttp.DecodeJSON(r, &e); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.Create(r.Context(), &e); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	created, err := h.service.Get(r.Context(), e.SerialNumber)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionCreate, resourceType, created.SerialNumber, created)
	apihttp.WriteMessage(w, http.StatusCreated, "equipment created", created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, serial string) {
	var p equipment.Patch
	if err := apihttp.DecodeJSON(r, &p); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	updated, err := h.service.Update(r.Context(), serial, p)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionUpdate, resourceType, updated.SerialNumber, updated)
	apihttp.WriteMessage(w, http.StatusOK, "equipment updated", updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, serial string) {
	if err := h.service.Delete(r.Context(), serial); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionDelete, resourceType, serial, nil)
	apihttp.WriteMessage(w, http.StatusOK, "equipment deleted", nil)
}
