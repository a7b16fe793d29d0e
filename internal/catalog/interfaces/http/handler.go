package http

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/audit"
	catalogapp "equip-manager/internal/catalog/application"
	catalog "equip-manager/internal/catalog/domain"
)

const basePath = "/api/v1/catalog"

// Handler provides reference list endpoints.
type Handler struct {
	service  *catalogapp.Service
	recorder *audit.Recorder
	logger   *zap.Logger
}

// NewHandler constructs a handler. recorder may be nil.
func NewHandler(service *catalogapp.Service, recorder *audit.Recorder, logger *zap.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("catalog handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, recorder: recorder, logger: logger}, nil
}

// ServeHTTP handles /api/v1/catalog and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := apihttp.PathSegments(r.URL.Path, basePath)
	switch len(parts) {
	case 0:
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleAll(w, r)
	case 1:
		kind, err := catalog.ParseKind(parts[0])
		if err != nil {
			apihttp.WriteError(w, r, h.logger, err)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, kind)
		case http.MethodPost:
			h.handleCreate(w, r, kind)
		default:
			apihttp.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case 2:
		kind, err := catalog.ParseKind(parts[0])
		if err != nil {
			apihttp.WriteError(w, r, h.logger, err)
			return
		}
		id, err := apihttp.ParseID(parts[1])
		if err != nil {
			apihttp.WriteError(w, r, h.logger, err)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, kind, id)
		case http.MethodPut, http.MethodPatch:
			h.handleUpdate(w, r, kind, id)
		case http.MethodDelete:
			h.handleDelete(w, r, kind, id)
		default:
			apihttp.MethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		apihttp.NotFound(w)
	}
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.All(r.Context())
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, all)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	parentID, err := apihttp.QueryInt64(r, "parent_id")
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	items, err := h.service.List(r.Context(), kind, parentID)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, kind catalog.Kind, id int64) {
	item, err := h.service.Get(r.Context(), kind, id)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	apihttp.WriteJSON(w, http.StatusOK, item)
}

type createRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	var req createRequest
	if err := apihttp.DecodeJSON(r, &req); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	item, err := h.service.Create(r.Context(), kind, req.Name, req.ParentID)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionCreate, string(kind), strconv.FormatInt(item.ID, 10), req)
	apihttp.WriteMessage(w, http.StatusCreated, "created", item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, kind catalog.Kind, id int64) {
	var p catalog.Patch
	if err := apihttp.DecodeJSON(r, &p); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	item, err := h.service.Update(r.Context(), kind, id, p)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionUpdate, string(kind), strconv.FormatInt(id, 10), item)
	apihttp.WriteMessage(w, http.StatusOK, "updated", item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, kind catalog.Kind, id int64) {
	if err := h.service.Delete(r.Context(), kind, id); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionDelete, string(kind), strconv.FormatInt(id, 10), nil)
	apihttp.WriteMessage(w, http.StatusOK, "deleted", nil)
}
