package audit

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
)

// Handler serves GET /api/v1/audit-logs.
type Handler struct {
	lister Lister
	logger *zap.Logger
}

// NewHandler constructs a handler.
func NewHandler(lister Lister, logger *zap.Logger) (*Handler, error) {
	if lister == nil {
		return nil, errors.New("audit handler: nil lister")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{lister: lister, logger: logger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apihttp.MethodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := apihttp.QueryInt(r, "limit", defaultListLimit)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	entries, err := h.lister.List(r.Context(), Filter{
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Limit:        limit,
	})
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	apihttp.WriteJSON(w, http.StatusOK, entries)
}
