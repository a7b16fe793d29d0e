package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	apihttp "equip-manager/internal/api/http"
	"equip-manager/internal/apperrors"
	"equip-manager/internal/audit"
	"equip-manager/internal/observability/metrics"
	transferapp "equip-manager/internal/transfer/application"
	transfer "equip-manager/internal/transfer/domain"
	"equip-manager/internal/transfer/infrastructure/xlsx"
)

const (
	apiPrefix    = "/api/v1"
	resourceType = "spreadsheet"

	// Mount points served by Handler.
	ImportPath    = apiPrefix + "/import/"
	ExportPath    = apiPrefix + "/export/"
	TemplatesPath = apiPrefix + "/templates/"

	defaultMaxUploadBytes = 16 << 20
)

// Handler provides spreadsheet import, export and template endpoints.
type Handler struct {
	importer       *transferapp.Importer
	exporter       *transferapp.Exporter
	recorder       *audit.Recorder
	logger         *zap.Logger
	maxUploadBytes int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxUploadBytes limits the request body of an import.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler constructs a handler. recorder may be nil.
func NewHandler(importer *transferapp.Importer, exporter *transferapp.Exporter, recorder *audit.Recorder, logger *zap.Logger, opts ...HandlerOption) (*Handler, error) {
	if importer == nil || exporter == nil {
		return nil, errors.New("transfer handler: nil service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		importer:       importer,
		exporter:       exporter,
		recorder:       recorder,
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP handles /api/v1/{import,export,templates}/{equipment,points}.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := apihttp.PathSegments(r.URL.Path, apiPrefix)
	if len(parts) != 2 {
		apihttp.NotFound(w)
		return
	}
	entity, err := transfer.ParseEntity(parts[1])
	if err != nil {
		apihttp.NotFound(w)
		return
	}

	switch parts[0] {
	case "import":
		if r.Method != http.MethodPost {
			apihttp.MethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleImport(w, r, entity)
	case "export", "templates":
		if r.Method != http.MethodGet {
			apihttp.MethodNotAllowed(w, http.MethodGet)
			return
		}
		if parts[0] == "export" {
			h.handleExport(w, r, entity)
		} else {
			h.handleTemplate(w, r, entity)
		}
	default:
		apihttp.NotFound(w)
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request, entity transfer.Entity) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apihttp.WriteError(w, r, h.logger, apperrors.Validationf("file exceeds %d MB", h.maxUploadBytes>>20))
			return
		}
		apihttp.WriteError(w, r, h.logger, apperrors.Validationf("file is required"))
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".xls":
	default:
		apihttp.WriteError(w, r, h.logger, apperrors.Validationf("only .xlsx and .xls files are accepted"))
		return
	}

	table, err := xlsx.ReadTable(file)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, apperrors.Validationf("could not read spreadsheet: %v", err))
		return
	}
	res, err := h.importer.Import(r.Context(), entity, table)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	h.recorder.Record(r, audit.ActionImport, resourceType, string(entity), res)
	apihttp.WriteMessage(w, http.StatusOK, fmt.Sprintf("%d rows imported, %d failed", res.Imported, res.Failed), res)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, entity transfer.Entity) {
	start := time.Now()
	result := metrics.ResultError
	defer func() {
		metrics.ObserveExport(string(entity), "xlsx", result, time.Since(start))
	}()

	sheet, err := h.exporter.Export(r.Context(), entity)
	if err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.writeWorkbook(w, sheet, entity.FileName("export")); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
		return
	}
	result = metrics.ResultSuccess
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request, entity transfer.Entity) {
	if err := h.writeWorkbook(w, entity.Template(), entity.FileName("template")); err != nil {
		apihttp.WriteError(w, r, h.logger, err)
	}
}

// writeWorkbook only touches w once the workbook is built, so a failure can
// still be answered with an error envelope.
func (h *Handler) writeWorkbook(w http.ResponseWriter, sheet transfer.Sheet, filename string) error {
	body, err := xlsx.WriteSheet(sheet)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return nil
}
