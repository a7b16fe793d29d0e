package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "equip-manager/internal/catalog/application"
	catalogmem "equip-manager/internal/catalog/infrastructure/memory"
	equipmentapp "equip-manager/internal/equipment/application"
	equipmentmem "equip-manager/internal/equipment/infrastructure/memory"
	"equip-manager/internal/platform/database"
	pointsapp "equip-manager/internal/points/application"
	pointsmem "equip-manager/internal/points/infrastructure/memory"
	transferapp "equip-manager/internal/transfer/application"
	transfer "equip-manager/internal/transfer/domain"
	"equip-manager/internal/transfer/infrastructure/xlsx"
)

type noCertificates struct{}

func (noCertificates) CountByEquipment(context.Context, string) (int, error) { return 0, nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func newHandler(t *testing.T, opts ...HandlerOption) *Handler {
	t.Helper()
	tx := database.Direct{}
	pointRepo := pointsmem.NewRepository()
	lookups, err := catalogapp.NewService(catalogmem.NewRepository(), tx)
	require.NoError(t, err)
	eq, err := equipmentapp.NewService(equipmentmem.NewRepository(), pointRepo, noCertificates{}, tx)
	require.NoError(t, err)
	pts, err := pointsapp.NewService(pointRepo, eq, tx)
	require.NoError(t, err)

	importer, err := transferapp.NewImporter(tx, lookups, eq, pts)
	require.NoError(t, err)
	exporter, err := transferapp.NewExporter(lookups, eq, pts)
	require.NoError(t, err)
	h, err := NewHandler(importer, exporter, nil, nil, opts...)
	require.NoError(t, err)
	return h
}

func upload(t *testing.T, h http.Handler, path, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestTemplateImportExport(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/templates/equipment", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsx.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "template_equipment.xlsx")

	res, env := upload(t, h, "/api/v1/import/equipment", "equipamentos.XLSX", rec.Body.Bytes())
	require.Equal(t, http.StatusOK, res.Code, env.Message)
	var result transfer.Result
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export/equipment", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	table, err := xlsx.ReadTable(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "EQ001", table.Rows[0][0])
	assert.Equal(t, "Emerson", table.Rows[0][3])
}

func TestImportRejectsBadUploads(t *testing.T) {
	h := newHandler(t)

	rec, env := upload(t, h, "/api/v1/import/points", "points.csv", []byte("a,b"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error)

	rec, _ = upload(t, h, "/api/v1/import/points", "points.xls", []byte("not excel"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/points", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRejectsOversizedUpload(t *testing.T) {
	h := newHandler(t, WithMaxUploadBytes(1024))
	rec, env := upload(t, h, "/api/v1/import/equipment", "big.xlsx", bytes.Repeat([]byte("x"), 4096))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestTransferRouting(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export/certificates", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/import/points", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
