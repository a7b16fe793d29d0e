package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "equip-manager/internal/catalog/application"
	catalogmem "equip-manager/internal/catalog/infrastructure/memory"
	"equip-manager/internal/platform/database"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	svc, err := catalogapp.NewService(catalogmem.NewRepository(), database.Direct{})
	require.NoError(t, err)
	h, err := NewHandler(svc, nil, nil)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestCreateListDelete(t *testing.T) {
	h := newHandler(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/catalog/manufacturers", `{"name":"Yokogawa"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Yokogawa", created.Name)

	rec, env = do(t, h, http.MethodPost, "/api/v1/catalog/manufacturers", `{"name":"Yokogawa"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", env.Error)

	rec, env = do(t, h, http.MethodGet, "/api/v1/catalog/manufacturers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Yokogawa"}]`, string(env.Data))

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/catalog/manufacturers/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/catalog/manufacturers/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownKindIs404(t *testing.T) {
	h := newHandler(t)
	rec, env := do(t, h, http.MethodGet, "/api/v1/catalog/vendors", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestAllLookups(t *testing.T) {
	h := newHandler(t)
	rec, env := do(t, h, http.MethodGet, "/api/v1/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string][]any
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Contains(t, all, "acceptance-criteria")
	assert.Contains(t, all, "sites")
}

func TestUpdateMissingNameIsValidation(t *testing.T) {
	h := newHandler(t)
	do(t, h, http.MethodPost, "/api/v1/catalog/units", `{"name":"bar"}`)

	rec, env := do(t, h, http.MethodPut, "/api/v1/catalog/units/1", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error)
}
