package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"equip-manager/internal/platform/requestctx"
)

type memoryLog struct {
	entries []Entry
	err     error
}

func (m *memoryLog) Log(_ context.Context, entry Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLog) List(_ context.Context, filter Filter) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestRecorderFillsRequestFields(t *testing.T) {
	sink := &memoryLog{}
	rec := NewRecorder(sink, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/equipment", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9, 10.0.0.1")
	req.Header.Set("User-Agent", "curl/8")
	req = req.WithContext(requestctx.WithRequestID(req.Context(), "req-1"))

	rec.Record(req, ActionCreate, "equipment", "EQ001", map[string]string{"name": "FT-1"})

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	assert.Equal(t, "10.0.0.9", entry.IP)
	assert.Equal(t, "curl/8", entry.UserAgent)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.JSONEq(t, `{"name":"FT-1"}`, string(entry.Metadata))
}

func TestRecorderLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := NewRecorder(&memoryLog{err: errors.New("db down")}, zap.New(core))

	rec.Record(httptest.NewRequest(http.MethodDelete, "/", nil), ActionDelete, "point", "3", nil)
	assert.Equal(t, 1, logs.Len())

	var nilRecorder *Recorder
	assert.NotPanics(t, func() { nilRecorder.Record(nil, ActionDelete, "point", "3", nil) })
}

func TestHandlerListsEntries(t *testing.T) {
	sink := &memoryLog{entries: []Entry{
		{ID: "a", Action: ActionCreate, ResourceType: "equipment", ResourceID: "EQ1"},
		{ID: "b", Action: ActionDelete, ResourceType: "point", ResourceID: "2"},
	}}
	h, err := NewHandler(sink, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs?resource_type=point", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool    `json:"success"`
		Data    []Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "b", body.Data[0].ID)
}

func TestDigestJSON(t *testing.T) {
	assert.Empty(t, DigestJSON(nil))
	assert.Len(t, DigestJSON([]byte(`{}`)), 64)
	assert.Contains(t, NewID(), "audit-")
}
