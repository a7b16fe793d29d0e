package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"equip-manager/internal/platform/requestctx"
)

// ClientIP extracts the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// Recorder turns handler mutations into audit entries. A nil Recorder is a no-op.
type Recorder struct {
	logger Logger
	log    *zap.Logger
}

// NewRecorder constructs a recorder. logger may be nil to disable auditing.
func NewRecorder(logger Logger, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{logger: logger, log: log}
}

// Record writes an entry for r. Failures are logged, never returned.
func (rec *Recorder) Record(r *http.Request, action, resourceType, resourceID string, meta any) {
	if rec == nil || rec.logger == nil || r == nil {
		return
	}
	var payload []byte
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	entry := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           ClientIP(r),
		UserAgent:    r.UserAgent(),
		RequestID:    requestctx.RequestID(r.Context()),
	}
	// The write outlives a cancelled request.
	if err := rec.logger.Log(context.WithoutCancel(r.Context()), entry); err != nil {
		rec.log.Warn("audit log failed",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}
