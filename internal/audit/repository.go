package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Repository writes audit logs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log writes an audit entry.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PayloadDigest == "" {
		entry.PayloadDigest = DigestJSON(entry.Metadata)
	}
	var metadata any
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, action, resource_type, resource_id, metadata, payload_digest, ip, user_agent, request_id, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, entry.ID, entry.Action, entry.ResourceType, entry.ResourceID, metadata, entry.PayloadDigest,
		entry.IP, entry.UserAgent, entry.RequestID, entry.CreatedAt)
	return err
}

// List returns the most recent entries matching filter.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, action, resource_type, resource_id, metadata, COALESCE(payload_digest, ''),
	COALESCE(ip, ''), COALESCE(user_agent, ''), COALESCE(request_id, ''), created_at
FROM audit_logs
WHERE ($1 = '' OR resource_type = $1)
	AND ($2 = '' OR resource_id = $2)
ORDER BY created_at DESC, id
LIMIT $3`, filter.ResourceType, filter.ResourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			metadata []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.ResourceType, &entry.ResourceID, &metadata,
			&entry.PayloadDigest, &entry.IP, &entry.UserAgent, &entry.RequestID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			entry.Metadata = metadata
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
