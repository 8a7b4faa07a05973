package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "masseutsendelse/pkg/platform/audit"
)

// Schema creates the audit table. It is safe to run on every start.
const Schema = `
	CREATE TABLE IF NOT EXISTS audit_events (
		id          UUID PRIMARY KEY,
		category    TEXT NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		action      TEXT NOT NULL,
		request_id  TEXT NOT NULL DEFAULT '',
		client_id   TEXT NOT NULL DEFAULT '',
		client_ip   TEXT NOT NULL DEFAULT '',
		browser     TEXT NOT NULL DEFAULT '',
		os          TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL DEFAULT '',
		reason      TEXT NOT NULL DEFAULT '',
		attributes  JSONB NOT NULL DEFAULT '{}'::jsonb
	);
	ALTER TABLE audit_events ADD COLUMN IF NOT EXISTS client_ip TEXT NOT NULL DEFAULT '';
	ALTER TABLE audit_events ADD COLUMN IF NOT EXISTS browser TEXT NOT NULL DEFAULT '';
	ALTER TABLE audit_events ADD COLUMN IF NOT EXISTS os TEXT NOT NULL DEFAULT '';
	CREATE INDEX IF NOT EXISTS audit_events_request_id_idx ON audit_events (request_id);
	CREATE INDEX IF NOT EXISTS audit_events_timestamp_idx ON audit_events (timestamp DESC);
`

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Append inserts an event. Appending the same ID twice is a no-op.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := event.ID
	if eventID == uuid.Nil {
		eventID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	payload, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("marshal audit attributes: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, request_id,
			client_id, client_ip, browser, os,
			outcome, reason, attributes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.Action,
		event.RequestID,
		event.ClientID,
		event.ClientIP,
		event.Browser,
		event.OS,
		event.Outcome,
		event.Reason,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRequest returns the events recorded for one HTTP request, oldest first.
func (s *Store) ListByRequest(ctx context.Context, requestID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, timestamp, action, request_id,
			   client_id, client_ip, browser, os,
			   outcome, reason, attributes
		FROM audit_events
		WHERE request_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns up to limit events, most recent first. A limit <= 0
// returns every event.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	var n any // LIMIT NULL means no limit
	if limit > 0 {
		n = limit
	}
	query := `
		SELECT id, category, timestamp, action, request_id,
			   client_id, client_ip, browser, os,
			   outcome, reason, attributes
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category   string
			attributes []byte
			event      audit.Event
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&event.Action,
			&event.RequestID,
			&event.ClientID,
			&event.ClientIP,
			&event.Browser,
			&event.OS,
			&event.Outcome,
			&event.Reason,
			&attributes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &event.Attributes); err != nil {
				return nil, fmt.Errorf("decode audit attributes: %w", err)
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
