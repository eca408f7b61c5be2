package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a single audit trail entry.
type Event struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Transport string         `json:"transport"` // "tunnel" or "routing"
	SiteID    string         `json:"site_id"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which audit events List returns.
type Filter struct {
	Action    string // optional: e.g. "lost_message", "queue_overflow"
	Transport string // optional: "tunnel" or "routing"
	Limit     int    // default 50, max 200
	Offset    int
}

// ListResult is a paginated page of audit events.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Repository persists and queries audit events.
type Repository interface {
	Create(ctx context.Context, ev *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores audit events in SQLite's audit_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an already-open, already-migrated database
// connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an audit event. ID and CreatedAt are generated if unset.
func (r *SQLiteRepository) Create(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = "aud-" + uuid.NewString()[:8]
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	var detailsJSON *string
	if ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, action, transport, site_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Action, ev.Transport, ev.SiteID, detailsJSON, ev.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// List returns audit events matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Transport != "" {
		conditions = append(conditions, "transport = ?")
		args = append(args, filter.Transport)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// where is built entirely from fixed parameterised conditions above,
	// never from raw user input.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_events %s", where) //nolint:gosec
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting audit events: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec
		"SELECT id, action, transport, site_id, details, created_at FROM audit_events %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var detailsJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&ev.ID, &ev.Action, &ev.Transport, &ev.SiteID, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				ev.Details = details
			}
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit event timestamp %q: %w", createdAt, err)
		}
		ev.CreatedAt = t

		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}

	return &ListResult{Events: events, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
