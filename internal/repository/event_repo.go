package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet_feeder/internal/models"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT OR IGNORE INTO feed_events (id, occurred_at, type, message)
		VALUES (?, ?, ?, ?)
	`
	selectEventsSQL = `SELECT id, occurred_at, type, message FROM feed_events`
	countEventsSQL  = `SELECT COUNT(*) FROM feed_events`
)

// Append inserts an event. Empty ID and OccurredAt are filled in. A
// repeated ID is ignored so queued events can be retried safely.
func (r *EventSQLite) Append(ctx context.Context, e models.FeedEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.OccurredAt.UnixMilli(),
		normalizeEventType(e.Type),
		e.Message,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// eventFilter builds the WHERE clause for [from, to) and type.
func eventFilter(from, to time.Time, typ models.EventType) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at < ?")
		args = append(args, to.UnixMilli())
	}
	if t := normalizeEventType(typ); t != "" {
		conds = append(conds, "type = ?")
		args = append(args, t)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func normalizeEventType(t models.EventType) string {
	return strings.ToUpper(strings.TrimSpace(string(t)))
}

// List returns events in [from, to) of the given type, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ models.EventType) ([]models.FeedEvent, error) {
	where, args := eventFilter(from, to, typ)
	q := selectEventsSQL + where + " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]models.FeedEvent, 0, 64)
	for rows.Next() {
		var (
			ev models.FeedEvent
			ms int64
		)
		if err := rows.Scan(&ev.ID, &ms, &ev.Type, &ev.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt = time.UnixMilli(ms).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many events match the filter.
func (r *EventSQLite) Count(ctx context.Context, from, to time.Time, typ models.EventType) (int, error) {
	where, args := eventFilter(from, to, typ)
	var n int
	if err := r.db.QueryRowContext(ctx, countEventsSQL+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
