package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"pet_feeder/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR IGNORE INTO feed_events (id, occurred_at, type, message) VALUES (?, ?, ?, ?)`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "FEED", "fed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.FeedEvent{
		Type:    " feed ",
		Message: "fed",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_KeepsIDAndTimestamp(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)
	at := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT OR IGNORE INTO feed_events").
		WithArgs("ev-1", at.UnixMilli(), "MOTOR_FAILURE", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.FeedEvent{ID: "ev-1", Type: models.EventMotorFailure, OccurredAt: at})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec("INSERT OR IGNORE INTO feed_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.FeedEvent{Type: models.EventFeed})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message"}).
		AddRow("1", now.UnixMilli(), "FEED", "m1").
		AddRow("2", now.Add(time.Hour).UnixMilli(), "CONTAINER_EMPTY", "m2")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message FROM feed_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].Type != models.EventContainerEmpty {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if !got[1].OccurredAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("timestamp mismatch: %v", got[1].OccurredAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := `SELECT id, occurred_at, type, message FROM feed_events WHERE occurred_at >= ? AND occurred_at < ? AND type = ? ORDER BY occurred_at ASC`
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message"}).
		AddRow("2", from.UnixMilli(), "FEED", "b")

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(from.UnixMilli(), to.UnixMilli(), "FEED").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), from, to, " feed ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message"}).
		AddRow("x", "not-a-number", "FEED", "msg")

	mock.ExpectQuery("SELECT id, occurred_at, type, message FROM feed_events").
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestCount_FeedsInWindow(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewRepository(db)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM feed_events WHERE occurred_at >= ? AND occurred_at < ? AND type = ?`)).
		WithArgs(from.UnixMilli(), to.UnixMilli(), "FEED").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))

	n, err := repo.CountFeedsBetween(ctx(t), from, to)
	if err != nil {
		t.Fatalf("CountFeedsBetween: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
