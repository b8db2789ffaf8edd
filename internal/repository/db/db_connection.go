package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

const schemaSystemSettings = `
CREATE TABLE IF NOT EXISTS system_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    calibration_weight REAL NOT NULL,
    container_scale REAL NOT NULL,
    container_offset INTEGER NOT NULL,
    plate_scale REAL NOT NULL,
    plate_offset INTEGER NOT NULL,
    door_angle_open INTEGER NOT NULL,
    door_angle_close INTEGER NOT NULL
);
`

const schemaUserSettings = `
CREATE TABLE IF NOT EXISTS user_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    pet_name TEXT NOT NULL,
    plate_tare REAL NOT NULL,
    plate_filling REAL NOT NULL,
    notifications TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL,
    language INTEGER NOT NULL,
    theme INTEGER NOT NULL
);
`

const schemaSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_on INTEGER NOT NULL,
    name TEXT NOT NULL,
    mode INTEGER NOT NULL,
    selected BOOLEAN NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT 0,
    daytimes TEXT NOT NULL DEFAULT '[]',
    max_times INTEGER NOT NULL DEFAULT 0,
    max_times_start INTEGER NOT NULL DEFAULT 0,
    only_when_empty BOOLEAN NOT NULL DEFAULT 0
);
`

// At most one selected schedule, enforced by the store as well.
const schemaSchedulesSelected = `
CREATE UNIQUE INDEX IF NOT EXISTS schedules_one_selected ON schedules (selected) WHERE selected = 1;
`

const schemaFeedEvents = `
CREATE TABLE IF NOT EXISTS feed_events (
    id TEXT PRIMARY KEY,
    occurred_at INTEGER NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL
);
`

const schemaFeedEventsIndex = `
CREATE INDEX IF NOT EXISTS feed_events_occurred_at ON feed_events (occurred_at);
`

const schemaScaleSamples = `
CREATE TABLE IF NOT EXISTS scale_samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scale_id INTEGER NOT NULL,
    created_on INTEGER NOT NULL,
    value REAL NOT NULL
);
`

const schemaScaleSamplesIndex = `
CREATE INDEX IF NOT EXISTS scale_samples_scale_created ON scale_samples (scale_id, created_on);
`

// EnsureSchema applies every CREATE statement in one transaction.
func EnsureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaSystemSettings,
		schemaUserSettings,
		schemaSchedules,
		schemaSchedulesSelected,
		schemaFeedEvents,
		schemaFeedEventsIndex,
		schemaScaleSamples,
		schemaScaleSamplesIndex,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
