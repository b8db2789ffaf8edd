package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet_feeder/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite { return &ScheduleSQLite{db: db} }

const (
	scheduleColumns = `id, created_on, name, mode, selected, active, daytimes, max_times, max_times_start, only_when_empty`

	selectSchedulesSQL = `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY id ASC`
	selectScheduleSQL  = `SELECT ` + scheduleColumns + ` FROM schedules WHERE id=?`
	selectSelectedSQL  = `SELECT ` + scheduleColumns + ` FROM schedules WHERE selected=1 LIMIT 1`

	insertScheduleSQL = `
		INSERT INTO schedules (created_on, name, mode, selected, active, daytimes, max_times, max_times_start, only_when_empty)
		VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)
	`
	updateScheduleSQL = `
		UPDATE schedules SET name=?, mode=?, active=?, daytimes=?, max_times=?, only_when_empty=?
		WHERE id=?
	`
	deleteScheduleSQL    = `DELETE FROM schedules WHERE id=?`
	deselectOthersSQL    = `UPDATE schedules SET selected=0 WHERE selected=1 AND id<>?`
	setSelectedSQL       = `UPDATE schedules SET selected=?, active=? WHERE id=?`
	setScheduleActiveSQL = `UPDATE schedules SET active=? WHERE id=?`
	setWindowStartSQL    = `UPDATE schedules SET max_times_start=? WHERE id=?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (models.Schedule, error) {
	var (
		s        models.Schedule
		mode     int
		daytimes string
	)
	if err := row.Scan(
		&s.ID,
		&s.CreatedOn,
		&s.Name,
		&mode,
		&s.Selected,
		&s.Active,
		&daytimes,
		&s.MaxTimesPerDay,
		&s.MaxTimesWindowStart,
		&s.OnlyWhenEmpty,
	); err != nil {
		return models.Schedule{}, err
	}
	s.Mode = models.ScheduleMode(mode)
	if daytimes != "" {
		if err := json.Unmarshal([]byte(daytimes), &s.Daytimes); err != nil {
			return models.Schedule{}, fmt.Errorf("decode daytimes of schedule %d: %w", s.ID, err)
		}
	}
	return s, nil
}

func marshalDaytimes(d []int64) (string, error) {
	if d == nil {
		d = []int64{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *ScheduleSQLite) List(ctx context.Context) ([]models.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, selectSchedulesSQL)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var out []models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleSQLite) Get(ctx context.Context, id int64) (models.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, selectScheduleSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Schedule{}, fmt.Errorf("schedule %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Schedule{}, fmt.Errorf("load schedule %d: %w", id, err)
	}
	return s, nil
}

// Selected returns the selected schedule, or nil when none is selected.
func (r *ScheduleSQLite) Selected(ctx context.Context) (*models.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx, selectSelectedSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load selected schedule: %w", err)
	}
	return &s, nil
}

// Create inserts an unselected schedule and returns its id.
func (r *ScheduleSQLite) Create(ctx context.Context, s models.Schedule) (int64, error) {
	daytimes, err := marshalDaytimes(s.Daytimes)
	if err != nil {
		return 0, err
	}
	if s.CreatedOn == 0 {
		s.CreatedOn = time.Now().Unix()
	}
	res, err := r.db.ExecContext(ctx, insertScheduleSQL,
		s.CreatedOn,
		s.Name,
		int(s.Mode),
		s.Active,
		daytimes,
		s.MaxTimesPerDay,
		s.MaxTimesWindowStart,
		s.OnlyWhenEmpty,
	)
	if err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return res.LastInsertId()
}

// Update rewrites the owner-editable fields. The max-times window is only
// written through SetWindowStart.
func (r *ScheduleSQLite) Update(ctx context.Context, s models.Schedule) error {
	daytimes, err := marshalDaytimes(s.Daytimes)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateScheduleSQL,
		s.Name,
		int(s.Mode),
		s.Active,
		daytimes,
		s.MaxTimesPerDay,
		s.OnlyWhenEmpty,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule %d: %w", s.ID, err)
	}
	return expectOneRow(res, s.ID)
}

func (r *ScheduleSQLite) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteScheduleSQL, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	return expectOneRow(res, id)
}

// SetSelected marks id as the selected and active schedule, deselecting any
// previous one in the same transaction. selected=false deselects and
// deactivates id.
func (r *ScheduleSQLite) SetSelected(ctx context.Context, id int64, selected bool) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin select schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if selected {
		if _, err = tx.ExecContext(ctx, deselectOthersSQL, id); err != nil {
			return fmt.Errorf("deselect schedules: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, setSelectedSQL, selected, selected, id)
	if err != nil {
		return fmt.Errorf("select schedule %d: %w", id, err)
	}
	if err = expectOneRow(res, id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit select schedule: %w", err)
	}
	return nil
}

// SetActive pauses or resumes a schedule without changing the selection.
func (r *ScheduleSQLite) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, setScheduleActiveSQL, active, id)
	if err != nil {
		return fmt.Errorf("set schedule %d active: %w", id, err)
	}
	return expectOneRow(res, id)
}

// SetWindowStart stores the max-times window start and nothing else.
func (r *ScheduleSQLite) SetWindowStart(ctx context.Context, id int64, start int64) error {
	res, err := r.db.ExecContext(ctx, setWindowStartSQL, start, id)
	if err != nil {
		return fmt.Errorf("set schedule %d window: %w", id, err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("schedule %d: %w", id, ErrNotFound)
	}
	return nil
}
