package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"pet_feeder/internal/models"
)

type ScaleSQLite struct {
	db *sql.DB
}

func NewScaleSQLite(db *sql.DB) *ScaleSQLite { return &ScaleSQLite{db: db} }

const (
	insertSampleSQL  = `INSERT INTO scale_samples (scale_id, created_on, value) VALUES (?, ?, ?)`
	selectSamplesSQL = `SELECT id, scale_id, created_on, value FROM scale_samples`
)

// AppendBatch writes all samples in one transaction; either all land or none.
func (r *ScaleSQLite) AppendBatch(ctx context.Context, samples []models.ScaleSample) (err error) {
	if len(samples) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sample batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err = stmt.ExecContext(ctx, int(s.ScaleID), s.CreatedOn.UnixMilli(), s.Value); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sample batch: %w", err)
	}
	return nil
}

// List returns samples matching q, oldest first.
func (r *ScaleSQLite) List(ctx context.Context, q ScaleQuery) ([]models.ScaleSample, error) {
	var (
		conds []string
		args  []any
	)
	if q.Scale != nil {
		conds = append(conds, "scale_id = ?")
		args = append(args, int(*q.Scale))
	}
	if !q.From.IsZero() {
		conds = append(conds, "created_on >= ?")
		args = append(args, q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		conds = append(conds, "created_on < ?")
		args = append(args, q.To.UnixMilli())
	}
	query := selectSamplesSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_on ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []models.ScaleSample
	for rows.Next() {
		var (
			s     models.ScaleSample
			scale int
			ms    int64
		)
		if err := rows.Scan(&s.ID, &scale, &ms, &s.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.ScaleID = models.ScaleID(scale)
		s.CreatedOn = time.UnixMilli(ms).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
