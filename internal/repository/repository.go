package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

type SettingsRepo interface {
	LoadSystem(ctx context.Context) (models.SystemSettings, error)
	SaveSystem(ctx context.Context, s models.SystemSettings) error
	LoadUser(ctx context.Context) (models.UserSettings, error)
	SaveUser(ctx context.Context, u models.UserSettings) error
}

type ScheduleRepo interface {
	List(ctx context.Context) ([]models.Schedule, error)
	Get(ctx context.Context, id int64) (models.Schedule, error)
	Selected(ctx context.Context) (*models.Schedule, error)
	Create(ctx context.Context, s models.Schedule) (int64, error)
	Update(ctx context.Context, s models.Schedule) error
	Delete(ctx context.Context, id int64) error
	SetSelected(ctx context.Context, id int64, selected bool) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetWindowStart(ctx context.Context, id int64, start int64) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.FeedEvent) error
	List(ctx context.Context, from, to time.Time, typ models.EventType) ([]models.FeedEvent, error)
	Count(ctx context.Context, from, to time.Time, typ models.EventType) (int, error)
}

type ScaleRepo interface {
	AppendBatch(ctx context.Context, samples []models.ScaleSample) error
	List(ctx context.Context, f ScaleQuery) ([]models.ScaleSample, error)
}

// ScaleQuery filters scale history. Zero values mean no bound.
type ScaleQuery struct {
	Scale *models.ScaleID
	From  time.Time
	To    time.Time
	Limit int
}

type Repository struct {
	Settings  SettingsRepo
	Schedules ScheduleRepo
	Events    EventRepo
	Scales    ScaleRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings:  NewSettingsSQLite(db),
		Schedules: NewScheduleSQLite(db),
		Events:    NewEventSQLite(db),
		Scales:    NewScaleSQLite(db),
	}
}

var _ engine.PersistenceGateway = (*Repository)(nil)

func (r *Repository) LoadSelectedSchedule(ctx context.Context) (*models.Schedule, error) {
	return r.Schedules.Selected(ctx)
}

func (r *Repository) LoadSystemSettings(ctx context.Context) (models.SystemSettings, error) {
	return r.Settings.LoadSystem(ctx)
}

func (r *Repository) LoadUserSettings(ctx context.Context) (models.UserSettings, error) {
	return r.Settings.LoadUser(ctx)
}

// CountFeedsBetween counts completed feeds in [from, to).
func (r *Repository) CountFeedsBetween(ctx context.Context, from, to time.Time) (int, error) {
	return r.Events.Count(ctx, from, to, models.EventFeed)
}

func (r *Repository) AppendEvent(ctx context.Context, e models.FeedEvent) error {
	return r.Events.Append(ctx, e)
}

func (r *Repository) AppendScaleSamples(ctx context.Context, samples []models.ScaleSample) error {
	return r.Scales.AppendBatch(ctx, samples)
}

func (r *Repository) SetScheduleWindowStart(ctx context.Context, id int64, start int64) error {
	return r.Schedules.SetWindowStart(ctx, id, start)
}

func (r *Repository) SetScheduleSelected(ctx context.Context, id int64, selected bool) error {
	return r.Schedules.SetSelected(ctx, id, selected)
}

func (r *Repository) SetScheduleActive(ctx context.Context, id int64, active bool) error {
	return r.Schedules.SetActive(ctx, id, active)
}
