package engine

import (
	"context"
	"time"

	"pet_feeder/internal/models"
)

// Clock provides wall time.
type Clock interface {
	Now() time.Time
}

// SyncReporter is implemented by clocks that know whether they are aligned
// with a time server.
type SyncReporter interface {
	Synced() bool
}

// SensorPort reads both load cells. The bool result is false when the
// reading is stale.
type SensorPort interface {
	ReadContainerLoad() (float64, bool)
	ReadPlateLoad() (float64, bool)
}

// ActuatorPort drives the container door. There is no position feedback.
type ActuatorPort interface {
	Open() error
	Close() error
}

// PersistenceGateway is the part of the store the control loop needs.
type PersistenceGateway interface {
	LoadSelectedSchedule(ctx context.Context) (*models.Schedule, error)
	LoadSystemSettings(ctx context.Context) (models.SystemSettings, error)
	LoadUserSettings(ctx context.Context) (models.UserSettings, error)
	CountFeedsBetween(ctx context.Context, from, to time.Time) (int, error)
	AppendEvent(ctx context.Context, e models.FeedEvent) error
	AppendScaleSamples(ctx context.Context, samples []models.ScaleSample) error
	// SetScheduleWindowStart persists only the max-times window of schedule id.
	SetScheduleWindowStart(ctx context.Context, id int64, start int64) error
}

// NotificationSink delivers owner alerts.
type NotificationSink interface {
	Notify(ctx context.Context, kind models.NotificationKind) error
}

// StatusPublisher pushes frames to observers. Implementations must not block.
type StatusPublisher interface {
	Broadcast(frame models.StatusFrame)
}

// Metrics records loop telemetry.
type Metrics interface {
	ObserveFeed(outcome string)
	IncMotorFailure()
	IncNotification(kind string)
	AddSamplesFlushed(n int)
	AddSamplesDropped(n int)
	SetLoopPeriod(d time.Duration)
	SetLoads(container, plate float64)
}

// Logger is satisfied by *zap.SugaredLogger.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type nopMetrics struct{}

func (nopMetrics) ObserveFeed(string)          {}
func (nopMetrics) IncMotorFailure()            {}
func (nopMetrics) IncNotification(string)      {}
func (nopMetrics) AddSamplesFlushed(int)       {}
func (nopMetrics) AddSamplesDropped(int)       {}
func (nopMetrics) SetLoopPeriod(time.Duration) {}
func (nopMetrics) SetLoads(float64, float64)   {}

type nopPublisher struct{}

func (nopPublisher) Broadcast(models.StatusFrame) {}

type nopSink struct{}

func (nopSink) Notify(context.Context, models.NotificationKind) error { return nil }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
