package service

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
	"pet_feeder/internal/notification"
	"pet_feeder/internal/repository"
)

// ControllerHandle is the part of engine.Controller the services drive.
type ControllerHandle interface {
	GetCurrentStatus() models.MachineStatus
	RequestManualFeeding(open bool) error
	ReplaceSchedule(s *models.Schedule)
	SelectedSchedule() *models.Schedule
	ReplaceUserSettings(u models.UserSettings)
	ReplaceSystemSettings(s models.SystemSettings)
	SystemSettings() models.SystemSettings
}

var _ ControllerHandle = (*engine.Controller)(nil)

// Scales is the calibration capability of the load cell hardware.
type Scales interface {
	Tare(id models.ScaleID) (int64, error)
	Calibrate(id models.ScaleID, weight float64) (float64, error)
	ApplyCalibration(s models.SystemSettings)
}

// Feeding exposes operator door control.
type Feeding interface {
	SetContainerOpen(ctx context.Context, open bool) error
}

// Monitoring exposes the live machine snapshot.
type Monitoring interface {
	GetCurrentStatus(ctx context.Context) (models.MachineStatus, error)
}

// Schedules manages feeding plans and the selected one.
type Schedules interface {
	List(ctx context.Context) ([]models.Schedule, error)
	Get(ctx context.Context, id int64) (models.Schedule, error)
	Create(ctx context.Context, p ScheduleParams) (int64, error)
	Update(ctx context.Context, id int64, p ScheduleParams) error
	Delete(ctx context.Context, id int64) error
	SetSelected(ctx context.Context, id int64, active bool) error
}

// EventLog exposes the feeding log and scale history with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.FeedEvent, error)
	Samples(ctx context.Context, f ScaleFilter) ([]models.ScaleSample, error)
}

// Settings round-trips user preferences and machine settings.
type Settings interface {
	GetUser(ctx context.Context) (models.UserSettings, error)
	UpdateUser(ctx context.Context, u models.UserSettings) error
	GetSystem(ctx context.Context) (models.SystemSettings, error)
	SetDoorAngles(ctx context.Context, open, closed int) error
}

// Calibration zeroes and scales the load cells.
type Calibration interface {
	Tare(ctx context.Context, scale models.ScaleID) (models.SystemSettings, error)
	Calibrate(ctx context.Context, scale models.ScaleID, weight float64) (models.SystemSettings, error)
	TarePlateWithPlate(ctx context.Context) (models.UserSettings, error)
}

// Push registers browser push subscriptions.
type Push interface {
	Subscribe(ctx context.Context, sub webpush.Subscription) error
	PublicKey() string
}

// Simulator drives the simulated rig for demos and fault drills.
type Simulator interface {
	SimulatorState(ctx context.Context) (models.SimulatorState, error)
	SetFaults(ctx context.Context, f SimulatorFaults) (models.SimulatorState, error)
	Refill(ctx context.Context, grams float64) (models.SimulatorState, error)
	PutOnPlate(ctx context.Context, grams float64) (models.SimulatorState, error)
}

// Authorization signs in the owner and checks bearer tokens.
type Authorization interface {
	Enabled() bool
	SignIn(password string) (string, error)
	ParseToken(token string) error
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Feeding
	Monitoring
	Schedules
	EventLog
	Settings
	Calibration
	Push
	Simulator
}

// Deps wires the services. Scales, Push, Rig and Offline are optional; an
// empty Auth.Secret leaves the API open.
type Deps struct {
	Repos      *repository.Repository
	Controller ControllerHandle
	Scales     Scales
	Push       Push
	Rig        SimulatorRig
	Offline    OfflineSwitch
	Auth       AuthConfig
	Clock      engine.Clock
	Log        *logger.Logger
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Push == nil {
		d.Push = NewPushService(notification.NewSubscriptions(), "")
	}
	return &Service{
		Authorization: NewAuthService(d.Auth),
		Feeding:       NewFeedingService(d.Controller, d.Log),
		Monitoring:    NewMonitoringService(d.Controller),
		Schedules:     NewScheduleService(d.Repos.Schedules, d.Controller, d.Clock, d.Log),
		EventLog:      NewEventLogService(d.Repos.Events, d.Repos.Scales),
		Settings:      NewSettingsService(d.Repos.Settings, d.Controller, d.Scales),
		Calibration:   NewCalibrationService(d.Repos.Settings, d.Controller, d.Scales, d.Log),
		Push:          d.Push,
		Simulator:     NewSimulatorService(d.Rig, d.Offline, d.Log),
	}
}
