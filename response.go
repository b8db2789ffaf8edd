package pet_feeder

import "pet_feeder/internal/models"

// ScheduleRequest is the body of schedule create and update calls.
type ScheduleRequest struct {
	Name string `json:"name" binding:"required" example:"Breakfast and dinner"`
	// Mode: 0 = fixed daytimes, 1 = max times per day
	Mode   models.ScheduleMode `json:"mode" example:"0"`
	Active bool                `json:"active" example:"true"`
	// Seconds since local midnight (fixed daytime mode)
	Daytimes []int64 `json:"daytimes,omitempty" example:"28800,64800"`
	// Feeds per day (max times mode)
	MaxTimesPerDay int  `json:"max_times_per_day,omitempty" example:"3"`
	OnlyWhenEmpty  bool `json:"only_when_empty" example:"false"`
}

// DoorAnglesRequest sets the servo angles of the container door.
type DoorAnglesRequest struct {
	Open  *int `json:"open" binding:"required" example:"90"`
	Close *int `json:"close" binding:"required" example:"0"`
}

// CalibrateRequest carries the reference weight in grams; zero uses the
// stored calibration weight.
type CalibrateRequest struct {
	Weight float64 `json:"weight" example:"100"`
}

// SignInRequest is the owner password.
type SignInRequest struct {
	Password string `json:"password" binding:"required"`
}

// EventsResponse lists feeding log entries.
type EventsResponse struct {
	Count  int                `json:"count"`
	Events []models.FeedEvent `json:"events"`
}

// ScaleDataResponse lists buffered weight readings.
type ScaleDataResponse struct {
	Count   int                  `json:"count"`
	Samples []models.ScaleSample `json:"samples"`
}

// ErrorResponse is returned on every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SimulatorFaultsRequest toggles simulated faults. Omitted fields keep
// their current value.
type SimulatorFaultsRequest struct {
	Jammed           *bool `json:"jammed,omitempty" example:"true"`
	ContainerRemoved *bool `json:"container_removed,omitempty"`
	Stale            *bool `json:"stale,omitempty"`
	Eating           *bool `json:"eating,omitempty"`
	DoorDetached     *bool `json:"door_detached,omitempty"`
	ClockOffline     *bool `json:"clock_offline,omitempty"`
}

// GramsRequest is a weight in grams.
type GramsRequest struct {
	Grams float64 `json:"grams" binding:"required" example:"500"`
}
