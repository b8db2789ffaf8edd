package models

import "time"

// MachineStatus is the snapshot of the feeder taken on every control tick.
type MachineStatus struct {
	ContainerLoad              float64   `json:"container_load"` // grams
	PlateLoad                  float64   `json:"plate_load"`     // grams, plate tare already subtracted
	DoorOpen                   bool      `json:"door_open"`
	MotorHealthy               bool      `json:"motor_healthy"`
	SDOk                       bool      `json:"sd_ok"`
	WiFiOk                     bool      `json:"wifi_ok"`
	ScalesOk                   bool      `json:"scales_ok"`
	AutomaticFeedingInProgress bool      `json:"automatic_feeding"`
	ManualFeedingInProgress    bool      `json:"manual_feeding"`
	FeedsToday                 int       `json:"feeds_today"`
	LastFedAt                  time.Time `json:"last_fed_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// StatusFrame is pushed to live observers after every tick.
type StatusFrame struct {
	Status    MachineStatus `json:"status"`
	Events    []FeedEvent   `json:"events,omitempty"`
	ScaleData []ScaleSample `json:"scale_data,omitempty"`
}
