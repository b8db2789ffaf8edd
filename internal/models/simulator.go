package models

// SimulatorState is the true physical state of the simulated feeder, as
// opposed to what the calibrated scales report.
type SimulatorState struct {
	ContainerGrams   float64 `json:"container_grams"`
	PlateGrams       float64 `json:"plate_grams"`
	DoorOpen         bool    `json:"door_open"`
	DoorAngle        int     `json:"door_angle"`
	Eating           bool    `json:"eating"`
	Jammed           bool    `json:"jammed"`
	ContainerRemoved bool    `json:"container_removed"`
	Stale            bool    `json:"stale"`
	DoorDetached     bool    `json:"door_detached"`
	ClockOffline     bool    `json:"clock_offline"`
}
