package engine

import "time"

// Tuning carries every threshold and period of the control loop.
type Tuning struct {
	WeightRateThreshold     float64 // g/s, strict
	SafetyWeightGap         float64 // g subtracted from the fill target
	ContainerEmptyThreshold float64 // g
	NoContainerThreshold    float64 // g, at or below means the container is removed
	PlateEmptyThreshold     float64 // g

	NormalPeriod   time.Duration
	FastPeriod     time.Duration
	Cooldown       time.Duration
	MotorCheckWait time.Duration

	MaxHistoryBuffer int
	// StaleLimit is how many consecutive failures flip a health flag.
	StaleLimit int

	Location *time.Location
}

// DefaultTuning mirrors the feeder firmware.
func DefaultTuning() Tuning {
	return Tuning{
		WeightRateThreshold:     1,
		SafetyWeightGap:         1,
		ContainerEmptyThreshold: 1,
		NoContainerThreshold:    -10,
		PlateEmptyThreshold:     1,
		NormalPeriod:            2 * time.Second,
		FastPeriod:              time.Second / 3,
		Cooldown:                5 * time.Second,
		MotorCheckWait:          2 * time.Second,
		MaxHistoryBuffer:        100,
		StaleLimit:              3,
		Location:                time.UTC,
	}
}

func (t Tuning) location() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

// DayStart returns local midnight of the day containing ts.
func DayStart(ts time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	ts = ts.In(loc)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
}
