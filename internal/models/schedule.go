package models

import "time"

// ScheduleMode selects how a schedule decides that food is due.
type ScheduleMode int

const (
	// ModeFixedDaytime feeds at fixed offsets from local midnight.
	ModeFixedDaytime ScheduleMode = iota
	// ModeMaxTimes refills the plate when empty, up to N times per day.
	ModeMaxTimes
)

func (m ScheduleMode) String() string {
	switch m {
	case ModeFixedDaytime:
		return "fixed_daytime"
	case ModeMaxTimes:
		return "max_times"
	default:
		return "unknown"
	}
}

// Valid reports whether m is a known mode.
func (m ScheduleMode) Valid() bool {
	return m == ModeFixedDaytime || m == ModeMaxTimes
}

// Schedule is a persisted feeding plan. At most one schedule is Selected.
type Schedule struct {
	ID             int64        `json:"id"`
	CreatedOn      int64        `json:"created_on"` // epoch seconds
	Name           string       `json:"name"`
	Mode           ScheduleMode `json:"mode"`
	Selected       bool         `json:"selected"`
	Active         bool         `json:"active"`
	Daytimes       []int64      `json:"daytimes"` // seconds since local midnight, sorted, unique
	MaxTimesPerDay int          `json:"max_times_per_day"`
	// MaxTimesWindowStart is the epoch second before which MaxTimes feeding
	// stays suppressed. Zero means no window is armed.
	MaxTimesWindowStart int64 `json:"max_times_window_start"`
	OnlyWhenEmpty       bool  `json:"only_when_empty"`
}

// WindowStart returns MaxTimesWindowStart as a time, zero when unset.
func (s Schedule) WindowStart() time.Time {
	if s.MaxTimesWindowStart == 0 {
		return time.Time{}
	}
	return time.Unix(s.MaxTimesWindowStart, 0)
}

// Clone returns a deep copy.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	c := *s
	if s.Daytimes != nil {
		c.Daytimes = append([]int64(nil), s.Daytimes...)
	}
	return &c
}
