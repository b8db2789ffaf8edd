package service

import (
	"time"

	"pet_feeder/internal/models"
)

// ScheduleParams is the caller-supplied part of a schedule.
type ScheduleParams struct {
	Name           string
	Mode           models.ScheduleMode
	Active         bool
	Daytimes       []int64 // seconds since local midnight
	MaxTimesPerDay int     // only used when Mode == ModeMaxTimes
	OnlyWhenEmpty  bool
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // exclusive; zero means no upper bound
	Type string    // "", "FEED", "MISSED_FEED", ...
}

// ScaleFilter selects scale history.
type ScaleFilter struct {
	Scale string // "", "container", "plate"
	From  time.Time
	To    time.Time
	Limit int // 0 means defaultSampleLimit
}
