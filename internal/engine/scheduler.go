package engine

import (
	"time"

	"pet_feeder/internal/models"
)

// FeedScheduler decides whether food is due. It holds no state.
type FeedScheduler struct {
	PlateEmptyThreshold float64
	Location            *time.Location
}

// NewFeedScheduler builds a scheduler from tuning.
func NewFeedScheduler(t Tuning) FeedScheduler {
	return FeedScheduler{PlateEmptyThreshold: t.PlateEmptyThreshold, Location: t.location()}
}

// IsFeedPending reports whether the schedule wants food now.
//
// FixedDaytime takes the latest daytime instant of today that is on or
// before now; the feed is pending when that instant is after lastFedAt.
// Earlier missed instants are never replayed.
//
// MaxTimes is pending while the plate is empty and fewer than the daily
// maximum feeds have happened, unless an armed window has not opened yet.
func (f FeedScheduler) IsFeedPending(s *models.Schedule, now, lastFedAt time.Time, feedsToday int, plateLoad float64) bool {
	if s == nil || !s.Active {
		return false
	}
	switch s.Mode {
	case models.ModeFixedDaytime:
		due, ok := f.LatestDue(s, now)
		return ok && due.After(lastFedAt)
	case models.ModeMaxTimes:
		if ws := s.WindowStart(); !ws.IsZero() && now.Before(ws) {
			return false
		}
		return plateLoad <= f.PlateEmptyThreshold && feedsToday < s.MaxTimesPerDay
	default:
		return false
	}
}

// LatestDue returns the most recent daytime instant on or before now.
func (f FeedScheduler) LatestDue(s *models.Schedule, now time.Time) (time.Time, bool) {
	start := DayStart(now, f.Location)
	var (
		latest time.Time
		found  bool
	)
	for _, off := range s.Daytimes {
		at := start.Add(time.Duration(off) * time.Second)
		if at.After(now) {
			continue
		}
		if !found || at.After(latest) {
			latest, found = at, true
		}
	}
	return latest, found
}
