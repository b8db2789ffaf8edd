package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pet_feeder/internal/models"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func hm(h, m int) int64 { return int64(h*3600 + m*60) }

func TestIsFeedPending_FixedDaytime(t *testing.T) {
	f := NewFeedScheduler(DefaultTuning())
	s := &models.Schedule{
		Mode:     models.ModeFixedDaytime,
		Active:   true,
		Daytimes: []int64{hm(8, 0), hm(12, 0), hm(18, 0)},
	}

	tests := []struct {
		name      string
		now       time.Time
		lastFedAt time.Time
		want      bool
	}{
		{"latest_due_after_last_feed", at(12, 30), at(7, 0), true},
		{"already_fed_after_latest_due", at(12, 30), at(12, 5), false},
		{"before_first_daytime", at(7, 59), at(0, 0), false},
		{"exact_instant_is_due", at(8, 0), at(7, 0), true},
		{"last_fed_equals_due_is_not_pending", at(8, 30), at(8, 0), false},
		{"twelve_missed_but_only_latest_counts", at(18, 30), at(9, 0), true},
		{"earlier_missed_instants_not_replayed", at(18, 45), at(18, 30), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsFeedPending(s, tt.now, tt.lastFedAt, 0, 50))
		})
	}
}

func TestIsFeedPending_Guards(t *testing.T) {
	f := NewFeedScheduler(DefaultTuning())
	assert.False(t, f.IsFeedPending(nil, at(12, 0), time.Time{}, 0, 0))

	inactive := &models.Schedule{Mode: models.ModeFixedDaytime, Daytimes: []int64{hm(8, 0)}}
	assert.False(t, f.IsFeedPending(inactive, at(12, 0), time.Time{}, 0, 0))

	empty := &models.Schedule{Mode: models.ModeFixedDaytime, Active: true}
	assert.False(t, f.IsFeedPending(empty, at(12, 0), time.Time{}, 0, 0))

	unknown := &models.Schedule{Mode: models.ScheduleMode(9), Active: true}
	assert.False(t, f.IsFeedPending(unknown, at(12, 0), time.Time{}, 0, 0))
}

func TestIsFeedPending_MaxTimes(t *testing.T) {
	f := NewFeedScheduler(DefaultTuning())
	s := &models.Schedule{Mode: models.ModeMaxTimes, Active: true, MaxTimesPerDay: 3}

	tests := []struct {
		name       string
		feedsToday int
		plate      float64
		window     int64
		want       bool
	}{
		{"empty_plate_under_max", 2, 0.5, 0, true},
		{"plate_at_threshold_counts_as_empty", 0, 1.0, 0, true},
		{"plate_not_empty", 0, 1.01, 0, false},
		{"max_reached", 3, 0, 0, false},
		{"window_not_open_yet", 0, 0, at(12, 1).Unix(), false},
		{"window_open", 0, 0, at(11, 0).Unix(), true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			sc := *s
			sc.MaxTimesWindowStart = tt.window
			assert.Equal(t, tt.want, f.IsFeedPending(&sc, at(12, 0), time.Time{}, tt.feedsToday, tt.plate))
		})
	}
}

func TestIsFeedPending_UsesConfiguredZone(t *testing.T) {
	tu := DefaultTuning()
	tu.Location = time.FixedZone("UTC+2", 2*3600)
	f := NewFeedScheduler(tu)
	s := &models.Schedule{Mode: models.ModeFixedDaytime, Active: true, Daytimes: []int64{hm(8, 0)}}

	// 06:30 UTC is 08:30 local.
	assert.True(t, f.IsFeedPending(s, at(6, 30), at(5, 0), 0, 0))
	// 05:30 UTC is 07:30 local.
	assert.False(t, f.IsFeedPending(s, at(5, 30), at(0, 0), 0, 0))
}
