package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pet_feeder/internal/models"
)

func TestClassify(t *testing.T) {
	d := SignificanceDetector{Threshold: 1}
	base := models.MachineStatus{ContainerLoad: 100, PlateLoad: 10}

	tests := []struct {
		name    string
		cur     models.MachineStatus
		elapsed time.Duration
		want    WeightChange
	}{
		{"no_change", base, time.Second, ChangeNone},
		{"exactly_threshold_is_not_significant", models.MachineStatus{ContainerLoad: 101, PlateLoad: 10}, time.Second, ChangeNone},
		{"container_just_above", models.MachineStatus{ContainerLoad: 101.0001, PlateLoad: 10}, time.Second, ChangeOnlyContainer},
		{"plate_drop", models.MachineStatus{ContainerLoad: 100, PlateLoad: 5}, time.Second, ChangeOnlyPlate},
		{"both", models.MachineStatus{ContainerLoad: 90, PlateLoad: 20}, time.Second, ChangeBoth},
		{"slow_drift_over_long_interval", models.MachineStatus{ContainerLoad: 103, PlateLoad: 10}, 5 * time.Second, ChangeNone},
		{"zero_elapsed", models.MachineStatus{ContainerLoad: 0, PlateLoad: 0}, 0, ChangeNone},
		{"negative_elapsed", models.MachineStatus{ContainerLoad: 0, PlateLoad: 0}, -time.Second, ChangeNone},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Classify(base, tt.cur, tt.elapsed))
		})
	}
}

func TestAdaptiveSampler(t *testing.T) {
	tu := DefaultTuning()
	s := NewAdaptiveSampler(tu)
	t0 := at(10, 0)

	assert.Equal(t, tu.NormalPeriod, s.Period())
	assert.Equal(t, tu.FastPeriod, s.Update(ChangeOnlyPlate, false, t0))
	assert.True(t, s.Fast())

	// quiet ticks stay fast until the cooldown has strictly elapsed
	assert.Equal(t, tu.FastPeriod, s.Update(ChangeNone, false, t0.Add(time.Second)))
	assert.Equal(t, tu.FastPeriod, s.Update(ChangeNone, false, t0.Add(6*time.Second)))
	assert.Equal(t, tu.NormalPeriod, s.Update(ChangeNone, false, t0.Add(6*time.Second+time.Millisecond)))
	assert.False(t, s.Fast())

	// an open door keeps the loop fast without weight change
	assert.Equal(t, tu.FastPeriod, s.Update(ChangeNone, true, t0.Add(10*time.Second)))
	assert.Equal(t, tu.FastPeriod, s.Update(ChangeNone, false, t0.Add(11*time.Second)))
}
