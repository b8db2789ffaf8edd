package engine

import (
	"math"
	"time"

	"pet_feeder/internal/models"
)

// WeightChange says which scales moved faster than the rate threshold.
type WeightChange int

const (
	ChangeNone WeightChange = iota
	ChangeOnlyContainer
	ChangeOnlyPlate
	ChangeBoth
)

func (w WeightChange) String() string {
	switch w {
	case ChangeOnlyContainer:
		return "container"
	case ChangeOnlyPlate:
		return "plate"
	case ChangeBoth:
		return "both"
	default:
		return "none"
	}
}

// Container reports whether the container scale changed.
func (w WeightChange) Container() bool { return w == ChangeOnlyContainer || w == ChangeBoth }

// Plate reports whether the plate scale changed.
func (w WeightChange) Plate() bool { return w == ChangeOnlyPlate || w == ChangeBoth }

// SignificanceDetector classifies weight deltas between two snapshots.
type SignificanceDetector struct {
	Threshold float64 // g/s
}

// Classify compares rates against the threshold with a strict comparison.
// A non-positive elapsed time yields ChangeNone.
func (d SignificanceDetector) Classify(prev, cur models.MachineStatus, elapsed time.Duration) WeightChange {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return ChangeNone
	}
	container := math.Abs(cur.ContainerLoad-prev.ContainerLoad)/secs > d.Threshold
	plate := math.Abs(cur.PlateLoad-prev.PlateLoad)/secs > d.Threshold
	switch {
	case container && plate:
		return ChangeBoth
	case container:
		return ChangeOnlyContainer
	case plate:
		return ChangeOnlyPlate
	default:
		return ChangeNone
	}
}
