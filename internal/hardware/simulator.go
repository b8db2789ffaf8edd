// Package hardware simulates the feeder's load cells and door servo so the
// control loop can run without the physical device.
package hardware

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/models"
)

// ----------- Simulation defaults -----------
const (
	DefaultContainerGrams = 1500.0 // food in the container at start
	DefaultFlowRate       = 8.0    // g/s through the open door
	DefaultEatRate        = 0.5    // g/s while the pet is eating
	DefaultVesselWeight   = 350.0  // empty container, missing when it is lifted off
	DefaultRawFactor      = 1.0    // raw counts per gram of the simulated load cells
	tareSamples           = 10     // readings averaged by Tare and Calibrate
)

var (
	ErrUnknownScale   = errors.New("unknown scale")
	ErrInvalidWeight  = errors.New("calibration weight must be positive")
	ErrNoLoadOnScale  = errors.New("no load on scale")
	ErrDoorDisengaged = errors.New("door servo disengaged")
)

// Config parameterises the simulated physics.
type Config struct {
	ContainerGrams float64
	FlowRate       float64
	EatRate        float64
	VesselWeight   float64
	// RawFactor and RawZero describe the uncalibrated load cell:
	// raw = grams*RawFactor + RawZero.
	RawFactor float64
	RawZero   int64
}

func (c Config) withDefaults() Config {
	if c.FlowRate <= 0 {
		c.FlowRate = DefaultFlowRate
	}
	if c.EatRate < 0 {
		c.EatRate = 0
	}
	if c.VesselWeight <= 0 {
		c.VesselWeight = DefaultVesselWeight
	}
	if c.RawFactor == 0 {
		c.RawFactor = DefaultRawFactor
	}
	return c
}

// Rig is a simulated feeder. It advances its physics lazily on every read
// using the injected clock.
type Rig struct {
	mu    sync.Mutex
	clock engine.Clock
	cfg   Config
	cal   models.SystemSettings

	container float64 // true grams in the container
	plate     float64 // true grams on the plate scale, plate vessel included
	doorOpen  bool
	angle     int
	eating    bool
	jammed    bool
	removed   bool
	stale     bool
	detached  bool
	last      time.Time
}

var (
	_ engine.SensorPort   = (*Rig)(nil)
	_ engine.ActuatorPort = (*Rig)(nil)
)

func NewRig(clock engine.Clock, cfg Config) *Rig {
	cfg = cfg.withDefaults()
	cal := models.DefaultSystemSettings()
	return &Rig{
		clock:     clock,
		cfg:       cfg,
		cal:       cal,
		container: cfg.ContainerGrams,
		angle:     cal.DoorAngleClose,
		eating:    cfg.EatRate > 0,
		last:      clock.Now(),
	}
}

// advance moves food according to the time elapsed since the last call.
// Caller holds r.mu.
func (r *Rig) advance() {
	now := r.clock.Now()
	dt := now.Sub(r.last).Seconds()
	r.last = now
	if dt <= 0 {
		return
	}
	if r.doorOpen && !r.jammed && !r.removed {
		moved := math.Min(r.container, r.cfg.FlowRate*dt)
		r.container -= moved
		r.plate += moved
	}
	if r.eating && r.plate > 0 {
		r.plate -= math.Min(r.plate, r.cfg.EatRate*dt)
	}
}

func (r *Rig) trueGrams(id models.ScaleID) float64 {
	if id == models.ScalePlate {
		return r.plate
	}
	if r.removed {
		return -r.cfg.VesselWeight
	}
	return r.container
}

func (r *Rig) raw(id models.ScaleID) int64 {
	return int64(math.Round(r.trueGrams(id)*r.cfg.RawFactor)) + r.cfg.RawZero
}

func (r *Rig) calibration(id models.ScaleID) (scale float64, offset int64) {
	if id == models.ScalePlate {
		return r.cal.PlateScale, r.cal.PlateOffset
	}
	return r.cal.ContainerScale, r.cal.ContainerOffset
}

func (r *Rig) read(id models.ScaleID) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	scale, offset := r.calibration(id)
	if scale == 0 {
		scale = 1
	}
	grams := float64(r.raw(id)-offset) / scale
	return math.Round(grams*10) / 10, !r.stale
}

func (r *Rig) ReadContainerLoad() (float64, bool) { return r.read(models.ScaleContainer) }

func (r *Rig) ReadPlateLoad() (float64, bool) { return r.read(models.ScalePlate) }

// Open swings the door to the calibrated open angle.
func (r *Rig) Open() error {
	return r.moveDoor(true)
}

// Close swings the door to the calibrated closed angle.
func (r *Rig) Close() error {
	return r.moveDoor(false)
}

func (r *Rig) moveDoor(open bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	if r.detached {
		return ErrDoorDisengaged
	}
	r.doorOpen = open
	if open {
		r.angle = r.cal.DoorAngleOpen
	} else {
		r.angle = r.cal.DoorAngleClose
	}
	return nil
}

// DoorAngle returns the last commanded servo angle in degrees.
func (r *Rig) DoorAngle() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.angle
}

// Tare averages raw readings of an unloaded scale and returns the offset to
// store as its zero point.
func (r *Rig) Tare(id models.ScaleID) (int64, error) {
	if id != models.ScaleContainer && id != models.ScalePlate {
		return 0, fmt.Errorf("tare %d: %w", id, ErrUnknownScale)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	var sum int64
	for i := 0; i < tareSamples; i++ {
		sum += r.raw(id)
	}
	return sum / tareSamples, nil
}

// Calibrate returns the raw-counts-per-gram factor with weight grams placed
// on a scale that was tared before.
func (r *Rig) Calibrate(id models.ScaleID, weight float64) (float64, error) {
	if id != models.ScaleContainer && id != models.ScalePlate {
		return 0, fmt.Errorf("calibrate %d: %w", id, ErrUnknownScale)
	}
	if weight <= 0 {
		return 0, ErrInvalidWeight
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	_, offset := r.calibration(id)
	var sum int64
	for i := 0; i < tareSamples; i++ {
		sum += r.raw(id) - offset
	}
	factor := float64(sum) / tareSamples / weight
	if factor == 0 {
		return 0, fmt.Errorf("calibrate %s: %w", id, ErrNoLoadOnScale)
	}
	return factor, nil
}

// ApplyCalibration installs new scale factors, offsets and door angles.
func (r *Rig) ApplyCalibration(s models.SystemSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	r.cal = s
	if r.doorOpen {
		r.angle = s.DoorAngleOpen
	} else {
		r.angle = s.DoorAngleClose
	}
}

// ---- fault injection and scenario controls ----

// State reports the simulated physics. ClockOffline is left to the caller.
func (r *Rig) State() models.SimulatorState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	return models.SimulatorState{
		ContainerGrams:   math.Round(r.container*10) / 10,
		PlateGrams:       math.Round(r.plate*10) / 10,
		DoorOpen:         r.doorOpen,
		DoorAngle:        r.angle,
		Eating:           r.eating,
		Jammed:           r.jammed,
		ContainerRemoved: r.removed,
		Stale:            r.stale,
		DoorDetached:     r.detached,
	}
}

// SetJammed blocks food flow while the door is open.
func (r *Rig) SetJammed(v bool) { r.set(func() { r.jammed = v }) }

// SetContainerRemoved lifts the container off its load cell.
func (r *Rig) SetContainerRemoved(v bool) { r.set(func() { r.removed = v }) }

// SetStale makes both load cells report stale readings.
func (r *Rig) SetStale(v bool) { r.set(func() { r.stale = v }) }

// SetEating starts or stops the pet eating from the plate.
func (r *Rig) SetEating(v bool) { r.set(func() { r.eating = v }) }

// SetDoorDetached makes door commands fail.
func (r *Rig) SetDoorDetached(v bool) { r.set(func() { r.detached = v }) }

// Refill adds grams of food to the container.
func (r *Rig) Refill(grams float64) { r.set(func() { r.container += grams }) }

// PutOnPlate adds weight on the plate scale, a calibration weight or the
// empty plate itself. Negative grams remove weight.
func (r *Rig) PutOnPlate(grams float64) {
	r.set(func() { r.plate = math.Max(0, r.plate+grams) })
}

func (r *Rig) set(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance()
	fn()
}
