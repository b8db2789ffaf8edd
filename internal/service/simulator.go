package service

import (
	"context"
	"errors"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

// ErrNoSimulator is returned when the feeder runs without the simulated rig.
var ErrNoSimulator = errors.New("simulator not available")

// SimulatorRig is the scenario control surface of hardware.Rig.
type SimulatorRig interface {
	State() models.SimulatorState
	SetJammed(v bool)
	SetContainerRemoved(v bool)
	SetStale(v bool)
	SetEating(v bool)
	SetDoorDetached(v bool)
	Refill(grams float64)
	PutOnPlate(grams float64)
}

// OfflineSwitch toggles the time-sync state of hardware.Clock.
type OfflineSwitch interface {
	Synced() bool
	SetOffline(v bool)
}

// SimulatorFaults changes the fields that are set and leaves nil ones alone.
type SimulatorFaults struct {
	Jammed           *bool
	ContainerRemoved *bool
	Stale            *bool
	Eating           *bool
	DoorDetached     *bool
	ClockOffline     *bool
}

type SimulatorService struct {
	rig     SimulatorRig
	offline OfflineSwitch
	log     *logger.Logger
}

func NewSimulatorService(rig SimulatorRig, offline OfflineSwitch, log *logger.Logger) *SimulatorService {
	return &SimulatorService{rig: rig, offline: offline, log: log}
}

func (s *SimulatorService) SimulatorState(_ context.Context) (models.SimulatorState, error) {
	if s.rig == nil {
		return models.SimulatorState{}, ErrNoSimulator
	}
	return s.state(), nil
}

func (s *SimulatorService) state() models.SimulatorState {
	st := s.rig.State()
	if s.offline != nil {
		st.ClockOffline = !s.offline.Synced()
	}
	return st
}

// SetFaults injects or clears faults on the rig.
func (s *SimulatorService) SetFaults(_ context.Context, f SimulatorFaults) (models.SimulatorState, error) {
	if s.rig == nil {
		return models.SimulatorState{}, ErrNoSimulator
	}
	if f.ClockOffline != nil && s.offline == nil {
		return models.SimulatorState{}, invalid("clock_offline", "clock cannot go offline")
	}
	apply := func(v *bool, set func(bool)) {
		if v != nil {
			set(*v)
		}
	}
	apply(f.Jammed, s.rig.SetJammed)
	apply(f.ContainerRemoved, s.rig.SetContainerRemoved)
	apply(f.Stale, s.rig.SetStale)
	apply(f.Eating, s.rig.SetEating)
	apply(f.DoorDetached, s.rig.SetDoorDetached)
	if f.ClockOffline != nil {
		s.offline.SetOffline(*f.ClockOffline)
	}

	st := s.state()
	s.log.Infow("simulator_faults_set",
		"jammed", st.Jammed,
		"container_removed", st.ContainerRemoved,
		"stale", st.Stale,
		"eating", st.Eating,
		"door_detached", st.DoorDetached,
		"clock_offline", st.ClockOffline)
	return st, nil
}

// Refill pours grams of food into the container.
func (s *SimulatorService) Refill(_ context.Context, grams float64) (models.SimulatorState, error) {
	if s.rig == nil {
		return models.SimulatorState{}, ErrNoSimulator
	}
	if grams <= 0 {
		return models.SimulatorState{}, invalid("grams", "must be positive")
	}
	s.rig.Refill(grams)
	s.log.Infow("simulator_refilled", "grams", grams)
	return s.state(), nil
}

// PutOnPlate adds weight to the plate scale; negative grams take it away.
func (s *SimulatorService) PutOnPlate(_ context.Context, grams float64) (models.SimulatorState, error) {
	if s.rig == nil {
		return models.SimulatorState{}, ErrNoSimulator
	}
	if grams == 0 {
		return models.SimulatorState{}, invalid("grams", "must not be zero")
	}
	s.rig.PutOnPlate(grams)
	return s.state(), nil
}
