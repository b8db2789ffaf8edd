package service

import (
	"context"
	"errors"
	"testing"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

type fakeRig struct {
	st      models.SimulatorState
	refills []float64
	plate   []float64
}

func (r *fakeRig) State() models.SimulatorState { return r.st }
func (r *fakeRig) SetJammed(v bool)             { r.st.Jammed = v }
func (r *fakeRig) SetContainerRemoved(v bool)   { r.st.ContainerRemoved = v }
func (r *fakeRig) SetStale(v bool)              { r.st.Stale = v }
func (r *fakeRig) SetEating(v bool)             { r.st.Eating = v }
func (r *fakeRig) SetDoorDetached(v bool)       { r.st.DoorDetached = v }
func (r *fakeRig) Refill(g float64) {
	r.refills = append(r.refills, g)
	r.st.ContainerGrams += g
}
func (r *fakeRig) PutOnPlate(g float64) {
	r.plate = append(r.plate, g)
	r.st.PlateGrams += g
}

type fakeOffline struct{ offline bool }

func (c *fakeOffline) Synced() bool      { return !c.offline }
func (c *fakeOffline) SetOffline(v bool) { c.offline = v }

func boolPtr(v bool) *bool { return &v }

func TestSimulatorService_SetFaultsChangesOnlyGivenFields(t *testing.T) {
	t.Parallel()

	rig := &fakeRig{st: models.SimulatorState{Eating: true}}
	clk := &fakeOffline{}
	svc := NewSimulatorService(rig, clk, logger.Nop())

	st, err := svc.SetFaults(context.Background(), SimulatorFaults{
		Jammed:       boolPtr(true),
		ClockOffline: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("SetFaults: %v", err)
	}
	if !st.Jammed || !st.ClockOffline || !st.Eating {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.ContainerRemoved || st.Stale || st.DoorDetached {
		t.Fatalf("untouched faults changed: %+v", st)
	}

	st, err = svc.SetFaults(context.Background(), SimulatorFaults{Eating: boolPtr(false), ClockOffline: boolPtr(false)})
	if err != nil {
		t.Fatalf("SetFaults: %v", err)
	}
	if !st.Jammed || st.Eating || st.ClockOffline {
		t.Fatalf("unexpected state after clearing: %+v", st)
	}
}

func TestSimulatorService_RefillAndPlate(t *testing.T) {
	t.Parallel()

	rig := &fakeRig{st: models.SimulatorState{ContainerGrams: 10}}
	svc := NewSimulatorService(rig, nil, logger.Nop())

	st, err := svc.Refill(context.Background(), 490)
	if err != nil {
		t.Fatalf("Refill: %v", err)
	}
	if st.ContainerGrams != 500 {
		t.Fatalf("container = %.1f, want 500", st.ContainerGrams)
	}

	var ve *ValidationError
	if _, err := svc.Refill(context.Background(), -5); !errors.As(err, &ve) || ve.Field != "grams" {
		t.Fatalf("want grams validation error, got %v", err)
	}
	if _, err := svc.PutOnPlate(context.Background(), 0); !errors.As(err, &ve) {
		t.Fatalf("want validation error for zero grams, got %v", err)
	}
	if _, err := svc.PutOnPlate(context.Background(), -3); err != nil {
		t.Fatalf("PutOnPlate: %v", err)
	}
	if len(rig.refills) != 1 || len(rig.plate) != 1 || rig.plate[0] != -3 {
		t.Fatalf("rig calls: refills=%v plate=%v", rig.refills, rig.plate)
	}
}

func TestSimulatorService_WithoutRig(t *testing.T) {
	t.Parallel()

	svc := NewSimulatorService(nil, nil, logger.Nop())
	if _, err := svc.SimulatorState(context.Background()); !errors.Is(err, ErrNoSimulator) {
		t.Fatalf("want ErrNoSimulator, got %v", err)
	}
	if _, err := svc.Refill(context.Background(), 1); !errors.Is(err, ErrNoSimulator) {
		t.Fatalf("want ErrNoSimulator, got %v", err)
	}

	withRig := NewSimulatorService(&fakeRig{}, nil, logger.Nop())
	var ve *ValidationError
	if _, err := withRig.SetFaults(context.Background(), SimulatorFaults{ClockOffline: boolPtr(true)}); !errors.As(err, &ve) {
		t.Fatalf("want validation error without a clock switch, got %v", err)
	}
}
