package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

func TestMonitoringService_GetCurrentStatus(t *testing.T) {
	t.Parallel()

	local := time.FixedZone("UTC+1", 3600)
	ctrl := newFakeController()
	ctrl.status = models.MachineStatus{
		ContainerLoad: 812.5,
		PlateLoad:     3.1,
		DoorOpen:      true,
		FeedsToday:    2,
		LastFedAt:     time.Date(2025, 5, 1, 8, 0, 0, 0, local),
		UpdatedAt:     time.Date(2025, 5, 1, 9, 30, 0, 0, local),
	}
	svc := NewMonitoringService(ctrl)

	got, err := svc.GetCurrentStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ContainerLoad != 812.5 || !got.DoorOpen || got.FeedsToday != 2 {
		t.Fatalf("snapshot not passed through: %+v", got)
	}
	if got.LastFedAt.Location() != time.UTC || got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("timestamps not normalized to UTC: %v %v", got.LastFedAt, got.UpdatedAt)
	}
	if got.UpdatedAt.Hour() != 8 || got.UpdatedAt.Minute() != 30 {
		t.Fatalf("instant changed: %v", got.UpdatedAt)
	}
}

func TestMonitoringService_NeverFedStaysZero(t *testing.T) {
	t.Parallel()
	svc := NewMonitoringService(newFakeController())

	got, err := svc.GetCurrentStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.LastFedAt.IsZero() {
		t.Fatalf("zero LastFedAt became %v", got.LastFedAt)
	}
}

func TestFeedingService_SetContainerOpen(t *testing.T) {
	t.Parallel()

	ctrl := newFakeController()
	svc := NewFeedingService(ctrl, logger.Nop())

	if err := svc.SetContainerOpen(context.Background(), true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := svc.SetContainerOpen(context.Background(), false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(ctrl.manualCalls) != 2 || !ctrl.manualCalls[0] || ctrl.manualCalls[1] {
		t.Fatalf("manual calls = %v", ctrl.manualCalls)
	}
}

func TestFeedingService_ConflictPropagates(t *testing.T) {
	t.Parallel()

	ctrl := newFakeController()
	ctrl.manualErr = ErrConflict
	svc := NewFeedingService(ctrl, logger.Nop())

	if err := svc.SetContainerOpen(context.Background(), true); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}
