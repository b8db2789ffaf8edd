package service

import (
	"context"
	"time"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

type MonitoringService struct {
	ctrl ControllerHandle
}

func NewMonitoringService(ctrl ControllerHandle) *MonitoringService {
	return &MonitoringService{ctrl: ctrl}
}

// GetCurrentStatus returns the latest snapshot with timestamps in UTC.
func (s *MonitoringService) GetCurrentStatus(_ context.Context) (models.MachineStatus, error) {
	st := s.ctrl.GetCurrentStatus()
	st.LastFedAt = toUTC(st.LastFedAt)
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

type FeedingService struct {
	ctrl ControllerHandle
	log  *logger.Logger
}

func NewFeedingService(ctrl ControllerHandle, log *logger.Logger) *FeedingService {
	return &FeedingService{ctrl: ctrl, log: log}
}

// SetContainerOpen opens or closes the door on operator request. It fails
// with ErrConflict while an automatic feed runs.
func (s *FeedingService) SetContainerOpen(_ context.Context, open bool) error {
	if err := s.ctrl.RequestManualFeeding(open); err != nil {
		s.log.Infow("manual_feeding_rejected", "open", open, "err", err)
		return err
	}
	return nil
}
