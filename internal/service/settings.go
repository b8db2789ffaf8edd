package service

import (
	"context"
	"fmt"
	"strings"

	"pet_feeder/internal/models"
	"pet_feeder/internal/repository"
)

const (
	maxPlateFilling = 1000.0 // grams
	maxDoorAngle    = 180
)

type SettingsService struct {
	repo   repository.SettingsRepo
	ctrl   ControllerHandle
	scales Scales
}

func NewSettingsService(repo repository.SettingsRepo, ctrl ControllerHandle, scales Scales) *SettingsService {
	return &SettingsService{repo: repo, ctrl: ctrl, scales: scales}
}

func (s *SettingsService) GetUser(ctx context.Context) (models.UserSettings, error) {
	return s.repo.LoadUser(ctx)
}

// UpdateUser replaces the user settings as a whole; there is no partial
// update.
func (s *SettingsService) UpdateUser(ctx context.Context, u models.UserSettings) error {
	u.PetName = strings.TrimSpace(u.PetName)
	switch {
	case u.PlateFilling <= 0 || u.PlateFilling > maxPlateFilling:
		return invalid("plate_filling", fmt.Sprintf("must be in (0, %.0f] grams", maxPlateFilling))
	case u.PlateTare < 0:
		return invalid("plate_tare", "must not be negative")
	case u.Email != "" && !strings.Contains(u.Email, "@"):
		return invalid("email", "not an address")
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return err
	}
	s.ctrl.ReplaceUserSettings(u)
	return nil
}

func (s *SettingsService) GetSystem(_ context.Context) (models.SystemSettings, error) {
	return s.ctrl.SystemSettings(), nil
}

// SetDoorAngles stores the servo angles and applies them to the door.
func (s *SettingsService) SetDoorAngles(ctx context.Context, open, closed int) error {
	if open < 0 || open > maxDoorAngle {
		return invalid("door_angle_open", fmt.Sprintf("must be between 0 and %d", maxDoorAngle))
	}
	if closed < 0 || closed > maxDoorAngle {
		return invalid("door_angle_close", fmt.Sprintf("must be between 0 and %d", maxDoorAngle))
	}
	if open == closed {
		return invalid("door_angle_open", "must differ from the closed angle")
	}
	sys := s.ctrl.SystemSettings()
	sys.DoorAngleOpen, sys.DoorAngleClose = open, closed
	return applySystem(ctx, s.repo, s.ctrl, s.scales, sys)
}

// applySystem persists sys, then hands it to the hardware and the controller.
func applySystem(ctx context.Context, repo repository.SettingsRepo, ctrl ControllerHandle, scales Scales, sys models.SystemSettings) error {
	if err := repo.SaveSystem(ctx, sys); err != nil {
		return err
	}
	if scales != nil {
		scales.ApplyCalibration(sys)
	}
	ctrl.ReplaceSystemSettings(sys)
	return nil
}
