package service

import (
	"context"
	"fmt"
	"math"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
	"pet_feeder/internal/repository"
)

type CalibrationService struct {
	repo   repository.SettingsRepo
	ctrl   ControllerHandle
	scales Scales
	log    *logger.Logger
}

func NewCalibrationService(repo repository.SettingsRepo, ctrl ControllerHandle, scales Scales, log *logger.Logger) *CalibrationService {
	return &CalibrationService{repo: repo, ctrl: ctrl, scales: scales, log: log}
}

func validScale(id models.ScaleID) error {
	if id != models.ScaleContainer && id != models.ScalePlate {
		return invalid("scale", "must be container or plate")
	}
	return nil
}

// Tare stores the current raw reading of an unloaded scale as its zero.
func (s *CalibrationService) Tare(ctx context.Context, id models.ScaleID) (models.SystemSettings, error) {
	if s.scales == nil {
		return models.SystemSettings{}, ErrNoScales
	}
	if err := validScale(id); err != nil {
		return models.SystemSettings{}, err
	}
	offset, err := s.scales.Tare(id)
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("tare %s: %w", id, err)
	}

	sys := s.ctrl.SystemSettings()
	if id == models.ScalePlate {
		sys.PlateOffset = offset
	} else {
		sys.ContainerOffset = offset
	}
	if err := applySystem(ctx, s.repo, s.ctrl, s.scales, sys); err != nil {
		return models.SystemSettings{}, err
	}
	s.log.Infow("scale_tared", "scale", id.String(), "offset", offset)
	return sys, nil
}

// Calibrate derives the scale factor from a known weight on a tared scale.
// A zero weight uses the stored calibration weight.
func (s *CalibrationService) Calibrate(ctx context.Context, id models.ScaleID, weight float64) (models.SystemSettings, error) {
	if s.scales == nil {
		return models.SystemSettings{}, ErrNoScales
	}
	if err := validScale(id); err != nil {
		return models.SystemSettings{}, err
	}
	sys := s.ctrl.SystemSettings()
	if weight == 0 {
		weight = sys.CalibrationWeight
	}
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return models.SystemSettings{}, invalid("weight", "must be a positive number of grams")
	}

	factor, err := s.scales.Calibrate(id, weight)
	if err != nil {
		return models.SystemSettings{}, fmt.Errorf("calibrate %s: %w", id, err)
	}
	if id == models.ScalePlate {
		sys.PlateScale = factor
	} else {
		sys.ContainerScale = factor
	}
	sys.CalibrationWeight = weight
	if err := applySystem(ctx, s.repo, s.ctrl, s.scales, sys); err != nil {
		return models.SystemSettings{}, err
	}
	s.log.Infow("scale_calibrated", "scale", id.String(), "factor", factor, "weight", weight)
	return sys, nil
}

// TarePlateWithPlate records the weight of the empty plate currently on the
// plate scale as the plate tare.
func (s *CalibrationService) TarePlateWithPlate(ctx context.Context) (models.UserSettings, error) {
	u, err := s.repo.LoadUser(ctx)
	if err != nil {
		return models.UserSettings{}, err
	}
	st := s.ctrl.GetCurrentStatus()
	// the status already has the old tare subtracted
	tare := math.Round((st.PlateLoad+u.PlateTare)*10) / 10
	if tare < 0 {
		tare = 0
	}
	u.PlateTare = tare
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return models.UserSettings{}, err
	}
	s.ctrl.ReplaceUserSettings(u)
	s.log.Infow("plate_tared", "tare", tare)
	return u, nil
}
