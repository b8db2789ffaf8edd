package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
	"pet_feeder/internal/repository"
)

const (
	maxScheduleName = 64
	maxDaytimes     = 24
	maxTimesPerDay  = 48
	secondsPerDay   = 24 * 60 * 60
)

type ScheduleService struct {
	repo  repository.ScheduleRepo
	ctrl  ControllerHandle
	clock engine.Clock
	log   *logger.Logger
}

func NewScheduleService(repo repository.ScheduleRepo, ctrl ControllerHandle, clock engine.Clock, log *logger.Logger) *ScheduleService {
	return &ScheduleService{repo: repo, ctrl: ctrl, clock: clock, log: log}
}

// normalizeParams validates p and returns a copy with trimmed name and
// sorted, unique daytimes.
func normalizeParams(p ScheduleParams) (ScheduleParams, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, invalid("name", "must not be empty")
	}
	if len(p.Name) > maxScheduleName {
		return p, invalid("name", fmt.Sprintf("longer than %d characters", maxScheduleName))
	}
	if !p.Mode.Valid() {
		return p, invalid("mode", fmt.Sprintf("unknown mode %d", p.Mode))
	}

	switch p.Mode {
	case models.ModeFixedDaytime:
		if len(p.Daytimes) == 0 {
			return p, invalid("daytimes", "at least one time is required")
		}
		d := slices.Clone(p.Daytimes)
		for _, v := range d {
			if v < 0 || v >= secondsPerDay {
				return p, invalid("daytimes", fmt.Sprintf("%d is outside the day", v))
			}
		}
		slices.Sort(d)
		d = slices.Compact(d)
		if len(d) > maxDaytimes {
			return p, invalid("daytimes", fmt.Sprintf("more than %d times", maxDaytimes))
		}
		p.Daytimes = d
		p.MaxTimesPerDay = 0
	case models.ModeMaxTimes:
		if p.MaxTimesPerDay < 1 || p.MaxTimesPerDay > maxTimesPerDay {
			return p, invalid("max_times_per_day", fmt.Sprintf("must be between 1 and %d", maxTimesPerDay))
		}
		p.Daytimes = nil
		p.OnlyWhenEmpty = false
	}
	return p, nil
}

func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	return s.repo.List(ctx)
}

func (s *ScheduleService) Get(ctx context.Context, id int64) (models.Schedule, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new, unselected schedule.
func (s *ScheduleService) Create(ctx context.Context, p ScheduleParams) (int64, error) {
	p, err := normalizeParams(p)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.Create(ctx, models.Schedule{
		CreatedOn:      s.now().Unix(),
		Name:           p.Name,
		Mode:           p.Mode,
		Active:         p.Active,
		Daytimes:       p.Daytimes,
		MaxTimesPerDay: p.MaxTimesPerDay,
		OnlyWhenEmpty:  p.OnlyWhenEmpty,
	})
	if err != nil {
		return 0, err
	}
	s.log.Infow("schedule_created", "id", id, "mode", p.Mode.String())
	return id, nil
}

// Update replaces the caller-editable fields. Changing the mode or the daily
// limit disarms a pending max-times window.
func (s *ScheduleService) Update(ctx context.Context, id int64, p ScheduleParams) error {
	p, err := normalizeParams(p)
	if err != nil {
		return err
	}
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	reset := cur.Mode != p.Mode || cur.MaxTimesPerDay != p.MaxTimesPerDay
	if reset {
		cur.MaxTimesWindowStart = 0
	}
	cur.Name = p.Name
	cur.Mode = p.Mode
	cur.Active = p.Active
	cur.Daytimes = p.Daytimes
	cur.MaxTimesPerDay = p.MaxTimesPerDay
	cur.OnlyWhenEmpty = p.OnlyWhenEmpty

	if err := s.repo.Update(ctx, cur); err != nil {
		return err
	}
	if reset {
		if err := s.repo.SetWindowStart(ctx, id, 0); err != nil {
			return err
		}
	}
	if cur.Selected {
		s.ctrl.ReplaceSchedule(&cur)
	}
	s.log.Infow("schedule_updated", "id", id)
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if cur.Selected {
		s.ctrl.ReplaceSchedule(nil)
	}
	s.log.Infow("schedule_deleted", "id", id)
	return nil
}

// SetSelected makes id the selected schedule, deselecting the previous one,
// and sets whether it is active. The control loop picks it up on its next
// tick.
func (s *ScheduleService) SetSelected(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetSelected(ctx, id, true); err != nil {
		return err
	}
	if !active {
		if err := s.repo.SetActive(ctx, id, false); err != nil {
			return err
		}
	}
	sel, err := s.repo.Selected(ctx)
	if err != nil {
		return err
	}
	s.ctrl.ReplaceSchedule(sel)
	s.log.Infow("schedule_selected", "id", id, "active", active)
	return nil
}

func (s *ScheduleService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
