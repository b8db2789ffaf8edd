package service

import (
	"context"
	"strings"
	"time"

	"pet_feeder/internal/models"
	"pet_feeder/internal/repository"
)

const (
	defaultSampleLimit = 500
	maxSampleLimit     = 5000
)

type EventLogService struct {
	eventRepo repository.EventRepo
	scaleRepo repository.ScaleRepo
}

func NewEventLogService(eventRepo repository.EventRepo, scaleRepo repository.ScaleRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, scaleRepo: scaleRepo}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) models.EventType {
	return models.EventType(strings.TrimSpace(strings.ToUpper(s)))
}

func normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = normalizeToUTC(from), normalizeToUTC(to)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, invalid("time range", "from must not be after to")
	}
	return from, to, nil
}

// normalizeAndValidateFilter prepares query parameters and validates the
// time range and event type.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, models.EventType, error) {
	from, to, err := normalizeRange(f.From, f.To)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	typ := normalizeEventType(f.Type)
	if typ != "" && !typ.Known() {
		return time.Time{}, time.Time{}, "", invalid("type", "unknown event type "+string(typ))
	}
	return from, to, typ, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.FeedEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// Samples returns scale history; Limit is clamped to maxSampleLimit.
func (s *EventLogService) Samples(ctx context.Context, f ScaleFilter) ([]models.ScaleSample, error) {
	from, to, err := normalizeRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	q := repository.ScaleQuery{From: from, To: to, Limit: f.Limit}
	if name := strings.TrimSpace(strings.ToLower(f.Scale)); name != "" {
		id, ok := models.ParseScaleID(name)
		if !ok {
			return nil, invalid("scale", "must be container or plate")
		}
		q.Scale = &id
	}
	switch {
	case q.Limit < 0:
		return nil, invalid("limit", "must not be negative")
	case q.Limit == 0:
		q.Limit = defaultSampleLimit
	case q.Limit > maxSampleLimit:
		q.Limit = maxSampleLimit
	}
	return s.scaleRepo.List(ctx, q)
}
