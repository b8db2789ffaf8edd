// Package notification delivers owner alerts raised by the control loop.
package notification

import (
	"context"
	"errors"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

// Message is the payload pushed to subscribers.
type Message struct {
	Kind  models.NotificationKind `json:"kind"`
	Title string                  `json:"title"`
	Body  string                  `json:"body"`
}

// MessageFor builds the human readable alert for kind.
func MessageFor(kind models.NotificationKind) Message {
	switch kind {
	case models.NotifyContainerEmpty:
		return Message{Kind: kind, Title: "Food container empty", Body: "Refill the container so the next meal can be served."}
	case models.NotifyDidNotEatInADay:
		return Message{Kind: kind, Title: "No meal yesterday", Body: "The feeder did not serve any food during the last day."}
	default:
		return Message{Kind: kind, Title: "Feeder alert", Body: string(kind)}
	}
}

// LogSink only writes alerts to the log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(_ context.Context, kind models.NotificationKind) error {
	m := MessageFor(kind)
	s.log.Infow("notification", "kind", kind, "title", m.Title)
	return nil
}

// Multi fans an alert out to every sink and joins their errors.
type Multi []engine.NotificationSink

func (m Multi) Notify(ctx context.Context, kind models.NotificationKind) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
