package engine

import (
	"time"

	"github.com/google/uuid"

	"pet_feeder/internal/models"
)

func newEvent(t models.EventType, at time.Time, msg string) models.FeedEvent {
	return models.FeedEvent{ID: uuid.NewString(), Type: t, OccurredAt: at, Message: msg}
}

// eventQueue keeps events until the store accepts them, oldest first.
type eventQueue struct {
	max     int
	items   []models.FeedEvent
	dropped int
}

func (q *eventQueue) push(e models.FeedEvent) {
	if q.max > 0 && len(q.items) >= q.max {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, e)
}

func (q *eventQueue) len() int { return len(q.items) }
