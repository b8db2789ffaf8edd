package engine

import (
	"time"

	"pet_feeder/internal/models"
)

type emptyEpisode int

const (
	episodeIdle emptyEpisode = iota
	episodePending
	episodeFired
)

// Evaluation is what the NotificationEvaluator decided for one tick.
type Evaluation struct {
	Notify        []models.NotificationKind
	Events        []models.FeedEvent
	DayRolledOver bool
}

// NotificationEvaluator turns status transitions into owner alerts.
//
// A container-empty alert needs the falling edge into the empty band
// followed by one more tick still inside it, and fires once per episode.
// A refill ends the episode. Readings at or below the no-container level
// mean the container was lifted off and never alert.
type NotificationEvaluator struct {
	empty, noContainer float64
	loc                *time.Location

	episode emptyEpisode
}

// NewNotificationEvaluator builds an evaluator from tuning.
func NewNotificationEvaluator(t Tuning) *NotificationEvaluator {
	return &NotificationEvaluator{
		empty:       t.ContainerEmptyThreshold,
		noContainer: t.NoContainerThreshold,
		loc:         t.location(),
	}
}

func (n *NotificationEvaluator) inEmptyBand(load float64) bool {
	return load <= n.empty && load > n.noContainer
}

// Evaluate inspects the transition prev to cur. feedsToday is the count
// before any day reset.
func (n *NotificationEvaluator) Evaluate(prev, cur models.MachineStatus, prevAt, now time.Time, feedsToday int, settings models.UserSettings) Evaluation {
	var out Evaluation

	switch n.episode {
	case episodeIdle:
		if prev.ContainerLoad > n.empty && n.inEmptyBand(cur.ContainerLoad) {
			n.episode = episodePending
		}
	case episodePending:
		switch {
		case n.inEmptyBand(cur.ContainerLoad):
			n.episode = episodeFired
			out.Events = append(out.Events, newEvent(models.EventContainerEmpty, now, "food container is empty"))
			if settings.Notifications.ContainerEmpty.Active {
				out.Notify = append(out.Notify, models.NotifyContainerEmpty)
			}
		default:
			n.episode = episodeIdle
		}
	case episodeFired:
		if cur.ContainerLoad > n.empty {
			n.episode = episodeIdle
		}
	}

	if !prevAt.IsZero() && DayStart(now, n.loc).After(DayStart(prevAt, n.loc)) {
		out.DayRolledOver = true
		if feedsToday == 0 && settings.Notifications.DidNotEatInADay.Active {
			out.Notify = append(out.Notify, models.NotifyDidNotEatInADay)
		}
	}
	return out
}
