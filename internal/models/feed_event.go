package models

import "time"

// EventType classifies entries of the feeding log.
type EventType string

const (
	EventFeed                   EventType = "FEED"
	EventMissedFeed             EventType = "MISSED_FEED"
	EventSkippedFeed            EventType = "SKIPPED_FEED"
	EventMotorFailure           EventType = "MOTOR_FAILURE"
	EventContainerEmpty         EventType = "CONTAINER_EMPTY"
	EventWiFiConnectionLost     EventType = "WIFI_CONNECTION_LOST"
	EventWiFiConnectionReturned EventType = "WIFI_CONNECTION_RETURNED"
	EventSDConnectionLost       EventType = "SD_CONNECTION_LOST"
	EventSDConnectionReturned   EventType = "SD_CONNECTION_RETURNED"
)

var eventTypes = map[EventType]struct{}{
	EventFeed: {}, EventMissedFeed: {}, EventSkippedFeed: {}, EventMotorFailure: {},
	EventContainerEmpty: {}, EventWiFiConnectionLost: {}, EventWiFiConnectionReturned: {},
	EventSDConnectionLost: {}, EventSDConnectionReturned: {},
}

// Known reports whether t is one of the declared event types.
func (t EventType) Known() bool {
	_, ok := eventTypes[t]
	return ok
}

// FeedEvent is a single entry of the append-only feeding log.
type FeedEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Message    string    `json:"message"`
}

// NotificationKind names an alert delivered to the owner.
type NotificationKind string

const (
	NotifyContainerEmpty  NotificationKind = "container_empty"
	NotifyDidNotEatInADay NotificationKind = "did_not_eat_in_a_day"
)
