package engine

import "errors"

var (
	// ErrConflict is returned when manual feeding is requested while an
	// automatic feed is in progress.
	ErrConflict = errors.New("automatic feeding in progress")

	// ErrSensorStale marks a load cell that did not deliver a fresh reading.
	ErrSensorStale = errors.New("sensor reading is stale")

	// ErrStoreUnavailable wraps persistence failures that prevent start-up.
	ErrStoreUnavailable = errors.New("persistence store unavailable")
)
