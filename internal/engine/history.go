package engine

import (
	"context"
	"fmt"
	"time"

	"pet_feeder/internal/models"
)

// SampleStore persists scale samples in batches.
type SampleStore interface {
	AppendScaleSamples(ctx context.Context, samples []models.ScaleSample) error
}

var scales = [...]models.ScaleID{models.ScaleContainer, models.ScalePlate}

// HistoryBuffer queues samples per scale and flushes them in batches.
// At the normal period every non-empty queue is flushed each tick; at the
// fast period a queue is flushed once it is full. A queue is cleared only
// after the store confirms the append.
type HistoryBuffer struct {
	max     int
	queues  map[models.ScaleID][]models.ScaleSample
	dropped int
}

// NewHistoryBuffer returns a buffer holding at most max samples per scale.
func NewHistoryBuffer(max int) *HistoryBuffer {
	if max <= 0 {
		max = 1
	}
	return &HistoryBuffer{max: max, queues: make(map[models.ScaleID][]models.ScaleSample, len(scales))}
}

// Record enqueues one sample per scale named by change and returns them.
func (b *HistoryBuffer) Record(change WeightChange, st models.MachineStatus, at time.Time) []models.ScaleSample {
	var out []models.ScaleSample
	if change.Container() {
		out = append(out, models.ScaleSample{ScaleID: models.ScaleContainer, CreatedOn: at, Value: st.ContainerLoad})
	}
	if change.Plate() {
		out = append(out, models.ScaleSample{ScaleID: models.ScalePlate, CreatedOn: at, Value: st.PlateLoad})
	}
	for _, s := range out {
		b.Add(s)
	}
	return out
}

// Add enqueues a sample. When the queue is already full the oldest sample
// is dropped and Add returns true.
func (b *HistoryBuffer) Add(s models.ScaleSample) bool {
	q := b.queues[s.ScaleID]
	dropped := false
	if len(q) >= b.max {
		q = q[1:]
		b.dropped++
		dropped = true
	}
	b.queues[s.ScaleID] = append(q, s)
	return dropped
}

// Flush writes the queues allowed by the current period. It returns the
// number of samples confirmed by the store and the first error seen.
func (b *HistoryBuffer) Flush(ctx context.Context, store SampleStore, fast bool) (int, error) {
	var (
		flushed  int
		firstErr error
	)
	for _, id := range scales {
		q := b.queues[id]
		if len(q) == 0 || (fast && len(q) < b.max) {
			continue
		}
		batch := append([]models.ScaleSample(nil), q...)
		if err := store.AppendScaleSamples(ctx, batch); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("flush %s history: %w", id, err)
			}
			continue
		}
		b.queues[id] = q[:0:0]
		flushed += len(batch)
	}
	return flushed, firstErr
}

// Len returns the queued sample count of a scale.
func (b *HistoryBuffer) Len(id models.ScaleID) int { return len(b.queues[id]) }

// Dropped returns how many samples were discarded since start.
func (b *HistoryBuffer) Dropped() int { return b.dropped }
