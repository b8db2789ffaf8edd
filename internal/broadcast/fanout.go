package broadcast

import (
	"pet_feeder/internal/engine"
	"pet_feeder/internal/models"
)

// Fanout forwards every frame to each publisher in order.
type Fanout []engine.StatusPublisher

func (f Fanout) Broadcast(frame models.StatusFrame) {
	for _, p := range f {
		p.Broadcast(frame)
	}
}
