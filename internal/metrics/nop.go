package metrics

import (
	"time"

	"pet_feeder/internal/engine"
)

// Nop discards every observation.
type Nop struct{}

var _ engine.Metrics = Nop{}

func (Nop) ObserveFeed(string)                           {}
func (Nop) IncMotorFailure()                             {}
func (Nop) IncNotification(string)                       {}
func (Nop) AddSamplesFlushed(int)                        {}
func (Nop) AddSamplesDropped(int)                        {}
func (Nop) SetLoopPeriod(time.Duration)                  {}
func (Nop) SetLoads(float64, float64)                    {}
func (Nop) ObserveRequest(string, string, time.Duration) {}
