package engine

import "time"

// AdaptiveSampler picks the delay before the next tick. Activity switches
// to the fast period at once; returning to normal needs a quiet cooldown.
type AdaptiveSampler struct {
	normal, fast, cooldown time.Duration

	period    time.Duration
	idleSince time.Time
}

// NewAdaptiveSampler starts at the normal period.
func NewAdaptiveSampler(t Tuning) *AdaptiveSampler {
	return &AdaptiveSampler{
		normal:   t.NormalPeriod,
		fast:     t.FastPeriod,
		cooldown: t.Cooldown,
		period:   t.NormalPeriod,
	}
}

// Update feeds one tick's observations and returns the next period.
func (s *AdaptiveSampler) Update(change WeightChange, doorOpen bool, now time.Time) time.Duration {
	if change != ChangeNone || doorOpen {
		s.period = s.fast
		s.idleSince = time.Time{}
		return s.period
	}
	if s.idleSince.IsZero() {
		s.idleSince = now
	}
	if now.Sub(s.idleSince) > s.cooldown {
		s.period = s.normal
	}
	return s.period
}

// Period returns the current delay.
func (s *AdaptiveSampler) Period() time.Duration { return s.period }

// Fast reports whether the sampler runs at the fast period.
func (s *AdaptiveSampler) Fast() bool { return s.period == s.fast && s.fast != s.normal }
