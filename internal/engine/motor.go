package engine

import (
	"context"
	"sync"
	"time"
)

// Direction is the door movement a motor check verifies.
type Direction int

const (
	DirectionOpening Direction = iota
	DirectionClosing
)

func (d Direction) String() string {
	if d == DirectionClosing {
		return "closing"
	}
	return "opening"
}

// MotorCheck is the context of one door command.
type MotorCheck struct {
	ContainerLoad float64
	Direction     Direction
	IssuedAt      time.Time
}

// Healthy decides the verdict for a load observed wait after the command.
// An opening door must drain the container at least at threshold g/s.
// A closing door must not let the container lose threshold grams or more.
func (c MotorCheck) Healthy(current float64, wait time.Duration, threshold float64) bool {
	delta := current - c.ContainerLoad
	if c.Direction == DirectionClosing {
		return delta > -threshold
	}
	secs := wait.Seconds()
	if secs <= 0 {
		return true
	}
	return delta/secs <= -threshold
}

// MotorMonitor runs at most one deferred check at a time. Spawning a new
// check invalidates the previous one before it can write its verdict.
type MotorMonitor struct {
	wait      time.Duration
	threshold float64
	read      func() float64

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	healthy bool
	last    *MotorCheck
}

// NewMotorMonitor returns a monitor that reads the container load through
// read. read must not block on locks held by callers of Spawn.
func NewMotorMonitor(wait time.Duration, threshold float64, read func() float64) *MotorMonitor {
	return &MotorMonitor{wait: wait, threshold: threshold, read: read, healthy: true}
}

// Spawn cancels the live check, waits for it to exit and starts a new one.
// The verdict is reset to healthy until the new check completes.
func (m *MotorMonitor) Spawn(ctx context.Context, check MotorCheck) {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	prev := m.done
	m.gen++
	gen := m.gen
	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	m.healthy = true
	m.last = &check
	m.mu.Unlock()

	if prev != nil {
		<-prev
	}
	go m.run(cctx, gen, check, done)
}

func (m *MotorMonitor) run(ctx context.Context, gen uint64, check MotorCheck, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	healthy := check.Healthy(m.read(), m.wait, m.threshold)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.healthy = healthy
	m.cancel()
	m.cancel = nil
}

// Healthy returns the latest verdict.
func (m *MotorMonitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// LastCheck returns the check of the most recent command.
func (m *MotorMonitor) LastCheck() (MotorCheck, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return MotorCheck{}, false
	}
	return *m.last, true
}

// Stop cancels the live check and waits for it to exit.
func (m *MotorMonitor) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}
