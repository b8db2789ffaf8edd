package engine

import (
	"fmt"
	"math"
	"time"

	"pet_feeder/internal/models"
)

// FeedState is the phase of the automatic feeding state machine.
type FeedState int

const (
	StateIdle FeedState = iota
	StateOpening
	StateClosing
)

func (s FeedState) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateClosing:
		return "closing"
	default:
		return "idle"
	}
}

// Command is an actuator instruction produced by a step.
type Command int

const (
	CommandNone Command = iota
	CommandOpen
	CommandClose
)

// Outcome labels how a feeding attempt ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeStarted   Outcome = "started"
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
	OutcomeSkipped   Outcome = "skipped"
)

// FeedInput is everything one step looks at.
type FeedInput struct {
	Schedule     *models.Schedule
	Now          time.Time
	Status       models.MachineStatus
	PlateFilling float64
}

// FeedDecision is what the controller must apply after a step.
type FeedDecision struct {
	Command Command
	Outcome Outcome
	Event   *models.FeedEvent
	// ArmWindow is set when the daily maximum was reached and the schedule
	// must stay suppressed until this instant.
	ArmWindow time.Time
}

// FeedingStateMachine sequences automatic feeds. It is not safe for
// concurrent use; the controller serializes access.
type FeedingStateMachine struct {
	tuning    Tuning
	scheduler FeedScheduler

	state      FeedState
	target     float64
	hasTarget  bool
	lastFedAt  time.Time
	feedsToday int
}

// NewFeedingStateMachine starts idle with the given counters.
func NewFeedingStateMachine(t Tuning, lastFedAt time.Time, feedsToday int) *FeedingStateMachine {
	return &FeedingStateMachine{
		tuning:     t,
		scheduler:  NewFeedScheduler(t),
		lastFedAt:  lastFedAt,
		feedsToday: feedsToday,
	}
}

func (m *FeedingStateMachine) State() FeedState     { return m.state }
func (m *FeedingStateMachine) LastFedAt() time.Time { return m.lastFedAt }
func (m *FeedingStateMachine) FeedsToday() int      { return m.feedsToday }

// Target returns the plate weight the current feed fills up to.
func (m *FeedingStateMachine) Target() (float64, bool) { return m.target, m.hasTarget }

// ResetDay zeroes the daily feed counter.
func (m *FeedingStateMachine) ResetDay() { m.feedsToday = 0 }

// Step advances the machine by one tick.
func (m *FeedingStateMachine) Step(in FeedInput) FeedDecision {
	if m.state == StateClosing {
		m.state = StateIdle
	}
	switch m.state {
	case StateOpening:
		return m.stepOpening(in)
	default:
		return m.stepIdle(in)
	}
}

func (m *FeedingStateMachine) stepIdle(in FeedInput) FeedDecision {
	st := in.Status
	if st.ManualFeedingInProgress || st.DoorOpen {
		return FeedDecision{}
	}
	if !m.scheduler.IsFeedPending(in.Schedule, in.Now, m.lastFedAt, m.feedsToday, st.PlateLoad) {
		return FeedDecision{}
	}
	if st.ContainerLoad <= m.tuning.ContainerEmptyThreshold {
		return FeedDecision{}
	}
	if in.Schedule.Mode == models.ModeFixedDaytime && in.Schedule.OnlyWhenEmpty && st.PlateLoad > m.tuning.PlateEmptyThreshold {
		m.lastFedAt = in.Now
		ev := newEvent(models.EventSkippedFeed, in.Now, fmt.Sprintf("plate still holds %.1f g", st.PlateLoad))
		return FeedDecision{Outcome: OutcomeSkipped, Event: &ev}
	}

	m.target = math.Min(in.PlateFilling, st.PlateLoad+st.ContainerLoad) - m.tuning.SafetyWeightGap
	m.hasTarget = true
	m.state = StateOpening
	return FeedDecision{Command: CommandOpen, Outcome: OutcomeStarted}
}

func (m *FeedingStateMachine) stepOpening(in FeedInput) FeedDecision {
	st := in.Status
	switch {
	case st.PlateLoad >= m.target || st.ContainerLoad <= m.tuning.ContainerEmptyThreshold:
		m.feedsToday++
		m.lastFedAt = in.Now
		ev := newEvent(models.EventFeed, in.Now, fmt.Sprintf("dispensed up to %.1f g", st.PlateLoad))
		d := FeedDecision{Command: CommandClose, Outcome: OutcomeCompleted, Event: &ev}
		if s := in.Schedule; s != nil && s.Mode == models.ModeMaxTimes && m.feedsToday == s.MaxTimesPerDay {
			d.ArmWindow = DayStart(in.Now, m.tuning.location()).AddDate(0, 0, 1)
		}
		m.finish()
		return d
	case !st.MotorHealthy:
		m.lastFedAt = in.Now
		ev := newEvent(models.EventMissedFeed, in.Now, "door motor did not dispense food")
		m.finish()
		return FeedDecision{Command: CommandClose, Outcome: OutcomeAborted, Event: &ev}
	default:
		return FeedDecision{}
	}
}

func (m *FeedingStateMachine) finish() {
	m.state = StateClosing
	m.target = 0
	m.hasTarget = false
}
