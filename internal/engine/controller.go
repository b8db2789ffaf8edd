package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"pet_feeder/internal/models"
)

// Deps are the collaborators of a Controller. Sink, Publisher, Metrics,
// Clock and Log are optional.
type Deps struct {
	Clock     Clock
	Sensors   SensorPort
	Actuator  ActuatorPort
	Store     PersistenceGateway
	Sink      NotificationSink
	Publisher StatusPublisher
	Metrics   Metrics
	Log       Logger
}

// Controller owns the feeder state and runs the control loop.
//
// A tick has a decision phase under mu (sensors, scheduler, state machine,
// actuator, motor monitor) and an I/O phase outside it (history, events,
// notifications, broadcast). Outward calls only ever take mu.
type Controller struct {
	clock     Clock
	sensors   SensorPort
	actuator  ActuatorPort
	store     PersistenceGateway
	sink      NotificationSink
	publisher StatusPublisher
	metrics   Metrics
	log       Logger
	tuning    Tuning

	detector SignificanceDetector
	sampler  *AdaptiveSampler
	history  *HistoryBuffer
	notifier *NotificationEvaluator
	motor    *MotorMonitor

	// containerLoad mirrors status.ContainerLoad for the motor monitor.
	containerLoad atomic.Uint64

	mu         sync.Mutex
	status     models.MachineStatus
	schedule   *models.Schedule
	system     models.SystemSettings
	user       models.UserSettings
	fsm        *FeedingStateMachine
	events     eventQueue
	tickEvents []models.FeedEvent
	armed      *windowArm
	monitorCtx context.Context

	// owned by the loop goroutine
	prev           models.MachineStatus
	prevAt         time.Time
	staleContainer int
	stalePlate     int
	storeFailures  int
	unsynced       int
	dropped        int
}

// windowArm is a max-times window start waiting to be persisted.
type windowArm struct {
	id    int64
	start int64
}

// NewController wires a controller. Call Init before Run.
func NewController(d Deps, t Tuning) *Controller {
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.Sink == nil {
		d.Sink = nopSink{}
	}
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	c := &Controller{
		clock:      d.Clock,
		sensors:    d.Sensors,
		actuator:   d.Actuator,
		store:      d.Store,
		sink:       d.Sink,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		log:        d.Log,
		tuning:     t,
		detector:   SignificanceDetector{Threshold: t.WeightRateThreshold},
		sampler:    NewAdaptiveSampler(t),
		history:    NewHistoryBuffer(t.MaxHistoryBuffer),
		notifier:   NewNotificationEvaluator(t),
		fsm:        NewFeedingStateMachine(t, time.Time{}, 0),
		events:     eventQueue{max: t.MaxHistoryBuffer},
		monitorCtx: context.Background(),
		user:       models.DefaultUserSettings(),
		system:     models.DefaultSystemSettings(),
	}
	c.motor = NewMotorMonitor(t.MotorCheckWait, t.WeightRateThreshold, c.loadedContainer)
	return c
}

func (c *Controller) loadedContainer() float64 {
	return math.Float64frombits(c.containerLoad.Load())
}

// Init loads schedule, settings and today's feed count. Only a schedule
// store failure is fatal.
func (c *Controller) Init(ctx context.Context) error {
	now := c.clock.Now()

	sched, err := c.store.LoadSelectedSchedule(ctx)
	if err != nil {
		return fmt.Errorf("load selected schedule: %w: %w", ErrStoreUnavailable, err)
	}
	sys, err := c.store.LoadSystemSettings(ctx)
	if err != nil {
		c.log.Warnw("system_settings_load_failed", "err", err)
		sys = models.DefaultSystemSettings()
	}
	user, err := c.store.LoadUserSettings(ctx)
	if err != nil {
		c.log.Warnw("user_settings_load_failed", "err", err)
		user = models.DefaultUserSettings()
	}
	start := DayStart(now, c.tuning.location())
	feeds, err := c.store.CountFeedsBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		c.log.Warnw("feed_count_load_failed", "err", err)
		feeds = 0
	}
	container, _ := c.sensors.ReadContainerLoad()
	plate, _ := c.sensors.ReadPlateLoad()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedule = sched.Clone()
	c.system = sys
	c.user = user
	// lastFedAt starts at boot so daytimes that already passed are not replayed.
	c.fsm = NewFeedingStateMachine(c.tuning, now, feeds)
	c.status = models.MachineStatus{
		ContainerLoad: container,
		PlateLoad:     plate - user.PlateTare,
		MotorHealthy:  true,
		SDOk:          true,
		WiFiOk:        true,
		ScalesOk:      true,
		FeedsToday:    feeds,
		LastFedAt:     now,
		UpdatedAt:     now,
	}
	c.containerLoad.Store(math.Float64bits(container))
	c.prev, c.prevAt = c.status, now

	c.log.Infow("controller_initialized",
		"schedule_selected", sched != nil,
		"feeds_today", feeds,
		"container_g", container,
		"plate_g", c.status.PlateLoad)
	return nil
}

// Run ticks until ctx is cancelled, then closes the door.
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	c.monitorCtx = ctx
	c.mu.Unlock()

	timer := time.NewTimer(c.Tick(ctx))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-timer.C:
			timer.Reset(c.Tick(ctx))
		}
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	if c.status.DoorOpen {
		if err := c.actuator.Close(); err != nil {
			c.log.Errorw("door_close_on_shutdown_failed", "err", err)
		}
		c.status.DoorOpen = false
		c.status.AutomaticFeedingInProgress = false
		c.status.ManualFeedingInProgress = false
	}
	c.mu.Unlock()
	c.motor.Stop()
	c.log.Infow("controller_stopped")
}

// Tick runs one control iteration and returns the delay before the next.
func (c *Controller) Tick(ctx context.Context) time.Duration {
	now := c.clock.Now()
	container, containerFresh := c.sensors.ReadContainerLoad()
	plate, plateFresh := c.sensors.ReadPlateLoad()

	// decision phase
	c.mu.Lock()
	cur := c.status
	cur.UpdatedAt = now
	c.applyReadings(&cur, container, containerFresh, plate, plateFresh)
	c.containerLoad.Store(math.Float64bits(cur.ContainerLoad))

	healthy := c.motor.Healthy()
	if cur.MotorHealthy && !healthy {
		check, _ := c.motor.LastCheck()
		c.record(newEvent(models.EventMotorFailure, now, fmt.Sprintf("door motor failed while %s", check.Direction)))
		c.metrics.IncMotorFailure()
		c.log.Warnw("motor_failure_detected", "direction", check.Direction.String())
	}
	cur.MotorHealthy = healthy

	// the day resets before the feed so a feed finishing after midnight
	// counts toward the new day
	feedsForDay := c.fsm.FeedsToday()
	loc := c.tuning.location()
	rolled := !c.prevAt.IsZero() && DayStart(now, loc).After(DayStart(c.prevAt, loc))
	if rolled {
		c.fsm.ResetDay()
	}

	decision := c.fsm.Step(FeedInput{
		Schedule:     c.schedule,
		Now:          now,
		Status:       cur,
		PlateFilling: c.user.PlateFilling,
	})
	c.applyDecision(&cur, decision, now)
	cur.FeedsToday = c.fsm.FeedsToday()
	cur.LastFedAt = c.fsm.LastFedAt()
	c.status = cur
	user := c.user
	armed := c.armed
	c.armed = nil
	c.mu.Unlock()

	// I/O phase
	change := c.detector.Classify(c.prev, cur, now.Sub(c.prevAt))
	period := c.sampler.Update(change, cur.DoorOpen, now)
	samples := c.history.Record(change, cur, now)
	flushed, histErr := c.history.Flush(ctx, c.store, c.sampler.Fast())
	c.metrics.AddSamplesFlushed(flushed)
	if d := c.history.Dropped(); d > c.dropped {
		c.metrics.AddSamplesDropped(d - c.dropped)
		c.dropped = d
	}
	attempted := flushed > 0 || histErr != nil

	if !rolled {
		feedsForDay = cur.FeedsToday
	}
	eval := c.notifier.Evaluate(c.prev, cur, c.prevAt, now, feedsForDay, user)
	c.mu.Lock()
	for _, e := range eval.Events {
		c.record(e)
	}
	c.mu.Unlock()
	if eval.DayRolledOver {
		c.log.Infow("day_rolled_over", "feeds_yesterday", feedsForDay)
	}
	for _, kind := range eval.Notify {
		c.metrics.IncNotification(string(kind))
		if err := c.sink.Notify(ctx, kind); err != nil {
			c.log.Errorw("notification_failed", "kind", kind, "err", err)
		}
	}

	var storeErr error
	if armed != nil {
		attempted = true
		if err := c.store.SetScheduleWindowStart(ctx, armed.id, armed.start); err != nil {
			storeErr = fmt.Errorf("arm schedule window: %w", err)
			c.mu.Lock()
			// retry only while the cached schedule still carries this window
			if c.armed == nil && c.schedule != nil && c.schedule.ID == armed.id &&
				c.schedule.MaxTimesWindowStart == armed.start {
				c.armed = armed
			}
			c.mu.Unlock()
		}
	}
	evAttempted, evErr := c.flushEvents(ctx)
	attempted = attempted || evAttempted
	if attempted {
		c.trackStore(firstErr(histErr, storeErr, evErr))
	}
	c.trackClock(now)

	c.mu.Lock()
	frame := models.StatusFrame{Status: c.status, Events: c.tickEvents, ScaleData: samples}
	c.tickEvents = nil
	c.mu.Unlock()
	c.publisher.Broadcast(frame)

	c.metrics.SetLoopPeriod(period)
	c.metrics.SetLoads(cur.ContainerLoad, cur.PlateLoad)
	c.prev, c.prevAt = cur, now
	return period
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// applyReadings keeps the last value of a stale scale. c.mu must be held.
func (c *Controller) applyReadings(cur *models.MachineStatus, container float64, containerFresh bool, plate float64, plateFresh bool) {
	if containerFresh {
		cur.ContainerLoad = container
		c.staleContainer = 0
	} else {
		c.staleContainer++
		c.log.Debugw("sensor_stale", "scale", models.ScaleContainer.String(), "err", ErrSensorStale, "count", c.staleContainer)
	}
	if plateFresh {
		cur.PlateLoad = plate - c.user.PlateTare
		c.stalePlate = 0
	} else {
		c.stalePlate++
		c.log.Debugw("sensor_stale", "scale", models.ScalePlate.String(), "err", ErrSensorStale, "count", c.stalePlate)
	}
	ok := c.staleContainer < c.tuning.StaleLimit && c.stalePlate < c.tuning.StaleLimit
	if cur.ScalesOk && !ok {
		c.log.Warnw("scales_unresponsive", "container_stale", c.staleContainer, "plate_stale", c.stalePlate)
	}
	cur.ScalesOk = ok
}

// applyDecision executes a state machine step. c.mu must be held.
func (c *Controller) applyDecision(cur *models.MachineStatus, d FeedDecision, now time.Time) {
	switch d.Command {
	case CommandOpen:
		c.drive(cur, true, now)
	case CommandClose:
		c.drive(cur, false, now)
	}
	cur.AutomaticFeedingInProgress = c.fsm.State() == StateOpening
	if d.Event != nil {
		c.record(*d.Event)
	}
	if d.Outcome != OutcomeNone {
		c.metrics.ObserveFeed(string(d.Outcome))
		target, _ := c.fsm.Target()
		c.log.Infow("feeding_"+string(d.Outcome),
			"plate_g", cur.PlateLoad,
			"container_g", cur.ContainerLoad,
			"target_g", target,
			"feeds_today", c.fsm.FeedsToday())
	}
	if !d.ArmWindow.IsZero() && c.schedule != nil {
		c.schedule.MaxTimesWindowStart = d.ArmWindow.Unix()
		c.armed = &windowArm{id: c.schedule.ID, start: c.schedule.MaxTimesWindowStart}
		c.log.Infow("max_times_reached", "window_start", d.ArmWindow)
	}
}

// drive commands the door and replaces the motor check. c.mu must be held.
func (c *Controller) drive(cur *models.MachineStatus, open bool, now time.Time) {
	dir := DirectionOpening
	var err error
	if open {
		err = c.actuator.Open()
	} else {
		dir = DirectionClosing
		err = c.actuator.Close()
	}
	if err != nil {
		c.log.Errorw("door_command_failed", "open", open, "err", err)
	}
	cur.DoorOpen = open
	c.motor.Spawn(c.monitorCtx, MotorCheck{ContainerLoad: cur.ContainerLoad, Direction: dir, IssuedAt: now})
}

// record queues an event for persistence and the next frame. c.mu must be held.
func (c *Controller) record(e models.FeedEvent) {
	c.events.push(e)
	c.tickEvents = append(c.tickEvents, e)
}

func (c *Controller) flushEvents(ctx context.Context) (bool, error) {
	c.mu.Lock()
	pending := append([]models.FeedEvent(nil), c.events.items...)
	c.mu.Unlock()
	if len(pending) == 0 {
		return false, nil
	}

	done := make(map[string]struct{}, len(pending))
	var err error
	for _, e := range pending {
		if err = c.store.AppendEvent(ctx, e); err != nil {
			err = fmt.Errorf("append %s event: %w", e.Type, err)
			break
		}
		done[e.ID] = struct{}{}
	}

	c.mu.Lock()
	kept := c.events.items[:0]
	for _, e := range c.events.items {
		if _, ok := done[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	c.events.items = kept
	c.mu.Unlock()
	return true, err
}

// trackStore flips SDOk after StaleLimit consecutive failing ticks.
func (c *Controller) trackStore(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.storeFailures = 0
		if !c.status.SDOk {
			c.status.SDOk = true
			c.record(newEvent(models.EventSDConnectionReturned, c.clock.Now(), "storage is reachable again"))
			c.log.Infow("store_recovered")
		}
		return
	}
	c.storeFailures++
	c.log.Warnw("store_write_failed", "err", err, "consecutive", c.storeFailures, "queued_events", c.events.len())
	if c.storeFailures >= c.tuning.StaleLimit && c.status.SDOk {
		c.status.SDOk = false
		c.record(newEvent(models.EventSDConnectionLost, c.clock.Now(), "storage is unreachable"))
	}
}

// trackClock flips WiFiOk when a syncing clock loses its time source.
func (c *Controller) trackClock(now time.Time) {
	sr, ok := c.clock.(SyncReporter)
	if !ok {
		return
	}
	if sr.Synced() {
		c.unsynced = 0
	} else {
		c.unsynced++
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.unsynced == 0 && !c.status.WiFiOk:
		c.status.WiFiOk = true
		c.record(newEvent(models.EventWiFiConnectionReturned, now, "time sync restored"))
	case c.unsynced >= c.tuning.StaleLimit && c.status.WiFiOk:
		c.status.WiFiOk = false
		c.record(newEvent(models.EventWiFiConnectionLost, now, "time sync lost"))
		c.log.Warnw("clock_unsynced", "ticks", c.unsynced)
	}
}

// GetCurrentStatus returns a copy of the latest snapshot.
func (c *Controller) GetCurrentStatus() models.MachineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RequestManualFeeding opens or closes the door on operator request.
// It fails with ErrConflict while an automatic feed is running.
func (c *Controller) RequestManualFeeding(open bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.AutomaticFeedingInProgress || c.fsm.State() == StateOpening {
		return ErrConflict
	}
	if open == c.status.ManualFeedingInProgress && open == c.status.DoorOpen {
		return nil
	}
	cur := c.status
	c.drive(&cur, open, c.clock.Now())
	cur.ManualFeedingInProgress = open
	c.status = cur
	c.containerLoad.Store(math.Float64bits(cur.ContainerLoad))
	c.log.Infow("manual_feeding", "open", open)
	return nil
}

// ReplaceSchedule swaps the cached selected schedule. nil clears it.
//
// An armed max-times window survives an edit of the same schedule that keeps
// its mode and daily limit; any other replacement drops it.
func (c *Controller) ReplaceSchedule(s *models.Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, prev := s.Clone(), c.schedule
	if next == nil || prev == nil || next.ID != prev.ID ||
		next.Mode != models.ModeMaxTimes || prev.Mode != models.ModeMaxTimes ||
		next.MaxTimesPerDay != prev.MaxTimesPerDay {
		c.armed = nil
		c.schedule = next
		return
	}
	if prev.MaxTimesWindowStart > next.MaxTimesWindowStart {
		next.MaxTimesWindowStart = prev.MaxTimesWindowStart
		c.armed = &windowArm{id: next.ID, start: next.MaxTimesWindowStart}
	}
	c.schedule = next
}

// SelectedSchedule returns a copy of the cached schedule.
func (c *Controller) SelectedSchedule() *models.Schedule {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schedule.Clone()
}

// ReplaceUserSettings swaps the cached user settings.
func (c *Controller) ReplaceUserSettings(u models.UserSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

// ReplaceSystemSettings swaps the cached calibration.
func (c *Controller) ReplaceSystemSettings(s models.SystemSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.system = s
}

// SystemSettings returns the cached calibration.
func (c *Controller) SystemSettings() models.SystemSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system
}

// State returns the feeding state machine phase.
func (c *Controller) State() FeedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.State()
}
