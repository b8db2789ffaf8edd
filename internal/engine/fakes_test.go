package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet_feeder/internal/models"
)

var errDown = errors.New("store down")

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	synced bool
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t, synced: true} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Synced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synced
}

func (c *fakeClock) SetSynced(v bool) {
	c.mu.Lock()
	c.synced = v
	c.mu.Unlock()
}

type fakeSensors struct {
	mu               sync.Mutex
	container, plate float64
	containerStale   bool
	plateStale       bool
}

func (s *fakeSensors) Set(container, plate float64) {
	s.mu.Lock()
	s.container, s.plate = container, plate
	s.mu.Unlock()
}

func (s *fakeSensors) SetStale(v bool) {
	s.mu.Lock()
	s.containerStale, s.plateStale = v, v
	s.mu.Unlock()
}

func (s *fakeSensors) ReadContainerLoad() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container, !s.containerStale
}

func (s *fakeSensors) ReadPlateLoad() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plate, !s.plateStale
}

type fakeActuator struct {
	mu       sync.Mutex
	commands []string
}

func (a *fakeActuator) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append(a.commands, "open")
	return nil
}

func (a *fakeActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append(a.commands, "close")
	return nil
}

func (a *fakeActuator) Commands() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.commands...)
}

type fakeStore struct {
	mu        sync.Mutex
	schedule  *models.Schedule
	user      models.UserSettings
	feeds     int
	loadErr   error
	failing   bool
	events    []models.FeedEvent
	samples   []models.ScaleSample
	batches   int
	windows   []windowWrite
}

type windowWrite struct {
	id, start int64
}

func (s *fakeStore) SetFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

func (s *fakeStore) LoadSelectedSchedule(context.Context) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.schedule.Clone(), nil
}

func (s *fakeStore) LoadSystemSettings(context.Context) (models.SystemSettings, error) {
	return models.DefaultSystemSettings(), nil
}

func (s *fakeStore) LoadUserSettings(context.Context) (models.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, nil
}

func (s *fakeStore) CountFeedsBetween(context.Context, time.Time, time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds, nil
}

func (s *fakeStore) AppendEvent(_ context.Context, e models.FeedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errDown
	}
	s.events = append(s.events, e)
	return nil
}

func (s *fakeStore) AppendScaleSamples(_ context.Context, samples []models.ScaleSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errDown
	}
	s.samples = append(s.samples, samples...)
	s.batches++
	return nil
}

func (s *fakeStore) SetScheduleWindowStart(_ context.Context, id int64, start int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errDown
	}
	s.windows = append(s.windows, windowWrite{id: id, start: start})
	return nil
}

func (s *fakeStore) Windows() []windowWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]windowWrite(nil), s.windows...)
}

func (s *fakeStore) EventTypes() []models.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeSink struct {
	mu    sync.Mutex
	kinds []models.NotificationKind
}

func (s *fakeSink) Notify(_ context.Context, k models.NotificationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, k)
	return nil
}

func (s *fakeSink) Kinds() []models.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NotificationKind(nil), s.kinds...)
}

type fakePublisher struct {
	mu     sync.Mutex
	frames []models.StatusFrame
}

func (p *fakePublisher) Broadcast(f models.StatusFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
}

func (p *fakePublisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func (p *fakePublisher) HasScaleData() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.frames {
		if len(f.ScaleData) > 0 {
			return true
		}
	}
	return false
}
