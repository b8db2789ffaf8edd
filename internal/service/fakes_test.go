package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet_feeder/internal/models"
	"pet_feeder/internal/repository"
)

// fakeController records what the services hand to the control loop.
type fakeController struct {
	mu          sync.Mutex
	status      models.MachineStatus
	manualErr   error
	manualCalls []bool
	schedule    *models.Schedule
	replaced    int
	user        models.UserSettings
	system      models.SystemSettings
}

func newFakeController() *fakeController {
	return &fakeController{system: models.DefaultSystemSettings(), user: models.DefaultUserSettings()}
}

func (f *fakeController) GetCurrentStatus() models.MachineStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) RequestManualFeeding(open bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualCalls = append(f.manualCalls, open)
	return f.manualErr
}

func (f *fakeController) ReplaceSchedule(s *models.Schedule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedule = s.Clone()
	f.replaced++
}

func (f *fakeController) SelectedSchedule() *models.Schedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule.Clone()
}

func (f *fakeController) ReplaceUserSettings(u models.UserSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = u
}

func (f *fakeController) ReplaceSystemSettings(s models.SystemSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.system = s
}

func (f *fakeController) SystemSettings() models.SystemSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.system
}

// fakeScheduleRepo is an in-memory repository.ScheduleRepo.
type fakeScheduleRepo struct {
	rows   map[int64]models.Schedule
	nextID int64
	err    error
}

func newFakeScheduleRepo(rows ...models.Schedule) *fakeScheduleRepo {
	r := &fakeScheduleRepo{rows: map[int64]models.Schedule{}, nextID: 1}
	for _, s := range rows {
		r.rows[s.ID] = s
		if s.ID >= r.nextID {
			r.nextID = s.ID + 1
		}
	}
	return r
}

func (r *fakeScheduleRepo) List(context.Context) ([]models.Schedule, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Schedule, 0, len(r.rows))
	for _, s := range r.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeScheduleRepo) Get(_ context.Context, id int64) (models.Schedule, error) {
	s, ok := r.rows[id]
	if !ok {
		return models.Schedule{}, repository.ErrNotFound
	}
	return s, nil
}

func (r *fakeScheduleRepo) Selected(context.Context) (*models.Schedule, error) {
	for _, s := range r.rows {
		if s.Selected {
			c := s
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeScheduleRepo) Create(_ context.Context, s models.Schedule) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	s.ID = r.nextID
	r.nextID++
	r.rows[s.ID] = s
	return s.ID, nil
}

func (r *fakeScheduleRepo) Update(_ context.Context, s models.Schedule) error {
	cur, ok := r.rows[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.MaxTimesWindowStart = cur.MaxTimesWindowStart
	r.rows[s.ID] = s
	return nil
}

func (r *fakeScheduleRepo) SetWindowStart(_ context.Context, id int64, start int64) error {
	s, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.MaxTimesWindowStart = start
	r.rows[id] = s
	return nil
}

func (r *fakeScheduleRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeScheduleRepo) SetSelected(_ context.Context, id int64, selected bool) error {
	target, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if selected {
		for k, s := range r.rows {
			if s.Selected && k != id {
				s.Selected = false
				r.rows[k] = s
			}
		}
	}
	target.Selected, target.Active = selected, selected
	r.rows[id] = target
	return nil
}

func (r *fakeScheduleRepo) SetActive(_ context.Context, id int64, active bool) error {
	s, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Active = active
	r.rows[id] = s
	return nil
}

// fakeSettingsRepo is an in-memory repository.SettingsRepo.
type fakeSettingsRepo struct {
	system  models.SystemSettings
	user    models.UserSettings
	saveErr error
	saves   int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{system: models.DefaultSystemSettings(), user: models.DefaultUserSettings()}
}

func (r *fakeSettingsRepo) LoadSystem(context.Context) (models.SystemSettings, error) {
	return r.system, nil
}

func (r *fakeSettingsRepo) SaveSystem(_ context.Context, s models.SystemSettings) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.system = s
	return nil
}

func (r *fakeSettingsRepo) LoadUser(context.Context) (models.UserSettings, error) {
	return r.user, nil
}

func (r *fakeSettingsRepo) SaveUser(_ context.Context, u models.UserSettings) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.user = u
	return nil
}

// fakeEventRepo captures List arguments.
type fakeEventRepo struct {
	gotFrom time.Time
	gotTo   time.Time
	gotType models.EventType
	events  []models.FeedEvent
	err     error
	calls   int
}

func (f *fakeEventRepo) Append(context.Context, models.FeedEvent) error { return nil }

func (f *fakeEventRepo) List(_ context.Context, from, to time.Time, typ models.EventType) ([]models.FeedEvent, error) {
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) Count(context.Context, time.Time, time.Time, models.EventType) (int, error) {
	return len(f.events), f.err
}

// fakeScaleRepo captures the last query.
type fakeScaleRepo struct {
	got     repository.ScaleQuery
	samples []models.ScaleSample
	calls   int
}

func (f *fakeScaleRepo) AppendBatch(context.Context, []models.ScaleSample) error { return nil }

func (f *fakeScaleRepo) List(_ context.Context, q repository.ScaleQuery) ([]models.ScaleSample, error) {
	f.calls++
	f.got = q
	return f.samples, nil
}

// fakeScales returns fixed calibration readings.
type fakeScales struct {
	offset  int64
	factor  float64
	err     error
	applied []models.SystemSettings
	weights []float64
}

func (f *fakeScales) Tare(models.ScaleID) (int64, error) { return f.offset, f.err }

func (f *fakeScales) Calibrate(_ models.ScaleID, weight float64) (float64, error) {
	f.weights = append(f.weights, weight)
	return f.factor, f.err
}

func (f *fakeScales) ApplyCalibration(s models.SystemSettings) { f.applied = append(f.applied, s) }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
