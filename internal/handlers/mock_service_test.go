package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"pet_feeder/internal/models"
	"pet_feeder/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	enabled   bool
	token     string
	signInErr error
	parseErr  error

	lastPassword string
	lastToken    string
}

func (m *mockAuth) Enabled() bool { return m.enabled }
func (m *mockAuth) SignIn(password string) (string, error) {
	m.lastPassword = password
	return m.token, m.signInErr
}
func (m *mockAuth) ParseToken(token string) error {
	m.lastToken = token
	return m.parseErr
}

type mockFeeding struct {
	err   error
	calls []bool
}

func (m *mockFeeding) SetContainerOpen(_ context.Context, open bool) error {
	m.calls = append(m.calls, open)
	return m.err
}

type mockMonitoring struct {
	status models.MachineStatus
	err    error
}

func (m *mockMonitoring) GetCurrentStatus(context.Context) (models.MachineStatus, error) {
	return m.status, m.err
}

type mockSchedules struct {
	list      []models.Schedule
	byID      map[int64]models.Schedule
	createID  int64
	err       error
	lastParam service.ScheduleParams
	lastID    int64
	active    *bool
	deleted   []int64
}

func (m *mockSchedules) List(context.Context) ([]models.Schedule, error) { return m.list, m.err }
func (m *mockSchedules) Get(_ context.Context, id int64) (models.Schedule, error) {
	s, ok := m.byID[id]
	if !ok {
		return models.Schedule{}, service.ErrNotFound
	}
	return s, nil
}
func (m *mockSchedules) Create(_ context.Context, p service.ScheduleParams) (int64, error) {
	m.lastParam = p
	return m.createID, m.err
}
func (m *mockSchedules) Update(_ context.Context, id int64, p service.ScheduleParams) error {
	m.lastID, m.lastParam = id, p
	return m.err
}
func (m *mockSchedules) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return m.err
}
func (m *mockSchedules) SetSelected(_ context.Context, id int64, active bool) error {
	m.lastID, m.active = id, &active
	return m.err
}

type mockEventLog struct {
	mu         sync.Mutex
	events     []models.FeedEvent
	samples    []models.ScaleSample
	err        error
	lastFilter service.LogFilter
	lastScale  service.ScaleFilter
	listCalls  int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.FeedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.lastFilter = f
	return m.events, m.err
}
func (m *mockEventLog) Samples(_ context.Context, f service.ScaleFilter) ([]models.ScaleSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastScale = f
	return m.samples, m.err
}

type mockSettings struct {
	user       models.UserSettings
	system     models.SystemSettings
	err        error
	lastOpen   int
	lastClosed int
}

func (m *mockSettings) GetUser(context.Context) (models.UserSettings, error) { return m.user, nil }
func (m *mockSettings) UpdateUser(_ context.Context, u models.UserSettings) error {
	if m.err != nil {
		return m.err
	}
	m.user = u
	return nil
}
func (m *mockSettings) GetSystem(context.Context) (models.SystemSettings, error) {
	return m.system, nil
}
func (m *mockSettings) SetDoorAngles(_ context.Context, open, closed int) error {
	m.lastOpen, m.lastClosed = open, closed
	return m.err
}

type mockCalibration struct {
	sys        models.SystemSettings
	user       models.UserSettings
	err        error
	lastScale  models.ScaleID
	lastWeight float64
}

func (m *mockCalibration) Tare(_ context.Context, id models.ScaleID) (models.SystemSettings, error) {
	m.lastScale = id
	return m.sys, m.err
}
func (m *mockCalibration) Calibrate(_ context.Context, id models.ScaleID, w float64) (models.SystemSettings, error) {
	m.lastScale, m.lastWeight = id, w
	return m.sys, m.err
}
func (m *mockCalibration) TarePlateWithPlate(context.Context) (models.UserSettings, error) {
	return m.user, m.err
}

type mockPush struct {
	key  string
	err  error
	subs []webpush.Subscription
}

func (m *mockPush) Subscribe(_ context.Context, s webpush.Subscription) error {
	if m.err != nil {
		return m.err
	}
	m.subs = append(m.subs, s)
	return nil
}
func (m *mockPush) PublicKey() string { return m.key }

type mockSimulator struct {
	st        models.SimulatorState
	err       error
	lastFault service.SimulatorFaults
	refilled  []float64
	plate     []float64
}

func (m *mockSimulator) SimulatorState(context.Context) (models.SimulatorState, error) {
	return m.st, m.err
}
func (m *mockSimulator) SetFaults(_ context.Context, f service.SimulatorFaults) (models.SimulatorState, error) {
	m.lastFault = f
	return m.st, m.err
}
func (m *mockSimulator) Refill(_ context.Context, g float64) (models.SimulatorState, error) {
	m.refilled = append(m.refilled, g)
	return m.st, m.err
}
func (m *mockSimulator) PutOnPlate(_ context.Context, g float64) (models.SimulatorState, error) {
	m.plate = append(m.plate, g)
	return m.st, m.err
}

type observed struct {
	route, code string
}

type mockObserver struct {
	mu  sync.Mutex
	got []observed
}

func (m *mockObserver) ObserveRequest(route, code string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, observed{route, code})
}

// newMockService fills every sub-service so routes never hit a nil interface.
func newMockService() *service.Service {
	return &service.Service{
		Authorization: &mockAuth{},
		Feeding:       &mockFeeding{},
		Monitoring:    &mockMonitoring{},
		Schedules:     &mockSchedules{},
		EventLog:      &mockEventLog{},
		Settings:      &mockSettings{},
		Calibration:   &mockCalibration{},
		Push:          &mockPush{},
		Simulator:     &mockSimulator{},
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, Options{})
}

func newTestRouterWith(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
