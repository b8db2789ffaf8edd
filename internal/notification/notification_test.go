package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

type mockSender struct {
	mu       sync.Mutex
	status   int
	err      error
	payloads [][]byte
	targets  []string
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	m.targets = append(m.targets, sub.Endpoint)
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{StatusCode: m.status, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
}

func (m *mockSender) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

type recordingSink struct {
	mu    sync.Mutex
	kinds []models.NotificationKind
	err   error
	got   chan struct{}
}

func newRecordingSink() *recordingSink { return &recordingSink{got: make(chan struct{}, 16)} }

func (s *recordingSink) Notify(_ context.Context, kind models.NotificationKind) error {
	s.mu.Lock()
	s.kinds = append(s.kinds, kind)
	s.mu.Unlock()
	s.got <- struct{}{}
	return s.err
}

func sub(endpoint string) webpush.Subscription {
	return webpush.Subscription{Endpoint: endpoint, Keys: webpush.Keys{P256dh: "p256", Auth: "auth"}}
}

func TestSubscriptions_RejectsIncomplete(t *testing.T) {
	subs := NewSubscriptions()
	assert.ErrorIs(t, subs.Add(webpush.Subscription{Endpoint: "https://push.example/a"}), ErrInvalidSubscription)
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	assert.Equal(t, 1, subs.Len())
}

func TestWebPushSink_SendsToEverySubscription(t *testing.T) {
	subs := NewSubscriptions()
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	require.NoError(t, subs.Add(sub("https://push.example/b")))
	sender := &mockSender{status: http.StatusCreated}

	sink := NewWebPushSink(&webpush.Options{}, subs, time.Minute, logger.Nop()).WithSender(sender)
	require.NoError(t, sink.Notify(context.Background(), models.NotifyContainerEmpty))

	assert.ElementsMatch(t, []string{"https://push.example/a", "https://push.example/b"}, sender.targets)
	var msg Message
	require.NoError(t, json.Unmarshal(sender.payloads[0], &msg))
	assert.Equal(t, models.NotifyContainerEmpty, msg.Kind)
	assert.NotEmpty(t, msg.Title)
}

func TestWebPushSink_CooldownSuppressesRepeats(t *testing.T) {
	subs := NewSubscriptions()
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	sender := &mockSender{status: http.StatusCreated}
	sink := NewWebPushSink(&webpush.Options{}, subs, time.Hour, logger.Nop()).WithSender(sender)

	require.NoError(t, sink.Notify(context.Background(), models.NotifyContainerEmpty))
	require.NoError(t, sink.Notify(context.Background(), models.NotifyContainerEmpty))
	require.NoError(t, sink.Notify(context.Background(), models.NotifyDidNotEatInADay))

	assert.Equal(t, 2, sender.calls())
}

func TestWebPushSink_NoCooldown(t *testing.T) {
	subs := NewSubscriptions()
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	sender := &mockSender{status: http.StatusCreated}
	sink := NewWebPushSink(&webpush.Options{}, subs, 0, logger.Nop()).WithSender(sender)

	require.NoError(t, sink.Notify(context.Background(), models.NotifyContainerEmpty))
	require.NoError(t, sink.Notify(context.Background(), models.NotifyContainerEmpty))
	assert.Equal(t, 2, sender.calls())
}

func TestWebPushSink_ExpiredSubscriptionRemoved(t *testing.T) {
	subs := NewSubscriptions()
	require.NoError(t, subs.Add(sub("https://push.example/gone")))
	sink := NewWebPushSink(&webpush.Options{}, subs, 0, logger.Nop()).WithSender(&mockSender{status: http.StatusGone})

	require.NoError(t, sink.Notify(context.Background(), models.NotifyDidNotEatInADay))
	assert.Equal(t, 0, subs.Len())
}

func TestWebPushSink_ReportsFailures(t *testing.T) {
	subs := NewSubscriptions()
	require.NoError(t, subs.Add(sub("https://push.example/a")))
	sink := NewWebPushSink(&webpush.Options{}, subs, 0, logger.Nop()).WithSender(&mockSender{err: errors.New("dial tcp: refused")})

	err := sink.Notify(context.Background(), models.NotifyContainerEmpty)
	require.Error(t, err)
	assert.Equal(t, 1, subs.Len())
}

func TestWebPushSink_PublicKey(t *testing.T) {
	sink := NewWebPushSink(&webpush.Options{VAPIDPublicKey: "pub"}, NewSubscriptions(), 0, logger.Nop())
	assert.Equal(t, "pub", sink.PublicKey())
	assert.Empty(t, NewWebPushSink(nil, NewSubscriptions(), 0, logger.Nop()).PublicKey())
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := newRecordingSink()
	bad := newRecordingSink()
	bad.err = errors.New("smtp down")

	err := Multi{ok, bad, NewLogSink(logger.Nop())}.Notify(context.Background(), models.NotifyContainerEmpty)
	require.Error(t, err)
	assert.Len(t, ok.kinds, 1)
	assert.Len(t, bad.kinds, 1)
}

func TestDispatcher_DeliversQueuedAlerts(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(2, sink, time.Second, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Notify(ctx, models.NotifyContainerEmpty))
	require.NoError(t, d.Notify(ctx, models.NotifyDidNotEatInADay))

	for i := 0; i < 2; i++ {
		select {
		case <-sink.got:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	cancel()
	d.Wait()

	assert.ElementsMatch(t,
		[]models.NotificationKind{models.NotifyContainerEmpty, models.NotifyDidNotEatInADay},
		sink.kinds)
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	d := NewDispatcher(1, newRecordingSink(), time.Second, logger.Nop())
	// workers not started, so the buffer fills up
	for i := 0; i < cap(d.jobs); i++ {
		require.NoError(t, d.Notify(context.Background(), models.NotifyContainerEmpty))
	}
	assert.ErrorIs(t, d.Notify(context.Background(), models.NotifyContainerEmpty), ErrQueueFull)
}
