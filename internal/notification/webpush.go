package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

var ErrInvalidSubscription = errors.New("subscription needs endpoint, p256dh and auth")

// Sender sends a single web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the Sender backed by the webpush library.
type WebPushSender struct{}

func (WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is an in-memory registry of browser push endpoints.
type Subscriptions struct {
	mu   sync.RWMutex
	subs map[string]webpush.Subscription
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[string]webpush.Subscription)}
}

func (s *Subscriptions) Add(sub webpush.Subscription) error {
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	s.mu.Lock()
	s.subs[sub.Endpoint] = sub
	s.mu.Unlock()
	return nil
}

func (s *Subscriptions) Remove(endpoint string) {
	s.mu.Lock()
	delete(s.subs, endpoint)
	s.mu.Unlock()
}

func (s *Subscriptions) List() []webpush.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]webpush.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// WebPushSink pushes alerts to every registered subscription. An alert kind
// is sent at most once per cooldown window; a non-positive cooldown disables
// suppression.
type WebPushSink struct {
	sender   Sender
	options  *webpush.Options
	subs     *Subscriptions
	cooldown *cache.Cache
	log      *logger.Logger
}

func NewWebPushSink(options *webpush.Options, subs *Subscriptions, cooldown time.Duration, log *logger.Logger) *WebPushSink {
	w := &WebPushSink{
		sender:  WebPushSender{},
		options: options,
		subs:    subs,
		log:     log,
	}
	if cooldown > 0 {
		w.cooldown = cache.New(cooldown, 2*cooldown)
	}
	return w
}

// WithSender replaces the transport, used by tests.
func (w *WebPushSink) WithSender(s Sender) *WebPushSink {
	w.sender = s
	return w
}

// PublicKey returns the configured VAPID public key.
func (w *WebPushSink) PublicKey() string {
	if w.options == nil {
		return ""
	}
	return w.options.VAPIDPublicKey
}

func (w *WebPushSink) Notify(ctx context.Context, kind models.NotificationKind) error {
	if w.cooldown != nil {
		if _, found := w.cooldown.Get(string(kind)); found {
			w.log.Debugw("notification_suppressed", "kind", kind)
			return nil
		}
	}

	payload, err := json.Marshal(MessageFor(kind))
	if err != nil {
		return err
	}

	var failed int
	for _, sub := range w.subs.List() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !w.send(sub, payload) {
			failed++
		}
	}
	if w.cooldown != nil {
		w.cooldown.SetDefault(string(kind), struct{}{})
	}
	if failed > 0 {
		return fmt.Errorf("web push %s: %d deliveries failed", kind, failed)
	}
	return nil
}

func (w *WebPushSink) send(sub webpush.Subscription, payload []byte) bool {
	resp, err := w.sender.Send(payload, &sub, w.options)
	if err != nil {
		w.log.Warnw("push_send_failed", "endpoint", sub.Endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()

	// expired subscription
	if resp.StatusCode == http.StatusGone {
		w.log.Infow("push_subscription_expired", "endpoint", sub.Endpoint)
		w.subs.Remove(sub.Endpoint)
		return true
	}
	if resp.StatusCode >= 300 {
		w.log.Warnw("push_rejected", "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return false
	}
	return true
}
