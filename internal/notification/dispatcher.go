package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

// ErrQueueFull is returned by Dispatcher.Notify when no worker can accept
// the alert.
var ErrQueueFull = errors.New("notification queue full")

// Dispatcher hands alerts to a pool of workers so the control loop never
// waits on network delivery.
type Dispatcher struct {
	size    int
	timeout time.Duration
	jobs    chan models.NotificationKind
	sink    engine.NotificationSink
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a pool of size workers delivering through sink.
func NewDispatcher(size int, sink engine.NotificationSink, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		size:    size,
		timeout: timeout,
		jobs:    make(chan models.NotificationKind, size*4),
		sink:    sink,
		log:     log,
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.size; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.log.Debugw("notification_worker_started", "worker", id)
	for {
		select {
		case kind := <-d.jobs:
			d.deliver(ctx, kind)
		case <-ctx.Done():
			d.log.Debugw("notification_worker_stopped", "worker", id)
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, kind models.NotificationKind) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sink.Notify(ctx, kind); err != nil {
		d.log.Warnw("notification_delivery_failed", "kind", kind, "error", err)
	}
}

// Notify queues kind for delivery without blocking.
func (d *Dispatcher) Notify(_ context.Context, kind models.NotificationKind) error {
	select {
	case d.jobs <- kind:
		return nil
	default:
		return ErrQueueFull
	}
}
