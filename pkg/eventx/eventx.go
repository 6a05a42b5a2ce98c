package eventx

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/portal/pkg/logx"
)

// HandlerFunc processes one delivery. A returned error schedules redelivery
// until the retry bound is reached.
type HandlerFunc func(ctx context.Context, d *Delivery) error

// Publisher accepts events for at-least-once delivery
type Publisher interface {
	Publish(ctx context.Context, ev Event) (string, error)
}

// Queue is the backend a Dispatcher drains
type Queue interface {
	Publisher
	Get(ctx context.Context, id string) (*Delivery, error)
	Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error)
	Ack(ctx context.Context, id string) error
	Nack(ctx context.Context, id string, errMsg string) (retry bool, err error)
	Requeue(ctx context.Context, id string, delay time.Duration) error
	PromoteDue(ctx context.Context) error
	// Recover makes dequeued deliveries unsettled for longer than olderThan
	// ready again and reports how many it moved.
	Recover(ctx context.Context, olderThan time.Duration) (int, error)
}

// Dispatcher routes deliveries to the handler registered for their type
type Dispatcher struct {
	queue    Queue
	opts     Options
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	running  bool
}

// NewDispatcher creates a dispatcher over queue
func NewDispatcher(queue Queue, options ...Option) *Dispatcher {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Dispatcher{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds the handler for an event type
func (d *Dispatcher) Register(eventType string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = handler
}

// Publish enqueues ev, filling in the default retry bound
func (d *Dispatcher) Publish(ctx context.Context, ev Event) (string, error) {
	if ev.MaxRetries == 0 {
		ev.MaxRetries = d.opts.MaxRetries
	}
	return d.queue.Publish(ctx, ev)
}

// Start processes deliveries until ctx is cancelled
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return eventxErrors.New(ErrAlreadyRunning)
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	logx.Infof("eventx: starting %d workers", d.opts.Concurrency)
	d.recoverStale(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.schedulerLoop(ctx)
	}()

	for i := range d.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("eventx: draining workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("eventx: all workers stopped")
	case <-time.After(d.opts.ShutdownTimeout):
		logx.Warnf("eventx: shutdown timed out, unsettled deliveries become ready again after %s", d.opts.VisibilityTimeout)
	}

	return nil
}

func (d *Dispatcher) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()
	recoverTicker := time.NewTicker(d.opts.VisibilityTimeout / 2)
	defer recoverTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.queue.PromoteDue(ctx); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("eventx: failed to promote due deliveries")
			}
		case <-recoverTicker.C:
			d.recoverStale(ctx)
		}
	}
}

func (d *Dispatcher) recoverStale(ctx context.Context) {
	n, err := d.queue.Recover(ctx, d.opts.VisibilityTimeout)
	if err != nil {
		if ctx.Err() == nil {
			logx.WithError(err).Warn("eventx: failed to recover stale deliveries")
		}
		return
	}
	if n > 0 {
		logx.Warnf("eventx: %d stale deliveries made ready again", n)
	}
}

func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	for ctx.Err() == nil {
		delivery, err := d.queue.Dequeue(ctx, d.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("eventx: worker %d dequeue error", id)
			time.Sleep(d.opts.PollInterval)
			continue
		}
		if delivery == nil {
			continue
		}

		d.Dispatch(ctx, delivery)
	}
}

// Dispatch runs the handler for one delivery and records the outcome
func (d *Dispatcher) Dispatch(ctx context.Context, delivery *Delivery) {
	d.mu.RLock()
	handler, ok := d.handlers[delivery.Type]
	d.mu.RUnlock()

	ctx = logx.ContextWithFields(ctx, logx.Fields{
		"event_id":   delivery.ID,
		"event_type": delivery.Type,
		"key":        delivery.Key,
		"attempt":    delivery.Attempts,
	})
	log := logx.WithContext(ctx)

	// the outcome is recorded even when shutdown cancels ctx mid-handler
	settleCtx := context.WithoutCancel(ctx)

	if !ok {
		log.Warn("eventx: no handler registered")
		if _, err := d.queue.Nack(settleCtx, delivery.ID, "no handler registered for event type"); err != nil {
			log.WithError(err).Error("eventx: failed to nack delivery")
		}
		return
	}

	if err := d.safeHandle(ctx, handler, delivery); err != nil {
		log.WithError(err).Warn("eventx: handler failed")

		retry, nackErr := d.queue.Nack(settleCtx, delivery.ID, err.Error())
		if nackErr != nil {
			log.WithError(nackErr).Error("eventx: failed to nack delivery")
			return
		}
		if !retry {
			log.Error("eventx: delivery exhausted its retries")
			return
		}
		if err := d.queue.Requeue(settleCtx, delivery.ID, d.opts.RetryDelay); err != nil {
			log.WithError(err).Error("eventx: failed to requeue delivery")
		}
		return
	}

	if err := d.queue.Ack(settleCtx, delivery.ID); err != nil {
		log.WithError(err).Error("eventx: failed to ack delivery")
		return
	}
	log.Trace("eventx: delivered")
}

func (d *Dispatcher) safeHandle(ctx context.Context, handler HandlerFunc, delivery *Delivery) (err error) {
	if d.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.HandlerTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = eventxErrors.New(ErrHandlerPanic).WithDetail("panic", r)
		}
	}()
	return handler(ctx, delivery)
}
