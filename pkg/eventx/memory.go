package eventx

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is an in-process Queue. Deliveries do not survive a restart.
type MemoryQueue struct {
	mu         sync.Mutex
	deliveries map[string]*Delivery
	ready      chan string
	scheduled  map[string]time.Time
	inflight   map[string]struct{}
}

// NewMemoryQueue creates an in-process queue with the given ready buffer
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &MemoryQueue{
		deliveries: make(map[string]*Delivery),
		ready:      make(chan string, buffer),
		scheduled:  make(map[string]time.Time),
		inflight:   make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Publish(ctx context.Context, ev Event) (string, error) {
	now := time.Now().UTC()
	d := &Delivery{
		ID:         uuid.New().String(),
		Type:       ev.Type,
		Key:        ev.Key,
		Payload:    ev.Payload,
		Status:     StatusPending,
		MaxRetries: ev.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	q.mu.Lock()
	q.deliveries[d.ID] = d
	q.mu.Unlock()

	select {
	case q.ready <- d.ID:
		return d.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *MemoryQueue) Get(_ context.Context, id string) (*Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.deliveries[id]
	if !ok {
		return nil, eventxErrors.New(ErrNotFound).WithDetail("event_id", id)
	}
	cp := *d
	return &cp, nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case id := <-q.ready:
		q.mu.Lock()
		defer q.mu.Unlock()
		d, ok := q.deliveries[id]
		if !ok {
			return nil, nil
		}
		d.Status = StatusActive
		d.Attempts++
		d.UpdatedAt = time.Now().UTC()
		q.inflight[id] = struct{}{}
		cp := *d
		return &cp, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}
}

func (q *MemoryQueue) Ack(_ context.Context, id string) error {
	return q.update(id, func(d *Delivery) {
		d.Status = StatusDelivered
		d.Error = ""
		delete(q.inflight, id)
	})
}

func (q *MemoryQueue) Nack(_ context.Context, id string, errMsg string) (bool, error) {
	var retry bool
	err := q.update(id, func(d *Delivery) {
		retry = d.Attempts < d.MaxRetries
		if retry {
			d.Status = StatusRetrying
		} else {
			d.Status = StatusDead
			delete(q.inflight, id)
		}
		d.Error = errMsg
	})
	return retry, err
}

func (q *MemoryQueue) Requeue(_ context.Context, id string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.deliveries[id]; !ok {
		return eventxErrors.New(ErrNotFound).WithDetail("event_id", id)
	}
	q.scheduled[id] = time.Now().Add(delay)
	delete(q.inflight, id)
	return nil
}

func (q *MemoryQueue) PromoteDue(ctx context.Context) error {
	now := time.Now()

	q.mu.Lock()
	var due []string
	for id, at := range q.scheduled {
		if !at.After(now) {
			due = append(due, id)
			delete(q.scheduled, id)
		}
	}
	q.mu.Unlock()

	for _, id := range due {
		select {
		case q.ready <- id:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Recover makes in-flight deliveries untouched for longer than olderThan
// ready again
func (q *MemoryQueue) Recover(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	q.mu.Lock()
	var stale []string
	for id := range q.inflight {
		d, ok := q.deliveries[id]
		if !ok {
			delete(q.inflight, id)
			continue
		}
		if !d.UpdatedAt.After(cutoff) {
			stale = append(stale, id)
			delete(q.inflight, id)
		}
	}
	q.mu.Unlock()

	for i, id := range stale {
		select {
		case q.ready <- id:
		case <-ctx.Done():
			return i, ctx.Err()
		}
	}
	return len(stale), nil
}

// Snapshot returns copies of every tracked delivery
func (q *MemoryQueue) Snapshot() []Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Delivery, 0, len(q.deliveries))
	for _, d := range q.deliveries {
		out = append(out, *d)
	}
	return out
}

func (q *MemoryQueue) update(id string, fn func(*Delivery)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.deliveries[id]
	if !ok {
		return eventxErrors.New(ErrNotFound).WithDetail("event_id", id)
	}
	fn(d)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
