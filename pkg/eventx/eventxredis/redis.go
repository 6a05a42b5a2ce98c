package eventxredis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue implements eventx.Queue on a ready list, a processing list, a
// scheduled sorted set and one string key per delivery. A delivery stays on
// the processing list from Dequeue until it is acked, dead or requeued.
type Queue struct {
	rdb       *redis.Client
	name      string
	retention time.Duration
}

// NewQueue creates a Redis-backed queue. Settled deliveries are kept for
// retention before Redis expires them.
func NewQueue(rdb *redis.Client, name string, retention time.Duration) *Queue {
	return &Queue{rdb: rdb, name: name, retention: retention}
}

func (q *Queue) readyKey() string      { return "eventx:ready:" + q.name }
func (q *Queue) processingKey() string { return "eventx:processing:" + q.name }
func (q *Queue) scheduledKey() string  { return "eventx:scheduled:" + q.name }
func deliveryKey(id string) string     { return "eventx:delivery:" + id }

// Publish stores the delivery and pushes it onto the ready list
func (q *Queue) Publish(ctx context.Context, ev eventx.Event) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	d := eventx.Delivery{
		ID:         id,
		Type:       ev.Type,
		Key:        ev.Key,
		Payload:    ev.Payload,
		Status:     eventx.StatusPending,
		MaxRetries: ev.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	data, err := json.Marshal(d)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, deliveryKey(id), data, 0)
	pipe.LPush(ctx, q.readyKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrPublish, err).WithDetail("type", ev.Type)
	}

	return id, nil
}

// Get loads a delivery by id
func (q *Queue) Get(ctx context.Context, id string) (*eventx.Delivery, error) {
	data, err := q.rdb.Get(ctx, deliveryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redisErrors.New(ErrNotFound).WithDetail("event_id", id)
		}
		return nil, redisErrors.NewWithCause(ErrGet, err).WithDetail("event_id", id)
	}

	var d eventx.Delivery
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("event_id", id)
	}
	return &d, nil
}

// Dequeue blocks until a delivery is ready or timeout expires, moving it
// onto the processing list. It returns nil, nil on timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*eventx.Delivery, error) {
	id, err := q.rdb.BLMove(ctx, q.readyKey(), q.processingKey(), "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	d, err := q.Get(ctx, id)
	if err != nil {
		if errx.HasCode(err, ErrNotFound) {
			q.rdb.LRem(ctx, q.processingKey(), 1, id)
		}
		return nil, err
	}

	d.Status = eventx.StatusActive
	d.Attempts++
	d.UpdatedAt = time.Now().UTC()
	if err := q.save(ctx, d, 0); err != nil {
		return nil, err
	}
	return d, nil
}

// Ack marks a delivery as handled
func (q *Queue) Ack(ctx context.Context, id string) error {
	d, err := q.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Status = eventx.StatusDelivered
	d.Error = ""
	d.UpdatedAt = time.Now().UTC()
	if err := q.settle(ctx, d, q.retention); err != nil {
		return redisErrors.NewWithCause(ErrAck, err).WithDetail("event_id", id)
	}
	return nil
}

// Nack records a handler failure and reports whether a retry is allowed
func (q *Queue) Nack(ctx context.Context, id string, errMsg string) (bool, error) {
	d, err := q.Get(ctx, id)
	if err != nil {
		return false, err
	}

	retry := d.Attempts < d.MaxRetries
	ttl := time.Duration(0)
	if retry {
		d.Status = eventx.StatusRetrying
	} else {
		d.Status = eventx.StatusDead
		ttl = q.retention
	}
	d.Error = errMsg
	d.UpdatedAt = time.Now().UTC()

	// a retrying delivery stays on the processing list until Requeue
	save := q.save
	if !retry {
		save = q.settle
	}
	if err := save(ctx, d, ttl); err != nil {
		return false, redisErrors.NewWithCause(ErrNack, err).WithDetail("event_id", id)
	}
	return retry, nil
}

// Requeue schedules a delivery to become ready after delay
func (q *Queue) Requeue(ctx context.Context, id string, delay time.Duration) error {
	score := float64(time.Now().UTC().Add(delay).Unix())
	pipe := q.rdb.TxPipeline()
	pipe.ZAdd(ctx, q.scheduledKey(), redis.Z{Score: score, Member: id})
	pipe.LRem(ctx, q.processingKey(), 1, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrRequeue, err).WithDetail("event_id", id)
	}
	return nil
}

var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local ready_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', ready_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

// PromoteDue moves scheduled deliveries whose time has passed onto the
// ready list atomically.
func (q *Queue) PromoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(), q.readyKey()}, now).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return redisErrors.NewWithCause(ErrPromote, err)
	}
	return nil
}

var recoverScript = redis.NewScript(`
local processing_key = KEYS[1]
local ready_key = KEYS[2]
if redis.call('LREM', processing_key, 1, ARGV[1]) > 0 then
    redis.call('RPUSH', ready_key, ARGV[1])
    return 1
end
return 0
`)

// Recover puts processing deliveries untouched for longer than olderThan
// back at the head of the ready list. Settled or expired ids left behind by
// a failed ack are dropped from the processing list.
func (q *Queue) Recover(ctx context.Context, olderThan time.Duration) (int, error) {
	ids, err := q.rdb.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return 0, redisErrors.NewWithCause(ErrRecover, err)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	recovered := 0
	for _, id := range ids {
		d, err := q.Get(ctx, id)
		if err != nil {
			if errx.HasCode(err, ErrNotFound) {
				q.rdb.LRem(ctx, q.processingKey(), 1, id)
				continue
			}
			return recovered, err
		}
		if d.Status == eventx.StatusDelivered || d.Status == eventx.StatusDead {
			q.rdb.LRem(ctx, q.processingKey(), 1, id)
			continue
		}
		if d.UpdatedAt.After(cutoff) {
			continue
		}

		n, err := recoverScript.Run(ctx, q.rdb, []string{q.processingKey(), q.readyKey()}, id).Int()
		if err != nil {
			return recovered, redisErrors.NewWithCause(ErrRecover, err).WithDetail("event_id", id)
		}
		recovered += n
	}
	return recovered, nil
}

// settle saves a finished delivery and drops it from the processing list
func (q *Queue) settle(ctx context.Context, d *eventx.Delivery, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("event_id", d.ID)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, deliveryKey(d.ID), data, ttl)
	pipe.LRem(ctx, q.processingKey(), 1, d.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrAck, err).WithDetail("event_id", d.ID)
	}
	return nil
}

func (q *Queue) save(ctx context.Context, d *eventx.Delivery, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("event_id", d.ID)
	}
	if err := q.rdb.Set(ctx, deliveryKey(d.ID), data, ttl).Err(); err != nil {
		return redisErrors.NewWithCause(ErrGet, err).WithDetail("event_id", d.ID)
	}
	return nil
}

var _ eventx.Queue = (*Queue)(nil)
