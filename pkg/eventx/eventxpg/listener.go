// Package eventxpg bridges Postgres LISTEN/NOTIFY into an eventx publisher.
// Database triggers emit one notification per row change; the bridge turns
// each into a durable queued event.
package eventxpg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/lib/pq"
)

var pgErrors = errx.NewRegistry("EVENTX_PG")

var ErrListen = pgErrors.Register("LISTEN", errx.TypeInternal, "Failed to listen on notification channel")

// Bridge forwards notifications from channel to a publisher
type Bridge struct {
	dsn       string
	channel   string
	publisher eventx.Publisher
	minRetry  time.Duration
	maxRetry  time.Duration
	ping      time.Duration
	onGap     func()
}

// NewBridge creates a bridge for the given connection string and channel
func NewBridge(dsn, channel string, publisher eventx.Publisher) *Bridge {
	return &Bridge{
		dsn:       dsn,
		channel:   channel,
		publisher: publisher,
		minRetry:  time.Second,
		maxRetry:  time.Minute,
		ping:      90 * time.Second,
	}
}

// OnReconnect registers fn to run after the listener reconnects, when
// notifications sent in between are gone and the caller has to catch up
// some other way.
func (b *Bridge) OnReconnect(fn func()) *Bridge {
	b.onGap = fn
	return b
}

// Run listens until ctx is cancelled
func (b *Bridge) Run(ctx context.Context) error {
	listener := pq.NewListener(b.dsn, b.minRetry, b.maxRetry, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logx.WithError(err).WithField("channel", b.channel).Warn("eventxpg: listener event")
		}
	})
	defer listener.Close()

	if err := listener.Listen(b.channel); err != nil {
		return pgErrors.NewWithCause(ErrListen, err).WithDetail("channel", b.channel)
	}

	logx.WithField("channel", b.channel).Info("eventxpg: listening")

	ticker := time.NewTicker(b.ping)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect; notifications sent while disconnected are lost
			if n == nil {
				b.reconnected()
				continue
			}
			b.forward(ctx, n.Extra)
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				logx.WithError(err).Warn("eventxpg: ping failed")
			}
		}
	}
}

func (b *Bridge) reconnected() {
	logx.WithField("channel", b.channel).Warn("eventxpg: reconnected, notifications may have been missed")
	if b.onGap != nil {
		b.onGap()
	}
}

func (b *Bridge) forward(ctx context.Context, raw string) {
	ev, err := Decode(raw)
	if err != nil {
		logx.WithError(err).WithField("payload", raw).Error("eventxpg: dropping undecodable notification")
		return
	}
	if _, err := b.publisher.Publish(ctx, ev); err != nil {
		logx.WithError(err).WithFields(logx.Fields{
			"event_type": ev.Type,
			"key":        ev.Key,
		}).Error("eventxpg: failed to publish notification")
	}
}

// Decode parses a notification payload of the form
// {"type": "...", "key": "...", "payload": {...}}
func Decode(raw string) (eventx.Event, error) {
	var ev eventx.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return eventx.Event{}, errx.Wrap(err, "invalid notification payload", errx.TypeMalformed)
	}
	if ev.Type == "" || ev.Key == "" {
		return eventx.Event{}, errx.Malformed("notification missing type or key")
	}
	return ev, nil
}
