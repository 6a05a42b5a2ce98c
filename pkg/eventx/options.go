package eventx

import "time"

// Options configures the dispatcher
type Options struct {
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	MaxRetries      int
	ShutdownTimeout time.Duration
	HandlerTimeout  time.Duration

	// VisibilityTimeout is how long a dequeued delivery may go unsettled
	// before it is made ready again.
	VisibilityTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		Concurrency:       4,
		PollInterval:      time.Second,
		DequeueTimeout:    5 * time.Second,
		RetryDelay:        30 * time.Second,
		MaxRetries:        5,
		ShutdownTimeout:   30 * time.Second,
		VisibilityTimeout: 5 * time.Minute,
	}
}

// Option is a functional option for the dispatcher
type Option func(*Options)

// WithConcurrency sets the number of worker goroutines
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPollInterval sets the scheduler tick and idle back-off
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithDequeueTimeout sets the blocking dequeue timeout
func WithDequeueTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.DequeueTimeout = d
		}
	}
}

// WithRetryDelay sets the redelivery delay after a handler error
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = d
	}
}

// WithMaxRetries sets the default redelivery bound
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRetries = n
		}
	}
}

// WithShutdownTimeout bounds the drain on shutdown
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithHandlerTimeout bounds each handler invocation
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.HandlerTimeout = d
		}
	}
}

// WithVisibilityTimeout sets how long a delivery may stay dequeued without
// being settled. Keep it above the handler timeout.
func WithVisibilityTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.VisibilityTimeout = d
		}
	}
}
