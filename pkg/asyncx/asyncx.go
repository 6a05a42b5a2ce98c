package asyncx

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/portal/pkg/logx"
)

// Detach runs fn in a goroutine with a context that keeps the values of
// parent but not its cancellation, bounded by timeout. A caller that goes
// away does not abort fn. Panics are recovered and logged.
func Detach(parent context.Context, timeout time.Duration, fn func(context.Context)) {
	ctx := context.WithoutCancel(parent)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logx.WithContext(ctx).WithField("panic", r).Error("asyncx: detached task panicked")
			}
		}()
		fn(ctx)
	}()
}

// Pool processes items using at most workers goroutines. Unlike a
// short-circuiting map it always visits every item and returns one error
// slot per item, in input order.
func Pool[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) []error {
	if workers <= 0 {
		workers = 1
	}

	type indexed struct {
		i    int
		item T
	}

	work := make(chan indexed, len(items))
	for i, item := range items {
		work <- indexed{i: i, item: item}
	}
	close(work)

	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for w := range work {
				if err := ctx.Err(); err != nil {
					errs[w.i] = err
					continue
				}
				errs[w.i] = fn(ctx, w.item)
			}
		}()
	}
	wg.Wait()

	return errs
}
