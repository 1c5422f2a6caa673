package async

import (
	"context"
	"time"
)

// Future is the handle to a function running on its own goroutine.
type Future struct {
	err  error
	done chan struct{}
}

// Go runs fn on a new goroutine. A pre-cancelled context short-circuits
// without starting fn, preventing goroutine leaks during shutdown races.
func Go(ctx context.Context, fn func(context.Context) error) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the function completes and returns its error.
func (f *Future) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits up to timeout for completion. On expiry it returns
// ErrAwaitTimeout while the function keeps running.
func (f *Future) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrAwaitTimeout
	}
}

// IsComplete reports completion without blocking.
func (f *Future) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// JoinAll awaits every future and returns the first non-nil error.
func JoinAll(futures ...*Future) error {
	var first error
	for _, f := range futures {
		if err := f.Await(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
