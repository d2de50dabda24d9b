// Package keeper provides Keeper, the Go analogue of the original's
// Keeper<R> (jinshu-utils/src/lib.rs): a handle over a cancelable
// background goroutine that yields a result on close.
package keeper

import (
	"context"
	"fmt"
	"runtime"
)

// Keeper wraps a goroutine started by Make, letting the caller request
// cancellation and wait for its result. R is whatever the goroutine
// returns once it observes cancellation (or finishes on its own).
type Keeper[R any] struct {
	cancel context.CancelFunc
	result chan keeperResult[R]
	closed chan struct{}
}

type keeperResult[R any] struct {
	value R
	err   error
}

// Make starts f in a new goroutine, passing it a context that is
// canceled when Close is called, and returns a Keeper to control it.
// f must return once ctx is done; Keeper does not forcibly kill
// goroutines, matching Go's cooperative cancellation model.
func Make[R any](f func(ctx context.Context) R) *Keeper[R] {
	ctx, cancel := context.WithCancel(context.Background())
	k := &Keeper[R]{
		cancel: cancel,
		result: make(chan keeperResult[R], 1),
		closed: make(chan struct{}),
	}

	go func() {
		value := f(ctx)
		k.result <- keeperResult[R]{value: value}
	}()

	if debugFinalizersEnabled {
		runtime.SetFinalizer(k, func(k *Keeper[R]) {
			select {
			case <-k.closed:
			default:
				panic(fmt.Sprintf("keeper: %T garbage collected without Close", k))
			}
		})
	}

	return k
}

// Close requests cancellation and blocks for the goroutine's result.
// Close is not safe to call twice; the second call panics closing an
// already-closed channel, matching the original's one-shot semantics
// (the closer channel can only be sent once).
func (k *Keeper[R]) Close(ctx context.Context) (R, error) {
	close(k.closed)
	k.cancel()

	select {
	case r := <-k.result:
		return r.value, r.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// IsClosed reports whether Close has been called. It does not mean the
// underlying goroutine has finished, only that cancellation has been
// requested.
func (k *Keeper[R]) IsClosed() bool {
	select {
	case <-k.closed:
		return true
	default:
		return false
	}
}
