package resilience

import (
	"context"
	"fmt"
	"sync"
)

// Flight collapses concurrent calls sharing a key into one execution whose
// result every caller receives.
type Flight[T any] struct {
	mu    sync.Mutex
	calls map[string]*flightCall[T]
}

type flightCall[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Do runs fn once per key among overlapping callers. fn gets a context that
// keeps the first caller's values but is cancelled only after every waiting
// caller has given up, so one caller's cancellation never fails the others.
// A caller whose ctx ends before the result is ready gets ctx.Err(). shared
// reports whether the call was started by another caller.
func (f *Flight[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (val T, err error, shared bool) {
	if err := ctx.Err(); err != nil {
		return val, err, false
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]*flightCall[T])
	}
	c, shared := f.calls[key]
	if shared {
		c.waiters++
	} else {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &flightCall[T]{done: make(chan struct{}), waiters: 1, cancel: cancel}
		f.calls[key] = c
		go f.run(runCtx, key, c, fn)
	}
	f.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err, shared
	case <-ctx.Done():
		f.leave(key, c)
		return val, ctx.Err(), shared
	}
}

func (f *Flight[T]) run(ctx context.Context, key string, c *flightCall[T], fn func(ctx context.Context) (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("flight %s panicked: %v", key, r)
		}
		f.mu.Lock()
		if f.calls[key] == c {
			delete(f.calls, key)
		}
		f.mu.Unlock()
		c.cancel()
		close(c.done)
	}()
	c.val, c.err = fn(ctx)
}

// leave drops one waiter. The last one out cancels the call and unmaps it so
// later callers start fresh instead of joining a cancelled execution.
func (f *Flight[T]) leave(key string, c *flightCall[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.waiters--
	if c.waiters > 0 {
		return
	}
	if f.calls[key] == c {
		delete(f.calls, key)
	}
	c.cancel()
}
