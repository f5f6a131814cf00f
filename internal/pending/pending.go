// Package pending provides a single-slot coordinator for request/response
// flows that cross process boundaries: a tool call starts waiting, the
// browser side later resolves or cancels, and stale waiters are superseded
// rather than leaked.
package pending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds how long a waiter stays live without a resolution.
const DefaultTimeout = 600 * time.Second

var (
	// ErrSuperseded is delivered to a waiter displaced by a newer request.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrTimeout is delivered when no resolution arrives in time.
	ErrTimeout = errors.New("timed out waiting for response")
	// ErrCancelled wraps an explicit cancellation with its reason.
	ErrCancelled = errors.New("cancelled")
)

// Outcome is the terminal state of one coordinated request.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Coordinator matches at most one in-flight request with its eventual
// response. Starting a new request while one is pending rejects the old
// waiter with ErrSuperseded. Resolutions arriving with no waiter are
// dropped silently.
type Coordinator[T any] struct {
	mu      sync.Mutex
	waiter  chan Outcome[T]
	timer   *time.Timer
	timeout time.Duration
}

// NewCoordinator returns a coordinator with the default timeout.
func NewCoordinator[T any]() *Coordinator[T] {
	return &Coordinator[T]{timeout: DefaultTimeout}
}

// NewCoordinatorTimeout returns a coordinator with a custom timeout.
// A non-positive timeout disables the timer.
func NewCoordinatorTimeout[T any](timeout time.Duration) *Coordinator[T] {
	return &Coordinator[T]{timeout: timeout}
}

// Start registers a new waiter and returns the channel its outcome will be
// delivered on. Any previous waiter receives ErrSuperseded immediately.
func (c *Coordinator[T]) Start() <-chan Outcome[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finishLocked(Outcome[T]{Err: ErrSuperseded})

	ch := make(chan Outcome[T], 1)
	c.waiter = ch
	if c.timeout > 0 {
		c.timer = time.AfterFunc(c.timeout, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.waiter == ch {
				c.finishLocked(Outcome[T]{Err: ErrTimeout})
			}
		})
	}
	return ch
}

// Resolve delivers a value to the current waiter. A resolution with no
// waiter pending is a no-op.
func (c *Coordinator[T]) Resolve(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked(Outcome[T]{Value: v})
}

// Cancel delivers an ErrCancelled outcome carrying the reason to the
// current waiter. A cancellation with no waiter pending is a no-op.
func (c *Coordinator[T]) Cancel(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked(Outcome[T]{Err: fmt.Errorf("%w: %s", ErrCancelled, reason)})
}

// Active reports whether a waiter is currently pending.
func (c *Coordinator[T]) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiter != nil
}

func (c *Coordinator[T]) finishLocked(out Outcome[T]) {
	if c.waiter == nil {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.waiter <- out
	c.waiter = nil
}

// Wait blocks until the outcome arrives or ctx is done. On context
// cancellation the coordinator is left untouched; a later Start will
// supersede the abandoned waiter.
func Wait[T any](ctx context.Context, ch <-chan Outcome[T]) (T, error) {
	select {
	case out := <-ch:
		return out.Value, out.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
