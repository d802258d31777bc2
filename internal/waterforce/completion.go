// internal/waterforce/completion.go
package waterforce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoData means no matching reply arrived before the timeout, or the
// wait was cancelled. The caller may retry; the core never does.
var ErrNoData = errors.New("waterforce: no data from device")

// completion is a single-slot wait/notify token for one reply kind.
// Exactly one outstanding wait per kind is supported; callers serialize
// rounds themselves (Reset, send, Wait).
type completion struct {
	mu   sync.Mutex
	ch   chan struct{}
	done bool
}

func newCompletion() *completion {
	return &completion{ch: make(chan struct{})}
}

// Reset arms the token for a new round, discarding any consumed signal
// from the previous one.
func (c *completion) Reset() {
	c.mu.Lock()
	if c.done {
		c.ch = make(chan struct{})
		c.done = false
	}
	c.mu.Unlock()
}

// Complete wakes every current and future waiter until the next Reset.
// Calling it again in the same round is a no-op.
func (c *completion) Complete() {
	c.mu.Lock()
	if !c.done {
		close(c.ch)
		c.done = true
	}
	c.mu.Unlock()
}

// Wait blocks until Complete, the timeout, or context cancellation.
// Timeout and cancellation are indistinguishable to the caller: both are
// ErrNoData, and the token remains valid for a subsequent Reset.
func (c *completion) Wait(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return ErrNoData
	case <-ctx.Done():
		return ErrNoData
	}
}
