package protocol

import (
	"errors"
	"sync"
)

var (
	// ErrChanClosed is returned by Send after Close.
	ErrChanClosed = errors.New("send on closed channel")
	// ErrChanFull is returned by Send when the buffer is exhausted.
	ErrChanFull = errors.New("send on full channel")
)

// Chan is a bounded multi-producer single-consumer endpoint. Send never
// blocks: a gone or saturated consumer surfaces as an error at the sender,
// which is how an unreachable neighbor is detected. The consumer side drains
// via C and observes closure as an ordinary channel close.
type Chan[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

// NewChan returns an endpoint buffering up to capacity values.
func NewChan[T any](capacity int) *Chan[T] {
	return &Chan[T]{ch: make(chan T, capacity)}
}

func (c *Chan[T]) Send(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChanClosed
	}
	select {
	case c.ch <- v:
		return nil
	default:
		return ErrChanFull
	}
}

// C exposes the receive side for use in select loops. Buffered values remain
// receivable after Close.
func (c *Chan[T]) C() <-chan T {
	return c.ch
}

// Close marks the endpoint dead for senders. Safe to call more than once.
func (c *Chan[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
