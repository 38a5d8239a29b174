package progress

import (
	"context"
	"errors"
	"sync"
)

// DefaultBuffer is the channel capacity used by the acquisition pipeline.
const DefaultBuffer = 64

// ErrClosed is returned by Send once the receiver has closed the channel.
var ErrClosed = errors.New("progress channel closed")

// Event is one progress report for a single transfer.
type Event struct {
	Current int64 // Cumulative bytes written so far
	Total   int64 // Expected size in bytes, or -1 when unknown
	Done    bool  // Set on the final event only
}

// TotalKnown reports whether the event carries a content length.
func (e Event) TotalKnown() bool { return e.Total >= 0 }

// Channel is a bounded single-producer single-consumer event queue.
// The zero value is not usable; create one with NewChannel.
type Channel struct {
	events   chan Event
	closed   chan struct{}
	finished chan struct{}

	closeOnce  sync.Once
	finishOnce sync.Once
}

// NewChannel returns an open channel buffering up to size events.
// A size below 1 is treated as 1.
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{
		events:   make(chan Event, size),
		closed:   make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Send enqueues ev, blocking while the buffer is full. It returns ErrClosed
// if the receiver has gone away, or the context error if ctx ends first.
func (c *Channel) Send(ctx context.Context, ev Event) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events exposes the receive side of the queue. It is never closed; use
// Finished to learn that the sender is done.
func (c *Channel) Events() <-chan Event { return c.events }

// Finished is closed once the sender calls Finish.
func (c *Channel) Finished() <-chan struct{} { return c.finished }

// Closed is closed once the receiver calls Close.
func (c *Channel) Closed() <-chan struct{} { return c.closed }

// IsClosed reports whether the receiver has closed the channel.
func (c *Channel) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Close marks the receiver side as gone. It is safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Finish marks the sender side as done. It is safe to call more than once.
func (c *Channel) Finish() {
	c.finishOnce.Do(func() { close(c.finished) })
}
