package node

import (
	"context"
	"errors"
	"sync"
)

// ErrEventReceiverClosed is returned when sending on an EventChannel whose
// consumer has gone away.
var ErrEventReceiverClosed = errors.New("event receiver closed")

// Event is a notification for whoever consumes the node's events, typically
// the application. The node does not interpret it.
type Event interface{}

// EventSink accepts events from handlers.
type EventSink interface {
	Send(ev Event) error
}

// EventChannel is an unbounded, one-directional channel of Events. Send never
// blocks. Once the consumer calls Close, Send returns ErrEventReceiverClosed.
type EventChannel struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewEventChannel ...
func NewEventChannel() *EventChannel {
	return &EventChannel{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Send implements EventSink.
func (c *EventChannel) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrEventReceiverClosed
	}

	c.events = append(c.events, ev)

	select {
	case c.signal <- struct{}{}:
	default:
	}

	return nil
}

// TryRecv returns the oldest event without waiting.
func (c *EventChannel) TryRecv() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.events) == 0 {
		return nil, false
	}

	ev := c.events[0]
	c.events[0] = nil
	c.events = c.events[1:]

	return ev, true
}

// Recv waits for the next event. It returns ErrEventReceiverClosed after
// Close, and the context error if ctx is done first.
func (c *EventChannel) Recv(ctx context.Context) (Event, error) {
	for {
		if ev, ok := c.TryRecv(); ok {
			return ev, nil
		}

		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return nil, ErrEventReceiverClosed
		}

		select {
		case <-c.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of events waiting to be received.
func (c *EventChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Close closes the receiving end and drops pending events.
func (c *EventChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.events = nil

	select {
	case c.signal <- struct{}{}:
	default:
	}
}
