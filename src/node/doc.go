// Package node implements the execution core of a routing node.
//
// # Handlers and commands
//
// The protocol logic of a node lives in a Handler. A Handler never performs
// I/O. For every event (an inbound message, an expired timeout or a client
// request) the node creates a fresh Context and calls the Handler with it. The
// Handler records what it wants done by pushing Commands into the Context:
// SendMessage to deliver a message to one or more recipients, and
// ScheduleTimeout to be called back later. It may also emit Events for the
// application through Context.SendEvent.
//
// Once the Handler returns, the node drains the Context with IntoCommands and
// hands the commands, in order, to the Executor. A Context is single-use.
//
// # Timer tokens
//
// ScheduleTimeout allocates a TimerToken from a process-wide atomic counter
// and returns it to the Handler, which keeps it to recognise the timeout when
// HandleTimeout is called. Tokens are never reused, so a Handler can tell a
// stale timeout from a live one.
//
// # Delivery
//
// The Executor tries the recipients of a SendMessage in order and stops once
// DeliveryGroupSize of them have acknowledged the message. The position of a
// recipient in the list is the route the message travels on. Every message
// sent is recorded in the node's traffic Stats, see package stats.
//
// Inbound RPCs are acknowledged by a background goroutine as soon as they are
// queued, independently of the event loop.
package node
