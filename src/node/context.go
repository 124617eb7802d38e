package node

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Context is handed to a handler for the duration of one event. It collects
// the commands the handler wants executed and forwards the events it emits.
//
// A Context is used by a single goroutine and for a single event. Once
// IntoCommands has been called, any further use panics.
type Context struct {
	commands []Command
	events   EventSink
	tokens   *TokenAllocator
	logger   *logrus.Entry
	consumed bool
}

// NewContext returns an empty Context bound to the node's event sink. A nil
// allocator means the process-wide one.
func NewContext(events EventSink, tokens *TokenAllocator, logger *logrus.Entry) *Context {
	if tokens == nil {
		tokens = DefaultTokenAllocator()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Context{
		events: events,
		tokens: tokens,
		logger: logger,
	}
}

// PushCommand appends cmd to the command queue. The queue is executed in
// order after the current handler returns.
func (c *Context) PushCommand(cmd Command) {
	c.mustBeLive()
	c.commands = append(c.commands, cmd)
}

// SendMessageToTarget pushes a SendMessage with a single recipient.
func (c *Context) SendMessageToTarget(recipient string, message []byte) {
	c.SendMessageToTargets([]string{recipient}, 1, message)
}

// SendMessageToTargets pushes a SendMessage that succeeds once
// deliveryGroupSize of the recipients have received the message.
func (c *Context) SendMessageToTargets(recipients []string, deliveryGroupSize int, message []byte) {
	c.PushCommand(SendMessage{
		Recipients:        append([]string(nil), recipients...),
		DeliveryGroupSize: deliveryGroupSize,
		Message:           message,
	})
}

// ScheduleTimeout pushes a ScheduleTimeout with a fresh token and returns the
// token.
func (c *Context) ScheduleTimeout(duration time.Duration) TimerToken {
	c.mustBeLive()
	token := c.tokens.Next()
	c.PushCommand(ScheduleTimeout{
		Duration: duration,
		Token:    token,
	})
	return token
}

// SendEvent forwards ev to the event sink. If nobody is listening anymore the
// event is dropped.
func (c *Context) SendEvent(ev Event) {
	c.mustBeLive()
	if c.events == nil {
		c.logger.Error("Event receiver has been closed")
		return
	}
	if err := c.events.Send(ev); err != nil {
		c.logger.WithError(err).Error("Event receiver has been closed")
	}
}

// IntoCommands returns the queued commands in insertion order and retires
// the Context.
func (c *Context) IntoCommands() []Command {
	c.mustBeLive()
	c.consumed = true
	cmds := c.commands
	c.commands = nil
	return cmds
}

func (c *Context) mustBeLive() {
	if c.consumed {
		panic("node: Context used after IntoCommands")
	}
}
