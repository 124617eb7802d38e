package node

import (
	"fmt"
	"time"
)

// Command is an effect requested by a handler. Handlers never perform I/O
// themselves; they push Commands into their Context, and the Executor
// performs them once the handler has returned.
//
// The set of commands is open. Any type implementing Command can be pushed;
// the Executor logs and skips the ones it does not know how to perform.
type Command interface {
	String() string
}

// SendMessage sends Message to Recipients, in order, until DeliveryGroupSize
// of them have acknowledged it.
type SendMessage struct {
	Recipients        []string
	DeliveryGroupSize int
	Message           []byte
}

// String ...
func (c SendMessage) String() string {
	return fmt.Sprintf("SendMessage(recipients=%v, delivery_group_size=%d, len=%d)",
		c.Recipients, c.DeliveryGroupSize, len(c.Message))
}

// ScheduleTimeout fires a timeout identified by Token after Duration.
type ScheduleTimeout struct {
	Duration time.Duration
	Token    TimerToken
}

// String ...
func (c ScheduleTimeout) String() string {
	return fmt.Sprintf("ScheduleTimeout(duration=%s, token=%d)", c.Duration, c.Token)
}
