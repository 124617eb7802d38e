package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/routing/src/common"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	id int
}

func newTestContext(t *testing.T) (*Context, *EventChannel) {
	events := NewEventChannel()
	ctx := NewContext(events, NewTokenAllocator(0), common.NewTestEntry(t, common.TestLogLevel))
	return ctx, events
}

func TestContextEmpty(t *testing.T) {
	ctx, _ := newTestContext(t)
	assert.Empty(t, ctx.IntoCommands())
}

func TestContextQueueOrder(t *testing.T) {
	ctx, _ := newTestContext(t)

	ctx.SendMessageToTarget("a", []byte("one"))
	token := ctx.ScheduleTimeout(time.Second)
	ctx.SendMessageToTargets([]string{"b", "c", "d"}, 2, []byte("two"))
	ctx.PushCommand(ScheduleTimeout{Duration: time.Minute, Token: 99})

	cmds := ctx.IntoCommands()
	require.Len(t, cmds, 4)

	assert.Equal(t, SendMessage{
		Recipients:        []string{"a"},
		DeliveryGroupSize: 1,
		Message:           []byte("one"),
	}, cmds[0])
	assert.Equal(t, ScheduleTimeout{Duration: time.Second, Token: token}, cmds[1])
	assert.Equal(t, SendMessage{
		Recipients:        []string{"b", "c", "d"},
		DeliveryGroupSize: 2,
		Message:           []byte("two"),
	}, cmds[2])
	assert.Equal(t, ScheduleTimeout{Duration: time.Minute, Token: 99}, cmds[3])
}

func TestContextShorthandsMatchPush(t *testing.T) {
	short, _ := newTestContext(t)
	short.SendMessageToTarget("a", []byte("msg"))
	short.SendMessageToTargets([]string{"b", "c"}, 5, []byte("msg"))

	long, _ := newTestContext(t)
	long.PushCommand(SendMessage{Recipients: []string{"a"}, DeliveryGroupSize: 1, Message: []byte("msg")})
	long.PushCommand(SendMessage{Recipients: []string{"b", "c"}, DeliveryGroupSize: 5, Message: []byte("msg")})

	assert.Equal(t, long.IntoCommands(), short.IntoCommands())
}

func TestContextCopiesRecipients(t *testing.T) {
	ctx, _ := newTestContext(t)

	recipients := []string{"a", "b"}
	ctx.SendMessageToTargets(recipients, 1, nil)
	recipients[0] = "z"

	cmds := ctx.IntoCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"a", "b"}, cmds[0].(SendMessage).Recipients)
}

func TestContextScheduleTimeouts(t *testing.T) {
	ctx, _ := newTestContext(t)

	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		50 * time.Millisecond,
	}

	tokens := []TimerToken{}
	for _, d := range durations {
		tokens = append(tokens, ctx.ScheduleTimeout(d))
	}

	assert.Equal(t, tokens[0]+1, tokens[1])
	assert.Equal(t, tokens[1]+1, tokens[2])

	cmds := ctx.IntoCommands()
	require.Len(t, cmds, 3)
	for i, cmd := range cmds {
		assert.Equal(t, ScheduleTimeout{Duration: durations[i], Token: tokens[i]}, cmd)
	}
}

func TestContextTokensAreSharedAcrossContexts(t *testing.T) {
	tokens := NewTokenAllocator(10)

	first := NewContext(nil, tokens, nil)
	second := NewContext(nil, tokens, nil)

	a := first.ScheduleTimeout(time.Second)
	b := second.ScheduleTimeout(time.Second)

	assert.Equal(t, TimerToken(10), a)
	assert.Equal(t, TimerToken(11), b)
}

func TestContextSendEvent(t *testing.T) {
	ctx, events := newTestContext(t)

	ctx.SendEvent(testEvent{1})
	ctx.SendEvent(testEvent{2})

	assert.Empty(t, ctx.IntoCommands(), "events are not commands")

	ev, ok := events.TryRecv()
	require.True(t, ok)
	assert.Equal(t, testEvent{1}, ev)

	ev, ok = events.TryRecv()
	require.True(t, ok)
	assert.Equal(t, testEvent{2}, ev)
}

func TestContextSendEventClosedReceiver(t *testing.T) {
	logger, hook := test.NewNullLogger()

	events := NewEventChannel()
	events.Close()

	ctx := NewContext(events, NewTokenAllocator(0), logrus.NewEntry(logger))
	ctx.SendEvent(testEvent{1})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Event receiver has been closed", entry.Message)

	// the context is still usable
	ctx.SendMessageToTarget("a", nil)
	assert.Len(t, ctx.IntoCommands(), 1)
}

func TestContextSendEventNilSink(t *testing.T) {
	logger, hook := test.NewNullLogger()

	ctx := NewContext(nil, nil, logrus.NewEntry(logger))
	ctx.SendEvent(testEvent{1})

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Event receiver has been closed", hook.LastEntry().Message)
}

func TestContextPanicsAfterIntoCommands(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.IntoCommands()

	assert.Panics(t, func() { ctx.PushCommand(ScheduleTimeout{}) })
	assert.Panics(t, func() { ctx.SendMessageToTarget("a", nil) })
	assert.Panics(t, func() { ctx.ScheduleTimeout(time.Second) })
	assert.Panics(t, func() { ctx.SendEvent(testEvent{}) })
	assert.Panics(t, func() { ctx.IntoCommands() })
}
