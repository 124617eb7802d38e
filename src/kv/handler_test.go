package kv

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/routing/src/common"
	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/node"
	"github.com/mosaicnetworks/routing/src/peers"
	"github.com/mosaicnetworks/routing/src/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	t       *testing.T
	handler *Handler
	store   *store.InmemStore
	events  *node.EventChannel
	tokens  *node.TokenAllocator
}

func newHandlerFixture(t *testing.T, peerAddrs ...string) *handlerFixture {
	ps := []*peers.Peer{}
	for _, addr := range peerAddrs {
		ps = append(ps, peers.NewPeer(addr, ""))
	}

	conf := node.TestConfig(t)
	conf.GroupSize = 2
	conf.MaxPartLen = 64
	conf.RequestTimeout = time.Second

	s := store.NewInmemStore()

	return &handlerFixture{
		t:       t,
		handler: NewHandler("self", peers.NewPeerSet(ps), s, conf),
		store:   s,
		events:  node.NewEventChannel(),
		tokens:  node.NewTokenAllocator(0),
	}
}

func (f *handlerFixture) run(handle func(ctx *node.Context)) []node.Command {
	ctx := node.NewContext(f.events, f.tokens, common.NewTestEntry(f.t, common.TestLogLevel))
	handle(ctx)
	return ctx.IntoCommands()
}

func (f *handlerFixture) event() node.Event {
	ev, ok := f.events.TryRecv()
	require.True(f.t, ok, "expected an event")
	return ev
}

func (f *handlerFixture) noEvent() {
	ev, ok := f.events.TryRecv()
	assert.False(f.t, ok, "unexpected event %#v", ev)
}

func decode(t *testing.T, cmd node.Command) (node.SendMessage, *messages.Message) {
	send, ok := cmd.(node.SendMessage)
	require.True(t, ok, "not a SendMessage: %v", cmd)

	msg := &messages.Message{}
	require.NoError(t, msg.Unmarshal(send.Message))

	return send, msg
}

// reassemble collects the user message carried by the SendMessage commands.
func reassemble(t *testing.T, cmds []node.Command) (*messages.UserMessage, []string) {
	r := messages.NewReassembler(0)

	var recipients []string
	for _, cmd := range cmds {
		send, ok := cmd.(node.SendMessage)
		if !ok {
			continue
		}
		msg := &messages.Message{}
		require.NoError(t, msg.Unmarshal(send.Message))
		require.True(t, msg.Hop.Content.IsUserMessagePart())

		recipients = send.Recipients

		user, err := r.Add(msg.Hop.Content.Content.Part)
		require.NoError(t, err)
		if user != nil {
			return user, recipients
		}
	}

	t.Fatal("user message incomplete")
	return nil, nil
}

func TestHandlerStart(t *testing.T) {
	f := newHandlerFixture(t, "c", "a", "b", "self")

	cmds := f.run(f.handler.HandleStart)
	require.Len(t, cmds, 1)

	send, msg := decode(t, cmds[0])
	assert.Equal(t, []string{"a", "b", "c"}, send.Recipients)
	assert.Equal(t, 3, send.DeliveryGroupSize)
	require.NotNil(t, msg.Direct)
	assert.Equal(t, messages.NodeIdentify, msg.Direct.Kind)
	assert.Equal(t, "self", msg.Direct.Name)
}

func TestHandlerStartWithoutPeers(t *testing.T) {
	f := newHandlerFixture(t)
	assert.Empty(t, f.run(f.handler.HandleStart))
}

func TestHandlerClientRequest(t *testing.T) {
	f := newHandlerFixture(t, "c", "a", "b")

	req := &messages.Request{
		Kind: messages.Put,
		Name: "key",
		Data: make([]byte, 200),
	}

	cmds := f.run(func(ctx *node.Context) { f.handler.HandleClientRequest(ctx, req) })
	require.True(t, len(cmds) > 2, "expected several parts and a timeout")

	timeout, ok := cmds[len(cmds)-1].(node.ScheduleTimeout)
	require.True(t, ok)
	assert.Equal(t, time.Second, timeout.Duration)
	assert.Equal(t, node.TimerToken(0), timeout.Token)

	user, recipients := reassemble(t, cmds[:len(cmds)-1])
	assert.Equal(t, []string{"a", "b"}, recipients)
	require.NotNil(t, user.Request)
	assert.Equal(t, uint64(1), user.Request.ID)
	assert.Equal(t, messages.Put, user.Request.Kind)
	assert.Equal(t, req.Data, user.Request.Data)

	assert.Equal(t, uint64(0), req.ID, "the caller's request is not modified")
	assert.Equal(t, 1, f.handler.Pending())
	f.noEvent()
}

func TestHandlerClientRequestWithoutPeers(t *testing.T) {
	f := newHandlerFixture(t)

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleClientRequest(ctx, &messages.Request{Kind: messages.Get, Name: "key"})
	})
	assert.Empty(t, cmds)

	ev, ok := f.event().(ResponseEvent)
	require.True(t, ok)
	assert.Equal(t, messages.GetFailure, ev.Response.Kind)
	assert.Equal(t, ErrNoPeers.Error(), ev.Response.Reason)
}

func TestHandlerFirstResponseWins(t *testing.T) {
	f := newHandlerFixture(t, "a", "b")

	f.run(func(ctx *node.Context) {
		f.handler.HandleClientRequest(ctx, &messages.Request{Kind: messages.Get, Name: "key"})
	})

	resp := &messages.Response{Kind: messages.GetSuccess, RequestID: 1, Name: "key", Data: []byte("v")}

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleUserMessage(ctx, "a", &messages.UserMessage{Response: resp})
	})
	assert.Empty(t, cmds)
	assert.Equal(t, ResponseEvent{Response: resp}, f.event())

	f.run(func(ctx *node.Context) {
		f.handler.HandleUserMessage(ctx, "b", &messages.UserMessage{Response: resp})
	})
	f.noEvent()

	// the timeout of an answered request is stale
	f.run(func(ctx *node.Context) { f.handler.HandleTimeout(ctx, 0) })
	f.noEvent()
	assert.Equal(t, 0, f.handler.Pending())
}

func TestHandlerTimeout(t *testing.T) {
	f := newHandlerFixture(t, "a")

	var token node.TimerToken
	f.run(func(ctx *node.Context) {
		f.handler.HandleClientRequest(ctx, &messages.Request{Kind: messages.Delete, Name: "key"})
	})
	token = 0

	f.run(func(ctx *node.Context) { f.handler.HandleTimeout(ctx, token+100) })
	f.noEvent()

	f.run(func(ctx *node.Context) { f.handler.HandleTimeout(ctx, token) })

	ev, ok := f.event().(TimeoutEvent)
	require.True(t, ok)
	assert.Equal(t, messages.Delete, ev.Request.Kind)
	assert.Equal(t, "key", ev.Request.Name)

	f.run(func(ctx *node.Context) { f.handler.HandleTimeout(ctx, token) })
	f.noEvent()
}

func TestHandlerAnswersRequests(t *testing.T) {
	f := newHandlerFixture(t, "a")

	require.NoError(t, f.store.Put("key", []byte("value")))

	cases := []struct {
		req  messages.Request
		kind messages.ResponseKind
		data []byte
	}{
		{messages.Request{Kind: messages.Get, ID: 1, Name: "key"}, messages.GetSuccess, []byte("value")},
		{messages.Request{Kind: messages.Get, ID: 2, Name: "missing"}, messages.GetFailure, nil},
		{messages.Request{Kind: messages.Put, ID: 3, Name: "key", Data: []byte("x")}, messages.PutFailure, nil},
		{messages.Request{Kind: messages.Post, ID: 4, Name: "key", Data: []byte("new")}, messages.PostSuccess, nil},
		{messages.Request{Kind: messages.GetAccountInfo, ID: 5}, messages.GetAccountInfoSuccess, []byte("1")},
		{messages.Request{Kind: messages.Delete, ID: 6, Name: "key"}, messages.DeleteSuccess, nil},
		{messages.Request{Kind: messages.Delete, ID: 7, Name: "key"}, messages.DeleteFailure, nil},
	}

	for _, c := range cases {
		req := c.req
		cmds := f.run(func(ctx *node.Context) {
			f.handler.HandleUserMessage(ctx, "origin", &messages.UserMessage{Request: &req})
		})

		user, recipients := reassemble(t, cmds)
		assert.Equal(t, []string{"origin"}, recipients)
		require.NotNil(t, user.Response)
		assert.Equal(t, c.kind, user.Response.Kind, "request %d", req.ID)
		assert.Equal(t, req.ID, user.Response.RequestID)
		assert.Equal(t, c.data, user.Response.Data, "request %d", req.ID)
	}

	data, err := f.store.Get("key")
	assert.Error(t, err)
	assert.Nil(t, data)
}

func TestHandlerRefreshIsNotAnswered(t *testing.T) {
	f := newHandlerFixture(t, "a")

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleUserMessage(ctx, "origin", &messages.UserMessage{
			Request: &messages.Request{Kind: messages.Refresh},
		})
	})
	assert.Empty(t, cmds)
}

func TestHandlerRefresh(t *testing.T) {
	f := newHandlerFixture(t, "a", "b", "c")

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleClientRequest(ctx, &messages.Request{Kind: messages.Refresh})
	})
	require.Len(t, cmds, 1)

	send, msg := decode(t, cmds[0])
	assert.Equal(t, []string{"a", "b"}, send.Recipients)
	require.NotNil(t, msg.Hop)
	assert.Equal(t, messages.GetCloseGroup, msg.Hop.Content.Content.Kind)
	assert.Equal(t, 0, f.handler.Pending())
}

func TestHandlerDirectMessages(t *testing.T) {
	f := newHandlerFixture(t, "a")

	f.run(func(ctx *node.Context) {
		f.handler.HandleDirectMessage(ctx, "b", &messages.DirectMessage{Kind: messages.NodeIdentify, Name: "b"})
	})
	assert.Equal(t, PeerEvent{NetAddr: "b", Added: true}, f.event())
	assert.True(t, f.handler.Peers().Contains("b"))

	// already known
	f.run(func(ctx *node.Context) {
		f.handler.HandleDirectMessage(ctx, "b", &messages.DirectMessage{Kind: messages.NewNode, Name: "b"})
	})
	f.noEvent()

	f.run(func(ctx *node.Context) {
		f.handler.HandleDirectMessage(ctx, "a", &messages.DirectMessage{Kind: messages.ConnectionUnneeded})
	})
	assert.Equal(t, PeerEvent{NetAddr: "a", Added: false}, f.event())
	assert.False(t, f.handler.Peers().Contains("a"))

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleDirectMessage(ctx, "a", &messages.DirectMessage{Kind: messages.Heartbeat})
	})
	assert.Empty(t, cmds)
	f.noEvent()
}

func TestHandlerRoutingMessages(t *testing.T) {
	f := newHandlerFixture(t, "a", "b", "c")

	query := func(kind messages.ContentKind) *messages.Message {
		cmds := f.run(func(ctx *node.Context) {
			f.handler.HandleRoutingMessage(ctx, "a", &messages.RoutingMessage{
				Src:     "a",
				Dst:     "self",
				Content: messages.MessageContent{Kind: kind, Hash: 42},
			})
		})
		require.Len(t, cmds, 1)
		send, msg := decode(t, cmds[0])
		assert.Equal(t, []string{"a"}, send.Recipients)
		assert.Equal(t, "self", msg.Hop.Content.Src)
		assert.Equal(t, "a", msg.Hop.Content.Dst)
		return msg
	}

	msg := query(messages.GetNodeName)
	assert.Equal(t, messages.GetNodeNameResponse, msg.Hop.Content.Content.Kind)
	assert.Equal(t, "self", msg.Hop.Content.Content.Name)

	msg = query(messages.GetCloseGroup)
	assert.Equal(t, messages.GetCloseGroupResponse, msg.Hop.Content.Content.Kind)
	assert.Equal(t, []string{"b", "self"}, msg.Hop.Content.Content.Group)

	msg = query(messages.ConnectionInfo)
	assert.Equal(t, messages.Ack, msg.Hop.Content.Content.Kind)
	assert.Equal(t, uint64(42), msg.Hop.Content.Content.Hash)

	f.run(func(ctx *node.Context) {
		f.handler.HandleRoutingMessage(ctx, "a", &messages.RoutingMessage{
			Src: "a",
			Content: messages.MessageContent{
				Kind:  messages.GetCloseGroupResponse,
				Group: []string{"a", "d", "self"},
			},
		})
	})
	assert.Equal(t, PeerEvent{NetAddr: "d", Added: true}, f.event())
	f.noEvent()

	f.run(func(ctx *node.Context) {
		f.handler.HandleRoutingMessage(ctx, "e", &messages.RoutingMessage{
			Src:     "e",
			Content: messages.MessageContent{Kind: messages.GetNodeNameResponse, Name: "e"},
		})
	})
	assert.Equal(t, PeerEvent{NetAddr: "e", Added: true}, f.event())

	cmds := f.run(func(ctx *node.Context) {
		f.handler.HandleRoutingMessage(ctx, "a", &messages.RoutingMessage{
			Src:     "a",
			Content: messages.MessageContent{Kind: messages.Ack},
		})
	})
	assert.Empty(t, cmds)
	f.noEvent()
}

func TestHandlerNonPositiveGroupSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		f := newHandlerFixture(t, "a", "b", "c")
		f.handler.conf.GroupSize = size

		cmds := f.run(func(ctx *node.Context) {
			f.handler.HandleRoutingMessage(ctx, "a", &messages.RoutingMessage{
				Src:     "a",
				Dst:     "self",
				Content: messages.MessageContent{Kind: messages.GetCloseGroup},
			})
		})
		require.Len(t, cmds, 1)
		_, msg := decode(t, cmds[0])
		assert.Equal(t, []string{"self"}, msg.Hop.Content.Content.Group, "size %d", size)

		cmds = f.run(func(ctx *node.Context) {
			f.handler.HandleClientRequest(ctx, &messages.Request{Kind: messages.Get, Name: "key"})
		})
		require.NotEmpty(t, cmds)
		send, _ := decode(t, cmds[0])
		assert.Equal(t, []string{"a"}, send.Recipients, "size %d", size)
		f.noEvent()
	}
}
