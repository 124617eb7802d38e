package kv

import (
	"context"
	"testing"
	"time"

	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/net"
	"github.com/mosaicnetworks/routing/src/node"
	"github.com/mosaicnetworks/routing/src/peers"
	"github.com/mosaicnetworks/routing/src/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	node    *node.Node
	handler *Handler
	store   *store.InmemStore
}

// initNodes starts n fully connected nodes that all know each other.
func initNodes(t *testing.T, n int) []*testNode {
	addrs := []string{}
	transports := []*net.InmemTransport{}
	for i := 0; i < n; i++ {
		addr, trans := net.NewInmemTransport("")
		addrs = append(addrs, addr)
		transports = append(transports, trans)
	}

	for i, trans := range transports {
		for j, other := range transports {
			if i != j {
				trans.Connect(addrs[j], other)
			}
		}
	}

	ps := []*peers.Peer{}
	for _, addr := range addrs {
		ps = append(ps, peers.NewPeer(addr, ""))
	}

	nodes := []*testNode{}
	for i, trans := range transports {
		conf := node.TestConfig(t)
		conf.MaxPartLen = 128
		conf.RequestTimeout = 300 * time.Millisecond

		s := store.NewInmemStore()
		h := NewHandler(addrs[i], peers.NewPeerSet(ps), s, conf)

		nodes = append(nodes, &testNode{
			node:    node.NewNode(conf, h, trans),
			handler: h,
			store:   s,
		})
	}

	for _, n := range nodes {
		n.node.RunAsync()
	}

	return nodes
}

func shutdownNodes(nodes []*testNode) {
	for _, n := range nodes {
		n.node.Shutdown()
	}
}

// nextEvent returns the next event that is not a PeerEvent.
func nextEvent(t *testing.T, n *testNode) node.Event {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		ev, err := n.node.Events().Recv(ctx)
		require.NoError(t, err)
		if _, ok := ev.(PeerEvent); ok {
			continue
		}
		return ev
	}
}

func request(t *testing.T, n *testNode, req *messages.Request) *messages.Response {
	require.NoError(t, n.node.Submit(req))

	ev := nextEvent(t, n)
	resp, ok := ev.(ResponseEvent)
	require.True(t, ok, "unexpected event %#v", ev)
	return resp.Response
}

func TestPutGet(t *testing.T) {
	nodes := initNodes(t, 3)
	defer shutdownNodes(nodes)

	value := make([]byte, 1000)
	for i := range value {
		value[i] = byte(i)
	}

	resp := request(t, nodes[0], &messages.Request{Kind: messages.Put, Name: "key", Data: value})
	assert.Equal(t, messages.PutSuccess, resp.Kind)

	resp = request(t, nodes[0], &messages.Request{Kind: messages.Get, Name: "key"})
	assert.Equal(t, messages.GetSuccess, resp.Kind)
	assert.Equal(t, value, resp.Data)

	resp = request(t, nodes[0], &messages.Request{Kind: messages.Put, Name: "key", Data: value})
	assert.Equal(t, messages.PutFailure, resp.Kind)
	assert.NotEmpty(t, resp.Reason)

	// the close group of node 0 holds the value, node 0 itself does not
	_, err := nodes[0].store.Get("key")
	assert.Error(t, err)
	for _, n := range nodes[1:] {
		data, err := n.store.Get("key")
		require.NoError(t, err)
		assert.Equal(t, value, data)
	}

	stats := nodes[0].node.GetStats().Traffic
	assert.Equal(t, uint64(2), stats.User.Put.Requests)
	assert.Equal(t, uint64(1), stats.User.Get.Requests)
	assert.Equal(t, uint64(0), stats.Unacked)

	assert.Equal(t, 2, nodes[0].node.GetStats().RoutingTableSize)

	// both members answered, only the first response is reported
	assert.Equal(t, 0, nodes[0].handler.Pending())
}

func TestRequestTimeout(t *testing.T) {
	addr, trans := net.NewInmemTransport("")
	_, silent := net.NewInmemTransport("")
	trans.Connect(silent.LocalAddr(), silent)

	conf := node.TestConfig(t)
	conf.RequestTimeout = 100 * time.Millisecond

	h := NewHandler(addr, peers.NewPeerSet([]*peers.Peer{peers.NewPeer(silent.LocalAddr(), "")}),
		store.NewInmemStore(), conf)
	n := &testNode{node: node.NewNode(conf, h, trans), handler: h}
	defer n.node.Shutdown()

	// acknowledge everything sent to the silent transport without ever
	// answering a request
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case d := <-silent.Consumer():
				d.Ack()
			case <-done:
				return
			}
		}
	}()

	n.node.RunAsync()

	require.NoError(t, n.node.Submit(&messages.Request{Kind: messages.Get, Name: "nothing"}))

	ev := nextEvent(t, n)
	timeout, ok := ev.(TimeoutEvent)
	require.True(t, ok, "unexpected event %#v", ev)
	assert.Equal(t, "nothing", timeout.Request.Name)
	assert.Equal(t, 0, n.node.GetStats().PendingTimers)
}

func TestRefreshLearnsPeers(t *testing.T) {
	nodes := initNodes(t, 3)
	defer shutdownNodes(nodes)

	// node 0 only knows node 1 at first
	lonely := nodes[0].handler
	lonely.peerLock.Lock()
	lonely.peers = lonely.peers.WithRemovedPeer(nodes[2].node.LocalAddr())
	lonely.peerLock.Unlock()

	require.NoError(t, nodes[0].node.Submit(&messages.Request{Kind: messages.Refresh}))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		ev, err := nodes[0].node.Events().Recv(ctx)
		require.NoError(t, err)
		if pe, ok := ev.(PeerEvent); ok && pe.NetAddr == nodes[2].node.LocalAddr() {
			assert.True(t, pe.Added)
			break
		}
	}

	assert.True(t, lonely.Peers().Contains(nodes[2].node.LocalAddr()))
}
