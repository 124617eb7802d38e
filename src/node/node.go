package node

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/net"
	"github.com/mosaicnetworks/routing/src/node/state"
	"github.com/mosaicnetworks/routing/src/stats"
	"github.com/sirupsen/logrus"
)

// ErrNodeShutdown is returned when submitting to a node that has shut down.
var ErrNodeShutdown = errors.New("node is shutdown")

// Node runs a Handler. It turns inbound messages, expired timers and client
// requests into handler calls, one at a time, and executes the commands each
// call queued in its Context before moving on to the next event.
type Node struct {
	state.Manager

	conf   *Config
	logger *logrus.Entry

	handler Handler

	trans   net.Transport
	netCh   <-chan *net.Delivery
	inboxCh chan inbound

	submitCh   chan *messages.Request
	shutdownCh chan struct{}

	timers   *TimerService
	executor *Executor
	events   *EventChannel
	tokens   *TokenAllocator
	ingress  *messages.Reassembler

	stats     *stats.Stats
	statsLock sync.Mutex

	handled      uint64
	shutdownOnce sync.Once
}

// NewNode is a factory method that returns a Node instance
func NewNode(conf *Config, handler Handler, trans net.Transport) *Node {
	return newNode(conf, handler, trans, NewRealTimerService())
}

func newNode(conf *Config, handler Handler, trans net.Transport, timers *TimerService) *Node {
	inboxSize := conf.InboxSize
	if inboxSize <= 0 {
		inboxSize = 1024
	}

	logger := conf.Logger.WithField("node", trans.AdvertiseAddr())

	n := &Node{
		conf:       conf,
		logger:     logger,
		handler:    handler,
		trans:      trans,
		netCh:      trans.Consumer(),
		inboxCh:    make(chan inbound, inboxSize),
		submitCh:   make(chan *messages.Request),
		shutdownCh: make(chan struct{}),
		timers:     timers,
		events:     NewEventChannel(),
		tokens:     conf.Tokens,
		ingress:    messages.NewReassembler(messages.DefaultMaxPending),
		stats:      stats.NewStats(logger),
	}

	n.executor = NewExecutor(trans.AdvertiseAddr(), trans, timers, n.stats, &n.statsLock, logger)

	return n
}

// LocalAddr returns the address the node is known by in the overlay, which is
// the advertised address of its transport.
func (n *Node) LocalAddr() string {
	return n.trans.AdvertiseAddr()
}

// Events returns the channel on which handlers publish their events.
func (n *Node) Events() *EventChannel {
	return n.events
}

// RunAsync calls Run in a separate goroutine.
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	go n.Run()
}

// Run invokes the main loop of the node. It returns after Shutdown.
func (n *Node) Run() {
	if !n.CompareAndSwap(state.Idle, state.Running) {
		n.logger.WithField("state", n.GetState().String()).Error("Node cannot run")
		return
	}

	go n.trans.Listen()

	n.GoFunc(n.receive)

	if starter, ok := n.handler.(Starter); ok {
		n.dispatch(starter.HandleStart)
	}

	for {
		select {
		case in := <-n.inboxCh:
			n.dispatch(func(ctx *Context) { n.handleInbound(ctx, in) })
		case token := <-n.timers.TickCh():
			n.dispatch(func(ctx *Context) { n.handler.HandleTimeout(ctx, token) })
		case req := <-n.submitCh:
			n.dispatch(func(ctx *Context) { n.handler.HandleClientRequest(ctx, req) })
		case <-n.shutdownCh:
			return
		}
	}
}

// dispatch runs one handler call with a fresh Context and executes the
// commands it queued.
func (n *Node) dispatch(handle func(ctx *Context)) {
	ctx := NewContext(n.events, n.tokens, n.logger)
	handle(ctx)
	n.executor.Execute(ctx.IntoCommands())
	atomic.AddUint64(&n.handled, 1)
}

// Submit hands a client request to the handler. It blocks until the event
// loop accepts it.
func (n *Node) Submit(req *messages.Request) error {
	select {
	case n.submitCh <- req:
		return nil
	case <-n.shutdownCh:
		return ErrNodeShutdown
	}
}

// Shutdown stops the event loop and closes the transport. The event channel
// stays open so that the consumer can drain it.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		n.SetState(state.Shutdown)

		close(n.shutdownCh)

		n.WaitRoutines()

		n.timers.Shutdown()

		if err := n.trans.Close(); err != nil {
			n.logger.WithError(err).Error("Closing transport")
		}
	})
}

// NodeStats is a point-in-time view of a node.
type NodeStats struct {
	State         string `json:"state"`
	LocalAddr     string `json:"local_addr"`
	HandledEvents uint64 `json:"handled_events"`
	PendingTimers int    `json:"pending_timers"`
	// RoutingTableSize is -1 when the handler keeps no routing table.
	RoutingTableSize int            `json:"routing_table_size"`
	Traffic          stats.Snapshot `json:"traffic"`
}

// GetStats returns stats
func (n *Node) GetStats() NodeStats {
	n.statsLock.Lock()
	traffic := n.stats.Snapshot()
	n.statsLock.Unlock()

	tableSize := -1
	if table, ok := n.handler.(RoutingTable); ok {
		tableSize = table.RoutingTableSize()
	}

	return NodeStats{
		State:            n.GetState().String(),
		LocalAddr:        n.LocalAddr(),
		HandledEvents:    atomic.LoadUint64(&n.handled),
		PendingTimers:    n.timers.Pending(),
		RoutingTableSize: tableSize,
		Traffic:          traffic,
	}
}
