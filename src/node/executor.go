package node

import (
	"sync"

	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/net"
	"github.com/mosaicnetworks/routing/src/stats"
	"github.com/sirupsen/logrus"
)

// Executor performs the commands collected by a Context. It is the only part
// of the node that touches the transport and the timers, and it records the
// outgoing traffic in Stats.
type Executor struct {
	localAddr string
	trans     net.Transport
	timers    *TimerService

	stats     *stats.Stats
	statsLock sync.Locker

	// egress rebuilds outgoing user messages so that the request or
	// response they carry is counted once, when the last part is sent.
	egress *messages.Reassembler

	logger *logrus.Entry
}

// NewExecutor returns an Executor sending from localAddr over trans. A nil
// statsLock means the executor owns the stats alone.
func NewExecutor(localAddr string,
	trans net.Transport,
	timers *TimerService,
	stats *stats.Stats,
	statsLock sync.Locker,
	logger *logrus.Entry) *Executor {

	if statsLock == nil {
		statsLock = &sync.Mutex{}
	}

	return &Executor{
		localAddr: localAddr,
		trans:     trans,
		timers:    timers,
		stats:     stats,
		statsLock: statsLock,
		egress:    messages.NewReassembler(0),
		logger:    logger,
	}
}

// Execute performs cmds in order.
func (e *Executor) Execute(cmds []Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case SendMessage:
			e.sendMessage(c)
		case *SendMessage:
			e.sendMessage(*c)
		case ScheduleTimeout:
			e.timers.Schedule(c.Duration, c.Token)
		case *ScheduleTimeout:
			e.timers.Schedule(c.Duration, c.Token)
		default:
			e.logger.WithField("command", cmd.String()).Error("Unsupported command")
		}
	}
}

// sendMessage tries the recipients in order until DeliveryGroupSize of them
// have acknowledged the message. The position of a recipient in the list is
// the route the message is sent on; only the first stats.GroupSize routes are
// counted.
func (e *Executor) sendMessage(cmd SendMessage) {
	e.withStats(func(s *stats.Stats) {
		e.classify(s, cmd.Message)
		s.CountBytes(len(cmd.Message))
	})

	required := cmd.DeliveryGroupSize
	if required <= 0 {
		required = 1
	}

	delivered := 0
	for i, target := range cmd.Recipients {
		if delivered >= required {
			break
		}

		route := uint8(255)
		if i < 255 {
			route = uint8(i)
		}
		// Stats keeps one slot per member of a close group. Recipients past
		// the group are still tried but have no route slot.
		if i < stats.GroupSize {
			e.withStats(func(s *stats.Stats) { s.CountRoute(route) })
		}

		var resp net.DeliverResponse
		err := e.trans.Deliver(target, net.NewDeliverRequest(e.localAddr, route, cmd.Message), &resp)

		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"target": target,
				"route":  route,
				"error":  err,
			}).Warn("Message not delivered")
			continue
		}

		if !resp.Ack {
			e.logger.WithFields(logrus.Fields{
				"target": target,
				"route":  route,
				"reason": resp.Reason,
			}).Warn("Message refused")
			continue
		}

		delivered++
	}

	if delivered < required {
		e.logger.WithFields(logrus.Fields{
			"recipients":          len(cmd.Recipients),
			"delivery_group_size": cmd.DeliveryGroupSize,
			"delivered":           delivered,
		}).Debug("Delivery group not reached")
		e.withStats(func(s *stats.Stats) { s.CountUnacked() })
	}
}

func (e *Executor) classify(s *stats.Stats, payload []byte) {
	var msg messages.Message
	if err := msg.Unmarshal(payload); err != nil {
		e.logger.WithError(err).Warn("Sending undecodable message")
		return
	}

	if msg.Direct != nil {
		s.CountDirectMessage(msg.Direct)
		return
	}

	s.CountRoutingMessage(&msg.Hop.Content)

	if !msg.Hop.Content.IsUserMessagePart() {
		return
	}

	user, err := e.egress.Add(msg.Hop.Content.Content.Part)
	if err != nil {
		e.logger.WithError(err).Warn("Sending invalid user message part")
		return
	}
	if user == nil {
		return
	}

	if user.Request != nil {
		s.CountRequest(user.Request)
	} else {
		s.CountResponse(user.Response)
	}
}

func (e *Executor) withStats(f func(*stats.Stats)) {
	e.statsLock.Lock()
	defer e.statsLock.Unlock()
	f(e.stats)
}
