package node

import (
	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/net"
	"github.com/sirupsen/logrus"
)

// inbound is a message accepted by the transport and waiting for the event
// loop.
type inbound struct {
	from    string
	payload []byte
}

// receive acknowledges inbound deliveries and queues their payload for the
// event loop. Acks never wait on the handler, so two nodes delivering to each
// other cannot deadlock.
func (n *Node) receive() {
	for {
		select {
		case d := <-n.netCh:
			n.processDelivery(d)
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processDelivery(d *net.Delivery) {
	req := d.Request

	n.logger.WithFields(logrus.Fields{
		"from":  req.From,
		"kind":  req.Kind,
		"route": req.Route,
		"len":   len(req.Payload),
	}).Debug("process DeliverRequest")

	select {
	case n.inboxCh <- inbound{from: req.From, payload: req.Payload}:
		d.Ack()
	case <-n.shutdownCh:
		d.Refuse(ErrNodeShutdown)
	}
}

// handleInbound decodes an inbound message and passes it to the matching
// handler method. User message parts are held until the message is complete.
func (n *Node) handleInbound(ctx *Context, in inbound) {
	var msg messages.Message
	if err := msg.Unmarshal(in.payload); err != nil {
		n.logger.WithError(err).WithField("from", in.from).Warn("Dropping undecodable message")
		return
	}

	if msg.Direct != nil {
		n.handler.HandleDirectMessage(ctx, in.from, msg.Direct)
		return
	}

	routing := &msg.Hop.Content

	if !routing.IsUserMessagePart() {
		n.handler.HandleRoutingMessage(ctx, in.from, routing)
		return
	}

	user, err := n.ingress.Add(routing.Content.Part)
	if err != nil {
		n.logger.WithError(err).WithField("src", routing.Src).Warn("Dropping user message part")
		return
	}
	if user == nil {
		return
	}

	n.handler.HandleUserMessage(ctx, routing.Src, user)
}
