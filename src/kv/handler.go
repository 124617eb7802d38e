package kv

import (
	"errors"
	"strconv"
	"sync"

	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/mosaicnetworks/routing/src/node"
	"github.com/mosaicnetworks/routing/src/peers"
	"github.com/mosaicnetworks/routing/src/store"
	"github.com/sirupsen/logrus"
)

// ErrNoPeers is the reason given for requests that cannot be sent anywhere.
var ErrNoPeers = errors.New("no peers to send the request to")

type pendingRequest struct {
	request *messages.Request
	token   node.TimerToken
}

// Handler is a key-value store spread over the close group of each name. It
// forwards client requests to the close group, answers the requests of other
// nodes from its Store, and keeps its peer set up to date from the control
// messages it receives.
//
// All methods except Peers are called from the node's event loop.
type Handler struct {
	name  string
	store store.Store
	conf  *node.Config

	peerLock sync.RWMutex
	peers    *peers.PeerSet

	nextID  uint64
	pending map[uint64]*pendingRequest
	byToken map[node.TimerToken]uint64

	logger *logrus.Entry
}

// NewHandler returns a Handler for the node known as name.
func NewHandler(name string, peerSet *peers.PeerSet, store store.Store, conf *node.Config) *Handler {
	if peerSet == nil {
		peerSet = peers.NewPeerSet([]*peers.Peer{})
	}

	return &Handler{
		name:    name,
		store:   store,
		conf:    conf,
		peers:   peerSet,
		pending: make(map[uint64]*pendingRequest),
		byToken: make(map[node.TimerToken]uint64),
		logger: conf.Logger.WithFields(logrus.Fields{
			"component": "kv",
			"name":      name,
		}),
	}
}

// Peers returns the current peer set. It is safe to call from any goroutine.
func (h *Handler) Peers() *peers.PeerSet {
	h.peerLock.RLock()
	defer h.peerLock.RUnlock()
	return h.peers
}

// RoutingTableSize returns the number of known nodes other than this one.
func (h *Handler) RoutingTableSize() int {
	return len(h.Peers().CloseGroup(h.name, -1))
}

// Pending returns the number of client requests waiting for a response.
func (h *Handler) Pending() int {
	return len(h.pending)
}

// HandleStart introduces the node to every known peer.
func (h *Handler) HandleStart(ctx *node.Context) {
	all := h.Peers().CloseGroup(h.name, -1)
	if len(all) == 0 {
		h.logger.Debug("No peers to identify to")
		return
	}

	h.send(ctx, all, len(all), messages.NewDirectMessage(messages.NodeIdentify, h.name))
}

// HandleClientRequest sends req to the close group of req.Name and waits for
// the first response.
func (h *Handler) HandleClientRequest(ctx *node.Context, req *messages.Request) {
	group := h.Peers().CloseGroup(h.name, h.groupSize())

	if req.Kind == messages.Refresh {
		h.refresh(ctx, group)
		return
	}

	h.nextID++
	r := *req
	r.ID = h.nextID

	if len(group) == 0 {
		h.logger.WithField("request", r.Kind.String()).Warn("No peers")
		ctx.SendEvent(ResponseEvent{Response: messages.NewResponse(&r, nil, ErrNoPeers)})
		return
	}

	h.sendUser(ctx, group, r.Name, &messages.UserMessage{Request: &r})

	token := ctx.ScheduleTimeout(h.conf.RequestTimeout)
	h.pending[r.ID] = &pendingRequest{request: &r, token: token}
	h.byToken[token] = r.ID

	h.logger.WithFields(logrus.Fields{
		"request": r.Kind.String(),
		"id":      r.ID,
		"name":    r.Name,
		"group":   len(group),
		"token":   token,
	}).Debug("Request sent")
}

func (h *Handler) refresh(ctx *node.Context, group []string) {
	if len(group) == 0 {
		h.logger.Debug("Nothing to refresh")
		return
	}

	h.send(ctx, group, len(group), messages.NewHopMessage(h.name, h.name,
		messages.MessageContent{Kind: messages.GetCloseGroup}, 0))
}

// HandleUserMessage answers requests from the store and reports the first
// response to each of our own requests.
func (h *Handler) HandleUserMessage(ctx *node.Context, src string, msg *messages.UserMessage) {
	if msg.Request != nil {
		resp, ok := h.answer(msg.Request)
		if !ok {
			return
		}
		h.sendUser(ctx, []string{src}, src, &messages.UserMessage{Response: resp})
		return
	}

	resp := msg.Response

	p, ok := h.pending[resp.RequestID]
	if !ok {
		h.logger.WithFields(logrus.Fields{
			"response": resp.Kind.String(),
			"id":       resp.RequestID,
			"src":      src,
		}).Debug("Ignoring late or duplicate response")
		return
	}

	delete(h.pending, resp.RequestID)
	delete(h.byToken, p.token)

	ctx.SendEvent(ResponseEvent{Response: resp})
}

func (h *Handler) answer(req *messages.Request) (*messages.Response, bool) {
	var (
		data []byte
		err  error
	)

	switch req.Kind {
	case messages.Get:
		data, err = h.store.Get(req.Name)
	case messages.Put:
		err = h.store.Put(req.Name, req.Data)
	case messages.Post:
		err = h.store.Post(req.Name, req.Data)
	case messages.Delete:
		err = h.store.Delete(req.Name)
	case messages.GetAccountInfo:
		var count int
		count, err = h.store.Len()
		data = []byte(strconv.Itoa(count))
	default:
		h.logger.WithField("request", req.Kind.String()).Warn("Request cannot be answered")
		return nil, false
	}

	if err != nil {
		h.logger.WithError(err).WithField("request", req.Kind.String()).Debug("Request failed")
	}

	return messages.NewResponse(req, data, err), true
}

// HandleTimeout reports the requests that got no response. Tokens of
// requests that were already answered are ignored.
func (h *Handler) HandleTimeout(ctx *node.Context, token node.TimerToken) {
	id, ok := h.byToken[token]
	if !ok {
		h.logger.WithField("token", token).Debug("Stale timeout")
		return
	}

	p := h.pending[id]

	delete(h.byToken, token)
	delete(h.pending, id)

	ctx.SendEvent(TimeoutEvent{Request: p.request})
}

// HandleDirectMessage keeps the peer set in line with the nodes that
// introduce themselves or hang up.
func (h *Handler) HandleDirectMessage(ctx *node.Context, from string, msg *messages.DirectMessage) {
	switch msg.Kind {
	case messages.NodeIdentify, messages.NewNode:
		h.addPeer(ctx, from)
	case messages.ConnectionUnneeded:
		h.removePeer(ctx, from)
	default:
		h.logger.WithFields(logrus.Fields{
			"from": from,
			"kind": msg.Kind.String(),
		}).Debug("Ignoring direct message")
	}
}

// HandleRoutingMessage answers node-name and close-group queries and learns
// about nodes from the answers.
func (h *Handler) HandleRoutingMessage(ctx *node.Context, from string, msg *messages.RoutingMessage) {
	switch msg.Content.Kind {
	case messages.GetNodeName:
		h.reply(ctx, msg, messages.MessageContent{
			Kind: messages.GetNodeNameResponse,
			Name: h.name,
		})
	case messages.GetCloseGroup:
		group := append(h.Peers().CloseGroup(msg.Src, h.groupSize()-1), h.name)
		h.reply(ctx, msg, messages.MessageContent{
			Kind:  messages.GetCloseGroupResponse,
			Group: group,
		})
	case messages.ConnectionInfo:
		h.reply(ctx, msg, messages.MessageContent{
			Kind: messages.Ack,
			Hash: msg.Content.Hash,
		})
	case messages.GetCloseGroupResponse:
		for _, addr := range msg.Content.Group {
			h.addPeer(ctx, addr)
		}
	case messages.GetNodeNameResponse, messages.ExpectCloseNode:
		h.addPeer(ctx, msg.Content.Name)
	default:
		h.logger.WithFields(logrus.Fields{
			"from": from,
			"src":  msg.Src,
			"kind": msg.Content.Kind.String(),
		}).Debug("Ignoring routing message")
	}
}

// groupSize is the configured close group size. Non-positive sizes mean a
// group of one, as for delivery groups.
func (h *Handler) groupSize() int {
	if h.conf.GroupSize < 1 {
		return 1
	}
	return h.conf.GroupSize
}

func (h *Handler) reply(ctx *node.Context, to *messages.RoutingMessage, content messages.MessageContent) {
	h.send(ctx, []string{to.Src}, 1, messages.NewHopMessage(h.name, to.Src, content, 0))
}

func (h *Handler) addPeer(ctx *node.Context, addr string) {
	if addr == "" || addr == h.name {
		return
	}

	h.peerLock.Lock()
	if h.peers.Contains(addr) {
		h.peerLock.Unlock()
		return
	}
	h.peers = h.peers.WithNewPeer(peers.NewPeer(addr, ""))
	h.peerLock.Unlock()

	h.logger.WithField("peer", addr).Debug("Peer added")
	ctx.SendEvent(PeerEvent{NetAddr: addr, Added: true})
}

func (h *Handler) removePeer(ctx *node.Context, addr string) {
	h.peerLock.Lock()
	if !h.peers.Contains(addr) {
		h.peerLock.Unlock()
		return
	}
	h.peers = h.peers.WithRemovedPeer(addr)
	h.peerLock.Unlock()

	h.logger.WithField("peer", addr).Debug("Peer removed")
	ctx.SendEvent(PeerEvent{NetAddr: addr, Added: false})
}

func (h *Handler) send(ctx *node.Context, recipients []string, deliveryGroupSize int, msg *messages.Message) {
	data, err := msg.Marshal()
	if err != nil {
		h.logger.WithError(err).Error("Encoding message")
		return
	}
	ctx.SendMessageToTargets(recipients, deliveryGroupSize, data)
}

func (h *Handler) sendUser(ctx *node.Context, recipients []string, dst string, user *messages.UserMessage) {
	contents, err := user.Split(h.conf.MaxPartLen)
	if err != nil {
		h.logger.WithError(err).Error("Splitting user message")
		return
	}

	for _, content := range contents {
		h.send(ctx, recipients, len(recipients), messages.NewHopMessage(h.name, dst, content, 0))
	}
}
