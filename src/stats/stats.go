package stats

import (
	"github.com/mosaicnetworks/routing/src/messages"
	"github.com/sirupsen/logrus"
)

const (
	// GroupSize is the number of routes a message can be sent on, one per
	// member of a close group.
	GroupSize = 8

	// MsgLogCount is the number of messages after which the statistics are
	// logged.
	MsgLogCount = 500
)

// Stats is a collection of counters gathering routing statistics. It is not
// safe for concurrent use; it belongs to the node's event loop.
type Stats struct {
	// Messages sent by us on different routes.
	routes [GroupSize]uint64
	// Messages we sent unsuccessfully: unacknowledged on all routes.
	unackedMsgs uint64

	msgDirectNodeIdentify       uint64
	msgDirectNewNode            uint64
	msgDirectConnectionUnneeded uint64

	msgRefresh        uint64
	msgGet            uint64
	msgPut            uint64
	msgPost           uint64
	msgDelete         uint64
	msgGetAccountInfo uint64

	msgGetSuccess            uint64
	msgGetFailure            uint64
	msgPutSuccess            uint64
	msgPutFailure            uint64
	msgPostSuccess           uint64
	msgPostFailure           uint64
	msgDeleteSuccess         uint64
	msgDeleteFailure         uint64
	msgGetAccountInfoSuccess uint64
	msgGetAccountInfoFailure uint64

	msgGetNodeName      uint64
	msgExpectCloseNode  uint64
	msgGetCloseGroup    uint64
	msgConnectionInfo   uint64
	msgGetCloseGroupRsp uint64
	msgGetNodeNameRsp   uint64
	msgAck              uint64
	msgGroupMessageHash uint64

	msgOther uint64

	msgTotal      uint64
	msgTotalBytes uint64

	logger *logrus.Entry
}

// NewStats returns a Stats with every counter at zero.
func NewStats(logger *logrus.Entry) *Stats {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Stats{
		logger: logger.WithField("component", "stats"),
	}
}

// CountUnacked records a message that was not acknowledged on any route.
func (s *Stats) CountUnacked() {
	s.unackedMsgs++
}

// CountRoute records a message sent on the given route. Routes outside
// [0, GroupSize) are logged and ignored.
func (s *Stats) CountRoute(route uint8) {
	if int(route) >= len(s.routes) {
		s.logger.WithField("route", route).Error("Unexpected route number")
		return
	}
	s.routes[route]++
}

// CountRequest increments the counter for the given request.
func (s *Stats) CountRequest(request *messages.Request) {
	if request == nil {
		s.logger.Error("Nil request")
		return
	}
	switch request.Kind {
	case messages.Refresh:
		s.msgRefresh++
	case messages.Get:
		s.msgGet++
	case messages.Put:
		s.msgPut++
	case messages.Post:
		s.msgPost++
	case messages.Delete:
		s.msgDelete++
	case messages.GetAccountInfo:
		s.msgGetAccountInfo++
	default:
		s.logger.WithField("kind", request.Kind).Error("Unknown request kind")
		s.msgOther++
	}
	s.incrementMsgTotal()
}

// CountResponse increments the counter for the given response.
func (s *Stats) CountResponse(response *messages.Response) {
	if response == nil {
		s.logger.Error("Nil response")
		return
	}
	switch response.Kind {
	case messages.GetSuccess:
		s.msgGetSuccess++
	case messages.GetFailure:
		s.msgGetFailure++
	case messages.PutSuccess:
		s.msgPutSuccess++
	case messages.PutFailure:
		s.msgPutFailure++
	case messages.PostSuccess:
		s.msgPostSuccess++
	case messages.PostFailure:
		s.msgPostFailure++
	case messages.DeleteSuccess:
		s.msgDeleteSuccess++
	case messages.DeleteFailure:
		s.msgDeleteFailure++
	case messages.GetAccountInfoSuccess:
		s.msgGetAccountInfoSuccess++
	case messages.GetAccountInfoFailure:
		s.msgGetAccountInfoFailure++
	default:
		s.logger.WithField("kind", response.Kind).Error("Unknown response kind")
		s.msgOther++
	}
	s.incrementMsgTotal()
}

// CountRoutingMessage increments the counter for the given routing message
// type. User message parts are not counted here: the request or response
// they carry is counted once the parts are reassembled.
func (s *Stats) CountRoutingMessage(msg *messages.RoutingMessage) {
	if msg == nil {
		s.logger.Error("Nil routing message")
		return
	}
	switch msg.Content.Kind {
	case messages.GetNodeName:
		s.msgGetNodeName++
	case messages.ExpectCloseNode:
		s.msgExpectCloseNode++
	case messages.GetCloseGroup:
		s.msgGetCloseGroup++
	case messages.ConnectionInfo:
		s.msgConnectionInfo++
	case messages.GetCloseGroupResponse:
		s.msgGetCloseGroupRsp++
	case messages.GetNodeNameResponse:
		s.msgGetNodeNameRsp++
	case messages.Ack:
		s.msgAck++
	case messages.GroupMessageHash:
		s.msgGroupMessageHash++
	case messages.UserMessagePartContent:
		return
	default:
		s.logger.WithField("kind", msg.Content.Kind).Error("Unknown routing message kind")
		s.msgOther++
	}
	s.incrementMsgTotal()
}

// CountDirectMessage increments the counter for the given direct message
// type. Kinds without a dedicated counter are counted as uncategorised.
func (s *Stats) CountDirectMessage(msg *messages.DirectMessage) {
	if msg == nil {
		s.logger.Error("Nil direct message")
		return
	}
	switch msg.Kind {
	case messages.NodeIdentify:
		s.msgDirectNodeIdentify++
	case messages.NewNode:
		s.msgDirectNewNode++
	case messages.ConnectionUnneeded:
		s.msgDirectConnectionUnneeded++
	default:
		s.msgOther++
	}
	s.incrementMsgTotal()
}

// CountBytes adds n to the number of bytes sent.
func (s *Stats) CountBytes(n int) {
	if n <= 0 {
		return
	}
	s.msgTotalBytes += uint64(n)
}

// Total returns the number of messages counted so far.
func (s *Stats) Total() uint64 {
	return s.msgTotal
}

// incrementMsgTotal increments the total message count and logs all the
// counters every MsgLogCount messages.
func (s *Stats) incrementMsgTotal() {
	s.msgTotal++
	if s.msgTotal%MsgLogCount == 0 {
		s.log()
	}
}

func (s *Stats) log() {
	s.logger.Infof("Stats - Sent %d messages in total, comprising %d bytes, %d uncategorised, "+
		"routes/failed: %v/%d",
		s.msgTotal,
		s.msgTotalBytes,
		s.msgOther,
		s.routes,
		s.unackedMsgs)
	s.logger.Infof("Stats - Direct - NodeIdentify: %d, NewNode: %d, ConnectionUnneeded: %d",
		s.msgDirectNodeIdentify,
		s.msgDirectNewNode,
		s.msgDirectConnectionUnneeded)
	s.logger.Infof("Stats - Hops (Request/Response) - GetNodeName: %d/%d, ExpectCloseNode: %d, "+
		"GetCloseGroup: %d/%d, ConnectionInfo: %d, Ack: %d, GroupMessageHash: %d",
		s.msgGetNodeName,
		s.msgGetNodeNameRsp,
		s.msgExpectCloseNode,
		s.msgGetCloseGroup,
		s.msgGetCloseGroupRsp,
		s.msgConnectionInfo,
		s.msgAck,
		s.msgGroupMessageHash)
	s.logger.Infof("Stats - User (Request/Success/Failure) - Get: %d/%d/%d, Put: %d/%d/%d, "+
		"Post: %d/%d/%d, Delete: %d/%d/%d, GetAccountInfo: %d/%d/%d, Refresh: %d",
		s.msgGet,
		s.msgGetSuccess,
		s.msgGetFailure,
		s.msgPut,
		s.msgPutSuccess,
		s.msgPutFailure,
		s.msgPost,
		s.msgPostSuccess,
		s.msgPostFailure,
		s.msgDelete,
		s.msgDeleteSuccess,
		s.msgDeleteFailure,
		s.msgGetAccountInfo,
		s.msgGetAccountInfoSuccess,
		s.msgGetAccountInfoFailure,
		s.msgRefresh)
}
