package node

import "github.com/mosaicnetworks/routing/src/messages"

// Handler is the protocol logic of a node. The node calls exactly one method
// per event, with a fresh Context, and executes the commands the method
// queued once it returns. Handlers must not block and must not perform I/O.
type Handler interface {
	// HandleClientRequest handles a request submitted locally through
	// Node.Submit.
	HandleClientRequest(ctx *Context, req *messages.Request)

	// HandleDirectMessage handles a control message from a neighbour.
	HandleDirectMessage(ctx *Context, from string, msg *messages.DirectMessage)

	// HandleRoutingMessage handles a routing message other than a user
	// message part.
	HandleRoutingMessage(ctx *Context, from string, msg *messages.RoutingMessage)

	// HandleUserMessage handles a user message once all its parts have
	// arrived. src is the name of the node that originated it.
	HandleUserMessage(ctx *Context, src string, msg *messages.UserMessage)

	// HandleTimeout handles the expiry of a timeout scheduled with
	// Context.ScheduleTimeout. The token may be stale.
	HandleTimeout(ctx *Context, token TimerToken)
}

// Starter is implemented by handlers that want to act when the node starts.
type Starter interface {
	HandleStart(ctx *Context)
}

// RoutingTable is implemented by handlers that keep track of known nodes. Its
// method may be called from outside the event loop.
type RoutingTable interface {
	RoutingTableSize() int
}
