package kv

import "github.com/mosaicnetworks/routing/src/messages"

// ResponseEvent is emitted when the first response to a client request
// arrives.
type ResponseEvent struct {
	Response *messages.Response
}

// TimeoutEvent is emitted when a client request got no response in time.
type TimeoutEvent struct {
	Request *messages.Request
}

// PeerEvent is emitted when a peer is added to or removed from the handler's
// peer set.
type PeerEvent struct {
	NetAddr string
	Added   bool
}
