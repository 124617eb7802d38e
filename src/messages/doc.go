// Package messages defines the message taxonomy exchanged by routing nodes.
//
// Three families travel between nodes. Direct messages are control messages
// exchanged by immediate neighbours and never forwarded. Routing messages
// (hops) are addressed to a name in the overlay and forwarded along one or
// more routes. User messages carry client requests and responses; they are
// too large to fit in a single hop, so they are split into UserMessagePart
// contents and reassembled at the destination.
//
// Every family is a kind-tagged struct rather than an interface so that it
// can be encoded with the msgpack codec and switched on exhaustively.
package messages
