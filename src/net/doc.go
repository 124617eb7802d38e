// Package net implements the transports used by routing nodes to exchange
// messages.
//
// A transport carries DeliverRequests. Each request holds one encoded
// message, the sender's address, a short description of the envelope and the
// route it was sent on, which is the position of the recipient in the
// sender's recipient list. The recipient checks the request before its
// consumer sees it and answers with an acknowledgement or a refusal. The
// node's executor counts acknowledgements to decide when a message has
// reached its delivery group.
//
// There are two implementations:
//
// - Inmem: in-memory transport used for testing
//
// - TCP: communicating over plain TCP
//
// # TCP
//
// To use a TCP transport, set the following configuration options in the
// Config object (cf config package):
//
// - BindAddr: the IP:PORT of the TCP socket that the node binds to.
//
// - AdvertiseAddr: (optional) The address that is advertised to other nodes.
// If BindAddr is a local address not reachable by other peers, it is usefull
// to set AdvertiseAddr to the reachable public address.
//
// A connection carries a sequence of msgpack encoded DeliverRequests, each
// answered by a msgpack encoded DeliverResponse before the next is sent.
package net
