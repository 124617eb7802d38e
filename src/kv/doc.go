// Package kv is a key-value store built on the routing node.
//
// A client request for a name is split into user message parts and delivered
// to the close group of the sending node. Every member answers it from its own
// Store, and the first response that comes back is reported as a
// ResponseEvent. If none arrives within the request timeout, a TimeoutEvent is
// reported instead.
package kv
