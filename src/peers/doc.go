// Package peers defines the concept of a routing peer and implements functions
// to manage collections of peers.
//
// A peer is identified by its network address, which is also its name in the
// overlay, and optionaly a moniker which is a non-unique user-friendly name.
//
// Upon starting up, a node expects to find a peers.json file in its data
// directory. It lists the nodes the new node should deliver its messages to.
// The close group of a name is taken from this list, ordered by address.
package peers
