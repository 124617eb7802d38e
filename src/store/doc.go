// Package store persists the values that a node serves to client requests.
//
// InmemStore keeps them in a map. BadgerStore keeps them in a badger database
// in the node's data directory.
package store
