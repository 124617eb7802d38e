// Package service exposes the traffic stats and the peers of a node over
// HTTP, as JSON, on /stats and /peers.
package service
