package net

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewInmemAddr returns a random address for an in-memory transport.
func NewInmemAddr() string {
	return uuid.New().String()
}

// InmemTransport connects nodes of the same process without a network. A
// transport only reaches the peers it was explicitly connected to.
type InmemTransport struct {
	addr      string
	consumeCh chan *Delivery
	timeout   time.Duration

	peerLock sync.RWMutex
	peers    map[string]*InmemTransport

	closeOnce sync.Once
	closedCh  chan struct{}
}

// NewInmemTransport returns a transport listening on addr, or on a random
// address if addr is empty, along with that address.
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	return addr, &InmemTransport{
		addr:      addr,
		consumeCh: make(chan *Delivery, 16),
		timeout:   500 * time.Millisecond,
		peers:     make(map[string]*InmemTransport),
		closedCh:  make(chan struct{}),
	}
}

// Listen does nothing; an in-memory transport receives as soon as it exists.
func (i *InmemTransport) Listen() {}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan *Delivery {
	return i.consumeCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.addr
}

// AdvertiseAddr implements the Transport interface.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.addr
}

// Deliver implements the Transport interface.
func (i *InmemTransport) Deliver(target string, req *DeliverRequest, resp *DeliverResponse) error {
	select {
	case <-i.closedCh:
		return ErrTransportShutdown
	default:
	}

	i.peerLock.RLock()
	peer, ok := i.peers[target]
	i.peerLock.RUnlock()

	if !ok {
		return fmt.Errorf("no route to %s", target)
	}

	out, err := handOff(peer.consumeCh, peer.closedCh, i.timeout, req)
	if err != nil {
		return err
	}

	*resp = out
	return nil
}

// Connect makes peer reachable at addr from this transport. Connections are
// one-way.
func (i *InmemTransport) Connect(addr string, peer Transport) {
	i.peerLock.Lock()
	defer i.peerLock.Unlock()
	i.peers[addr] = peer.(*InmemTransport)
}

// Disconnect makes addr unreachable from this transport.
func (i *InmemTransport) Disconnect(addr string) {
	i.peerLock.Lock()
	defer i.peerLock.Unlock()
	delete(i.peers, addr)
}

// DisconnectAll removes every connection of this transport.
func (i *InmemTransport) DisconnectAll() {
	i.peerLock.Lock()
	defer i.peerLock.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close disconnects the transport and refuses messages sent to it.
func (i *InmemTransport) Close() error {
	i.closeOnce.Do(func() {
		close(i.closedCh)
		i.DisconnectAll()
	})
	return nil
}
