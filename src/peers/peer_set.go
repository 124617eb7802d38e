package peers

import (
	"bytes"
	"encoding/json"
	"sort"
)

// PeerSet is a set of Peers forming a routing network
type PeerSet struct {
	Peers     []*Peer          `json:"peers"`
	ByNetAddr map[string]*Peer `json:"-"`
}

/* Constructors */

// NewPeerSet creates a new PeerSet from a list of Peers. Later duplicates of
// the same address are dropped.
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		Peers:     []*Peer{},
		ByNetAddr: make(map[string]*Peer),
	}

	for _, peer := range peers {
		if _, ok := peerSet.ByNetAddr[peer.NetAddr]; ok {
			continue
		}
		peerSet.ByNetAddr[peer.NetAddr] = peer
		peerSet.Peers = append(peerSet.Peers, peer)
	}

	return peerSet
}

// NewPeerSetFromPeerSliceBytes creates a new PeerSet from a peerSlice in Bytes format
func NewPeerSetFromPeerSliceBytes(peerSliceBytes []byte) (*PeerSet, error) {
	//Decode Peer slice
	peers := []*Peer{}

	b := bytes.NewBuffer(peerSliceBytes)
	dec := json.NewDecoder(b) //will read from b

	err := dec.Decode(&peers)
	if err != nil {
		return nil, err
	}
	//create new PeerSet
	return NewPeerSet(peers), nil
}

// WithNewPeer returns a new PeerSet with a list of peers including the new one.
func (peerSet *PeerSet) WithNewPeer(peer *Peer) *PeerSet {
	peers := append([]*Peer{}, peerSet.Peers...)

	//don't add it if it already exists
	if _, ok := peerSet.ByNetAddr[peer.NetAddr]; !ok {
		peers = append(peers, peer)
	}

	return NewPeerSet(peers)
}

// WithRemovedPeer returns a new PeerSet with a list of peers excluding the
// provided one
func (peerSet *PeerSet) WithRemovedPeer(netAddr string) *PeerSet {
	_, peers := ExcludePeer(peerSet.Peers, netAddr)
	return NewPeerSet(peers)
}

/* ToSlice Methods */

// NetAddrs returns the PeerSet's slice of addresses
func (peerSet *PeerSet) NetAddrs() []string {
	res := []string{}

	for _, peer := range peerSet.Peers {
		res = append(res, peer.NetAddr)
	}

	return res
}

/* Utilities */

// Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.ByNetAddr)
}

// Contains reports whether netAddr belongs to the PeerSet
func (peerSet *PeerSet) Contains(netAddr string) bool {
	_, ok := peerSet.ByNetAddr[netAddr]
	return ok
}

// CloseGroup returns the addresses of at most size peers, other than exclude,
// that a message should be delivered to. Peers are ordered by address so that
// every node picks the same group.
func (peerSet *PeerSet) CloseGroup(exclude string, size int) []string {
	res := []string{}

	for _, peer := range peerSet.Peers {
		if peer.NetAddr != exclude {
			res = append(res, peer.NetAddr)
		}
	}

	sort.Strings(res)

	if size >= 0 && len(res) > size {
		res = res[:size]
	}

	return res
}

// Marshal marshals the peerset
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
