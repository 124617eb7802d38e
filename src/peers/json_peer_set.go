package peers

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const jsonPeerSetPath = "peers.json"

// JSONPeerSet keeps a node's routing table in a peers.json file, so that a
// restarted node can reach the nodes it knew.
type JSONPeerSet struct {
	l    sync.Mutex
	path string
}

// NewJSONPeerSet returns a JSONPeerSet for the peers.json file of the data
// directory base.
func NewJSONPeerSet(base string) *JSONPeerSet {
	return &JSONPeerSet{
		path: filepath.Join(base, jsonPeerSetPath),
	}
}

// Path returns the location of the JSON file.
func (j *JSONPeerSet) Path() string {
	return j.path
}

// PeerSet reads the file. A missing or empty file is an empty PeerSet.
// Addresses are trimmed, entries without an address are skipped, and an
// address that is not host:port is an error.
func (j *JSONPeerSet) PeerSet() (*PeerSet, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if os.IsNotExist(err) {
		return NewPeerSet(nil), nil
	}
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(buf))) == 0 {
		return NewPeerSet(nil), nil
	}

	var entries []*Peer
	if err := json.Unmarshal(buf, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", j.path, err)
	}

	peers := make([]*Peer, 0, len(entries))
	for i, p := range entries {
		if p == nil {
			continue
		}
		addr := strings.TrimSpace(p.NetAddr)
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return nil, fmt.Errorf("%s: peer %d: %w", j.path, i, err)
		}
		peers = append(peers, NewPeer(addr, p.Moniker))
	}

	return NewPeerSet(peers), nil
}

// Write saves the peers of peerSet other than self, ordered by address. The
// file is replaced in one step so that a crash never leaves it half written.
func (j *JSONPeerSet) Write(peerSet *PeerSet, self string) error {
	j.l.Lock()
	defer j.l.Unlock()

	peers := make([]*Peer, 0, peerSet.Len())
	for _, p := range peerSet.Peers {
		if p.NetAddr != self {
			peers = append(peers, p)
		}
	}
	sort.Slice(peers, func(a, b int) bool {
		return peers[a].NetAddr < peers[b].NetAddr
	})

	buf, err := json.MarshalIndent(peers, "", "\t")
	if err != nil {
		return err
	}

	tmp := j.path + ".tmp"
	if err := ioutil.WriteFile(tmp, append(buf, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}
