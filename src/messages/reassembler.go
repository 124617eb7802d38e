package messages

import (
	"bytes"
	"fmt"
)

// DefaultMaxPending is the default number of incomplete user messages a
// Reassembler keeps before evicting the oldest.
const DefaultMaxPending = 1000

type partial struct {
	parts    [][]byte
	received int
}

// Reassembler collects UserMessageParts and rebuilds the UserMessage once all
// of its parts have arrived. It is not safe for concurrent use.
type Reassembler struct {
	maxPending int
	pending    map[uint64]*partial
	order      []uint64
}

// NewReassembler ...
func NewReassembler(maxPending int) *Reassembler {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Reassembler{
		maxPending: maxPending,
		pending:    make(map[uint64]*partial),
	}
}

// Add records a part. It returns the complete UserMessage when part was the
// last missing piece, and nil otherwise. Duplicate parts are ignored.
func (r *Reassembler) Add(part *UserMessagePart) (*UserMessage, error) {
	if part.PartCount == 0 || part.PartIndex >= part.PartCount {
		return nil, fmt.Errorf("invalid part %d of %d", part.PartIndex, part.PartCount)
	}

	p, ok := r.pending[part.Hash]
	if !ok {
		p = &partial{parts: make([][]byte, part.PartCount)}
		r.insert(part.Hash, p)
	} else if len(p.parts) != int(part.PartCount) {
		return nil, fmt.Errorf("part count %d does not match %d for message %x",
			part.PartCount, len(p.parts), part.Hash)
	}

	if p.parts[part.PartIndex] == nil {
		p.parts[part.PartIndex] = append([]byte{}, part.Payload...)
		p.received++
	}

	if p.received < len(p.parts) {
		return nil, nil
	}

	r.remove(part.Hash)

	data := bytes.Join(p.parts, nil)
	if payloadHash(data) != part.Hash {
		return nil, fmt.Errorf("hash mismatch for message %x", part.Hash)
	}

	msg := &UserMessage{}
	if err := msg.Unmarshal(data); err != nil {
		return nil, err
	}

	return msg, nil
}

// Pending returns the number of incomplete messages.
func (r *Reassembler) Pending() int {
	return len(r.pending)
}

func (r *Reassembler) insert(hash uint64, p *partial) {
	if len(r.order) >= r.maxPending {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.pending, oldest)
	}
	r.pending[hash] = p
	r.order = append(r.order, hash)
}

func (r *Reassembler) remove(hash uint64) {
	delete(r.pending, hash)
	for i, h := range r.order {
		if h == hash {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
