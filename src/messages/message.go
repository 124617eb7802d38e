package messages

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"
)

var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.WriteExt = true
	return h
}

// HopMessage wraps a RoutingMessage with the route it is being sent on.
type HopMessage struct {
	Content RoutingMessage
	Route   uint8
}

// Message is the envelope of everything that travels between nodes. Exactly
// one of Direct and Hop is set.
type Message struct {
	Direct *DirectMessage `codec:",omitempty"`
	Hop    *HopMessage    `codec:",omitempty"`
}

// NewDirectMessage ...
func NewDirectMessage(kind DirectKind, name string) *Message {
	return &Message{Direct: &DirectMessage{Kind: kind, Name: name}}
}

// NewHopMessage ...
func NewHopMessage(src, dst string, content MessageContent, route uint8) *Message {
	return &Message{
		Hop: &HopMessage{
			Content: RoutingMessage{
				Src:     src,
				Dst:     dst,
				Content: content,
			},
			Route: route,
		},
	}
}

// Marshal encodes the message with msgpack.
func (m *Message) Marshal() ([]byte, error) {
	if (m.Direct == nil) == (m.Hop == nil) {
		return nil, fmt.Errorf("message must contain exactly one of direct or hop")
	}
	return encode(m)
}

// Unmarshal decodes a message encoded with Marshal.
func (m *Message) Unmarshal(data []byte) error {
	if err := decode(data, m); err != nil {
		return err
	}
	if (m.Direct == nil) == (m.Hop == nil) {
		return fmt.Errorf("message must contain exactly one of direct or hop")
	}
	return nil
}

// String returns a short description for logs.
func (m *Message) String() string {
	switch {
	case m.Direct != nil:
		return fmt.Sprintf("Direct(%s)", m.Direct.Kind)
	case m.Hop != nil:
		return fmt.Sprintf("Hop(%s, route %d)", m.Hop.Content.Content.Kind, m.Hop.Route)
	default:
		return "Empty"
	}
}

func encode(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	enc := codec.NewEncoder(b, msgpackHandle)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, msgpackHandle)
	return dec.Decode(v)
}
