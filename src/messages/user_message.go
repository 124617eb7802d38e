package messages

import (
	"fmt"
	"hash/fnv"
)

// DefaultMaxPartLen is the largest payload carried by a single
// UserMessagePart.
const DefaultMaxPartLen = 20 * 1024

// UserMessage carries either a client Request or a Response to one.
type UserMessage struct {
	Request  *Request  `codec:",omitempty"`
	Response *Response `codec:",omitempty"`
}

// Marshal encodes the user message with msgpack.
func (u *UserMessage) Marshal() ([]byte, error) {
	if (u.Request == nil) == (u.Response == nil) {
		return nil, fmt.Errorf("user message must contain exactly one of request or response")
	}
	return encode(u)
}

// Unmarshal ...
func (u *UserMessage) Unmarshal(data []byte) error {
	if err := decode(data, u); err != nil {
		return err
	}
	if (u.Request == nil) == (u.Response == nil) {
		return fmt.Errorf("user message must contain exactly one of request or response")
	}
	return nil
}

// Split serialises the user message and cuts it into parts of at most
// maxPartLen bytes, each wrapped in a routing content. There is always at
// least one part.
func (u *UserMessage) Split(maxPartLen int) ([]MessageContent, error) {
	if maxPartLen <= 0 {
		return nil, fmt.Errorf("invalid max part length %d", maxPartLen)
	}

	data, err := u.Marshal()
	if err != nil {
		return nil, err
	}

	hash := payloadHash(data)
	count := (len(data) + maxPartLen - 1) / maxPartLen
	if count == 0 {
		count = 1
	}

	contents := make([]MessageContent, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxPartLen
		end := start + maxPartLen
		if end > len(data) {
			end = len(data)
		}
		contents = append(contents, MessageContent{
			Kind: UserMessagePartContent,
			Part: &UserMessagePart{
				Hash:      hash,
				PartCount: uint32(count),
				PartIndex: uint32(i),
				Payload:   data[start:end],
			},
		})
	}

	return contents, nil
}

func payloadHash(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}
