package messages

// ContentKind enumerates the contents of routing messages.
type ContentKind uint8

const (
	GetNodeName ContentKind = iota
	ExpectCloseNode
	GetCloseGroup
	ConnectionInfo
	GetCloseGroupResponse
	GetNodeNameResponse
	Ack
	GroupMessageHash
	UserMessagePartContent
)

// String ...
func (k ContentKind) String() string {
	switch k {
	case GetNodeName:
		return "GetNodeName"
	case ExpectCloseNode:
		return "ExpectCloseNode"
	case GetCloseGroup:
		return "GetCloseGroup"
	case ConnectionInfo:
		return "ConnectionInfo"
	case GetCloseGroupResponse:
		return "GetCloseGroupResponse"
	case GetNodeNameResponse:
		return "GetNodeNameResponse"
	case Ack:
		return "Ack"
	case GroupMessageHash:
		return "GroupMessageHash"
	case UserMessagePartContent:
		return "UserMessagePart"
	default:
		return "Unknown"
	}
}

// UserMessagePart is one fragment of a serialised UserMessage. Hash identifies
// the whole message, so all parts of a message share it.
type UserMessagePart struct {
	Hash      uint64
	PartCount uint32
	PartIndex uint32
	Payload   []byte
}

// MessageContent is the body of a RoutingMessage. Which fields are meaningful
// depends on Kind: Name for node-name exchanges, Group for close-group
// responses, Hash for acks and group-message hashes, Part for user message
// parts.
type MessageContent struct {
	Kind  ContentKind
	Name  string           `codec:",omitempty"`
	Group []string         `codec:",omitempty"`
	Hash  uint64           `codec:",omitempty"`
	Part  *UserMessagePart `codec:",omitempty"`
}

// RoutingMessage is addressed to the name Dst in the overlay and originates
// from Src.
type RoutingMessage struct {
	Src     string
	Dst     string
	Content MessageContent
}

// IsUserMessagePart reports whether the message carries a fragment of a user
// message.
func (m *RoutingMessage) IsUserMessagePart() bool {
	return m.Content.Kind == UserMessagePartContent && m.Content.Part != nil
}
