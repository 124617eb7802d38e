package messages

// DirectKind enumerates the control messages exchanged between neighbours.
type DirectKind uint8

const (
	BootstrapIdentify DirectKind = iota
	BootstrapDeny
	ClientIdentify
	NodeIdentify
	NewNode
	ConnectionUnneeded
	Heartbeat
	TunnelRequest
	TunnelSuccess
	TunnelClosed
	TunnelDisconnect
)

// String ...
func (k DirectKind) String() string {
	switch k {
	case BootstrapIdentify:
		return "BootstrapIdentify"
	case BootstrapDeny:
		return "BootstrapDeny"
	case ClientIdentify:
		return "ClientIdentify"
	case NodeIdentify:
		return "NodeIdentify"
	case NewNode:
		return "NewNode"
	case ConnectionUnneeded:
		return "ConnectionUnneeded"
	case Heartbeat:
		return "Heartbeat"
	case TunnelRequest:
		return "TunnelRequest"
	case TunnelSuccess:
		return "TunnelSuccess"
	case TunnelClosed:
		return "TunnelClosed"
	case TunnelDisconnect:
		return "TunnelDisconnect"
	default:
		return "Unknown"
	}
}

// DirectMessage is sent to an immediate neighbour and never forwarded. Name
// identifies the node the message is about (the sender for identify messages,
// the newcomer for NewNode).
type DirectMessage struct {
	Kind DirectKind
	Name string
}
