package net

// Transport moves encoded messages between routing nodes. Every message is
// acknowledged or refused by the recipient's consumer.
type Transport interface {
	// Listen starts accepting messages. It returns when the transport is
	// closed.
	Listen()

	// Consumer returns the channel of inbound messages.
	Consumer() <-chan *Delivery

	// LocalAddr is the address the transport is bound to.
	LocalAddr() string

	// AdvertiseAddr is the address other nodes use to reach this one.
	AdvertiseAddr() string

	// Deliver sends req to target and fills resp with its answer. An error
	// means the message could not reach the recipient's consumer.
	Deliver(target string, req *DeliverRequest, resp *DeliverResponse) error

	// Close stops the transport and releases its connections.
	Close() error
}
