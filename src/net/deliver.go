package net

import (
	"errors"
	"time"

	"github.com/mosaicnetworks/routing/src/messages"
)

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been terminated.
	ErrTransportShutdown = errors.New("transport shutdown")

	// ErrDeliveryTimeout is returned when the recipient did not answer a
	// DeliverRequest in time.
	ErrDeliveryTimeout = errors.New("delivery timed out")

	errNoSender     = errors.New("deliver request has no sender")
	errEmptyPayload = errors.New("deliver request has an empty payload")
	errKindMismatch = errors.New("deliver request kind does not match its payload")
)

// DeliverRequest carries one encoded message from the node at From. Kind and
// Route describe the envelope so that the recipient can log and check the
// message before its event loop decodes it. Route is the position of the
// recipient in the sender's recipient list.
type DeliverRequest struct {
	From    string
	Kind    string
	Route   uint8
	Payload []byte
}

// DeliverResponse is the recipient's answer. A refused message has Ack false
// and the reason for the refusal.
type DeliverResponse struct {
	Ack    bool
	Reason string
}

// NewDeliverRequest wraps an encoded message for the recipient on route.
func NewDeliverRequest(from string, route uint8, payload []byte) *DeliverRequest {
	return &DeliverRequest{
		From:    from,
		Kind:    envelopeKind(payload),
		Route:   route,
		Payload: payload,
	}
}

// Validate checks that the request names its sender, carries a payload, and
// that its Kind is the one described by the payload.
func (r *DeliverRequest) Validate() error {
	if r.From == "" {
		return errNoSender
	}
	if len(r.Payload) == 0 {
		return errEmptyPayload
	}
	if r.Kind != envelopeKind(r.Payload) {
		return errKindMismatch
	}
	return nil
}

func envelopeKind(payload []byte) string {
	var msg messages.Message
	if err := msg.Unmarshal(payload); err != nil {
		return "Unknown"
	}
	return msg.String()
}

// Delivery is a validated DeliverRequest handed to the consumer of a
// transport. The consumer must answer it exactly once with Ack or Refuse.
type Delivery struct {
	Request *DeliverRequest
	respCh  chan DeliverResponse
}

func newDelivery(req *DeliverRequest) *Delivery {
	return &Delivery{
		Request: req,
		respCh:  make(chan DeliverResponse, 1),
	}
}

// Ack accepts the message.
func (d *Delivery) Ack() {
	d.respCh <- DeliverResponse{Ack: true}
}

// Refuse rejects the message.
func (d *Delivery) Refuse(reason error) {
	d.respCh <- DeliverResponse{Reason: reason.Error()}
}

// handOff validates req and passes it to the consumer on consumeCh, then waits
// for the answer. Invalid requests are refused without reaching the consumer.
// A zero timeout waits until done is closed.
func handOff(consumeCh chan<- *Delivery, done <-chan struct{}, timeout time.Duration, req *DeliverRequest) (DeliverResponse, error) {
	if err := req.Validate(); err != nil {
		return DeliverResponse{Reason: err.Error()}, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	d := newDelivery(req)

	select {
	case consumeCh <- d:
	case <-done:
		return DeliverResponse{}, ErrTransportShutdown
	case <-expired:
		return DeliverResponse{}, ErrDeliveryTimeout
	}

	select {
	case resp := <-d.respCh:
		return resp, nil
	case <-done:
		return DeliverResponse{}, ErrTransportShutdown
	case <-expired:
		return DeliverResponse{}, ErrDeliveryTimeout
	}
}
