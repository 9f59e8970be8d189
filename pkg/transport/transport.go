// Package transport moves tagged payloads between named endpoints. Delivery
// is best effort: no acknowledgements, no retries, and a send never waits for
// a slow receiver.
package transport

import "errors"

var (
	// ErrUnreachable is returned when the destination is unknown or cannot be
	// resolved.
	ErrUnreachable = errors.New("transport: destination unreachable")

	// ErrDropped is returned when the destination could not take the message
	// right away and it was discarded.
	ErrDropped = errors.New("transport: message dropped")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("transport: closed")
)

// Address is an opaque endpoint name understood by a Transport.
type Address string

func (a Address) String() string { return string(a) }

// Envelope is one inbound message.
type Envelope struct {
	From    Address
	SerID   uint64
	Payload []byte
}

// Transport sends payloads to addresses and delivers what others send to it.
type Transport interface {
	// Send hands payload, tagged with serID, to the destination without
	// waiting for it to be received.
	Send(to Address, serID uint64, payload []byte) error

	// Inbound delivers received messages in arrival order.
	Inbound() <-chan Envelope

	// Addr is the address peers use to reach this endpoint.
	Addr() Address
}
