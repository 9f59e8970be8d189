package transport

import (
	"fmt"
	"sync"
)

// DefaultInboxSize is the per-endpoint buffer of a Hub.
const DefaultInboxSize = 64

// Hub connects in-process endpoints by address.
type Hub struct {
	mu        sync.RWMutex
	inboxSize int
	endpoints map[Address]*Loopback
}

// NewHub returns a Hub whose endpoints buffer inboxSize messages each
// (DefaultInboxSize when <= 0).
func NewHub(inboxSize int) *Hub {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &Hub{
		inboxSize: inboxSize,
		endpoints: make(map[Address]*Loopback),
	}
}

// Endpoint registers addr and returns its transport. Registering an address
// twice returns the existing endpoint.
func (h *Hub) Endpoint(addr Address) *Loopback {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ep, ok := h.endpoints[addr]; ok {
		return ep
	}
	ep := &Loopback{
		hub:   h,
		addr:  addr,
		inbox: make(chan Envelope, h.inboxSize),
	}
	h.endpoints[addr] = ep
	return ep
}

// Remove unregisters addr; later sends to it fail with ErrUnreachable.
func (h *Hub) Remove(addr Address) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.endpoints, addr)
}

func (h *Hub) lookup(addr Address) (*Loopback, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ep, ok := h.endpoints[addr]
	return ep, ok
}

// Loopback is one Hub endpoint.
type Loopback struct {
	hub   *Hub
	addr  Address
	inbox chan Envelope
}

var _ Transport = (*Loopback)(nil)

func (l *Loopback) Addr() Address { return l.addr }

func (l *Loopback) Inbound() <-chan Envelope { return l.inbox }

// Send copies payload into the destination inbox, or drops it if the inbox
// is full.
func (l *Loopback) Send(to Address, serID uint64, payload []byte) error {
	dst, ok := l.hub.lookup(to)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnreachable, to)
	}
	env := Envelope{
		From:    l.addr,
		SerID:   serID,
		Payload: append([]byte(nil), payload...),
	}
	select {
	case dst.inbox <- env:
		return nil
	default:
		return fmt.Errorf("%w: %s inbox full", ErrDropped, to)
	}
}
