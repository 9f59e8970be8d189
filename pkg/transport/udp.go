package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

const (
	// udpHeaderSize is the big-endian serialization id prefixed to every
	// datagram.
	udpHeaderSize = 8

	// Bounds of the pause after a failed read.
	readBackoffMin = 10 * time.Millisecond
	readBackoffMax = time.Second

	// MaxUDPPayload is the largest payload that fits in one IPv4 datagram
	// after the header.
	MaxUDPPayload = 65507 - udpHeaderSize
)

// UDP sends each message as a single datagram framed as
// [serID uint64 big-endian][payload].
type UDP struct {
	conn   *net.UDPConn
	logger logr.Logger
	inbox  chan Envelope

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

var _ Transport = (*UDP)(nil)

// ListenUDP binds addr (host:port) and starts receiving. The transport closes
// itself when ctx is cancelled.
func ListenUDP(ctx context.Context, logger logr.Logger, addr string) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	u := &UDP{
		conn:   conn,
		logger: logger.WithName("udp"),
		inbox:  make(chan Envelope, DefaultInboxSize),
		done:   make(chan struct{}),
	}
	go u.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = u.Close()
		case <-u.done:
		}
	}()

	u.logger.V(1).Info("listening", "addr", u.Addr())
	return u, nil
}

func (u *UDP) Addr() Address { return Address(u.conn.LocalAddr().String()) }

func (u *UDP) Inbound() <-chan Envelope { return u.inbox }

func (u *UDP) Send(to Address, serID uint64, payload []byte) error {
	if u.closed.Load() {
		return ErrClosed
	}
	if len(payload) > MaxUDPPayload {
		return fmt.Errorf("%w: payload of %d bytes exceeds datagram", ErrDropped, len(payload))
	}
	raddr, err := net.ResolveUDPAddr("udp", string(to))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	buf := make([]byte, udpHeaderSize+len(payload))
	binary.BigEndian.PutUint64(buf, serID)
	copy(buf[udpHeaderSize:], payload)
	if _, err := u.conn.WriteToUDP(buf, raddr); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// Close stops receiving and closes Inbound once the read loop exits.
func (u *UDP) Close() error {
	var err error
	u.closeOnce.Do(func() {
		u.closed.Store(true)
		close(u.done)
		err = u.conn.Close()
	})
	return err
}

func (u *UDP) readLoop() {
	defer close(u.inbox)

	buf := make([]byte, udpHeaderSize+MaxUDPPayload)
	var backoff time.Duration
	for {
		n, from, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || u.closed.Load() {
				return
			}
			backoff = nextReadBackoff(backoff)
			u.logger.Error(err, "read failed", "retryIn", backoff)
			select {
			case <-time.After(backoff):
			case <-u.done:
				return
			}
			continue
		}
		backoff = 0
		if n < udpHeaderSize {
			u.logger.V(1).Info("discarding short datagram", "from", from, "bytes", n)
			continue
		}

		env := Envelope{
			From:    Address(from.String()),
			SerID:   binary.BigEndian.Uint64(buf[:udpHeaderSize]),
			Payload: append([]byte(nil), buf[udpHeaderSize:n]...),
		}
		select {
		case u.inbox <- env:
		default:
			u.logger.V(1).Info("inbox full, dropping datagram", "from", env.From)
		}
	}
}

// nextReadBackoff doubles prev within [readBackoffMin, readBackoffMax].
func nextReadBackoff(prev time.Duration) time.Duration {
	if prev < readBackoffMin {
		return readBackoffMin
	}
	return min(2*prev, readBackoffMax)
}
