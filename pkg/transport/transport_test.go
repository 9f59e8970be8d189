package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		require.True(t, ok, "inbound closed")
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func TestLoopback_SendAndReceive(t *testing.T) {
	hub := NewHub(0)
	a := hub.Endpoint("a")
	b := hub.Endpoint("b")
	assert.Same(t, a, hub.Endpoint("a"))

	payload := []byte{1, 2, 3}
	require.NoError(t, a.Send("b", 20, payload))
	payload[0] = 9 // sender reuse must not leak into the receiver

	env := receive(t, b.Inbound())
	assert.Equal(t, Address("a"), env.From)
	assert.Equal(t, uint64(20), env.SerID)
	assert.Equal(t, []byte{1, 2, 3}, env.Payload)
}

func TestLoopback_Unreachable(t *testing.T) {
	hub := NewHub(1)
	a := hub.Endpoint("a")
	assert.ErrorIs(t, a.Send("nobody", 20, nil), ErrUnreachable)

	hub.Endpoint("b")
	hub.Remove("b")
	assert.ErrorIs(t, a.Send("b", 20, nil), ErrUnreachable)
}

func TestLoopback_FullInboxDropsWithoutBlocking(t *testing.T) {
	hub := NewHub(2)
	a := hub.Endpoint("a")
	b := hub.Endpoint("b")

	require.NoError(t, a.Send("b", 20, []byte{1}))
	require.NoError(t, a.Send("b", 20, []byte{2}))
	assert.ErrorIs(t, a.Send("b", 20, []byte{3}), ErrDropped)

	assert.Equal(t, []byte{1}, receive(t, b.Inbound()).Payload)
	assert.Equal(t, []byte{2}, receive(t, b.Inbound()).Payload)
}

func TestUDP_SendAndReceive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := ListenUDP(ctx, testr.New(t), "127.0.0.1:0")
	require.NoError(t, err)
	b, err := ListenUDP(ctx, testr.New(t), "127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, a.Send(b.Addr(), 20, []byte("hello")))
	env := receive(t, b.Inbound())
	assert.Equal(t, a.Addr(), env.From)
	assert.Equal(t, uint64(20), env.SerID)
	assert.Equal(t, []byte("hello"), env.Payload)

	// empty payloads still carry the tag
	require.NoError(t, b.Send(a.Addr(), 7, nil))
	env = receive(t, a.Inbound())
	assert.Equal(t, uint64(7), env.SerID)
	assert.Empty(t, env.Payload)
}

func TestUDP_ShortDatagramIgnored(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u, err := ListenUDP(ctx, testr.New(t), "127.0.0.1:0")
	require.NoError(t, err)

	raw, err := net.Dial("udp", string(u.Addr()))
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	_, err = raw.Write([]byte{0, 0, 0, 0, 0, 0, 0, 20, 'o', 'k'})
	require.NoError(t, err)

	env := receive(t, u.Inbound())
	assert.Equal(t, uint64(20), env.SerID)
	assert.Equal(t, []byte("ok"), env.Payload)
}

func TestUDP_CloseOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	u, err := ListenUDP(ctx, testr.New(t), "127.0.0.1:0")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-u.Inbound():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("inbound not closed after cancel")
	}
	assert.ErrorIs(t, u.Send("127.0.0.1:1", 20, nil), ErrClosed)
	assert.NoError(t, u.Close())
}

func TestUDP_Errors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := ListenUDP(ctx, testr.New(t), "not an address")
	require.Error(t, err)

	u, err := ListenUDP(ctx, testr.New(t), "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, u.Send("127.0.0.1:1", 20, make([]byte, MaxUDPPayload+1)), ErrDropped)
	assert.ErrorIs(t, u.Send("no-port", 20, nil), ErrUnreachable)
}

func TestNextReadBackoff(t *testing.T) {
	assert.Equal(t, readBackoffMin, nextReadBackoff(0))

	var got []time.Duration
	d := time.Duration(0)
	for i := 0; i < 9; i++ {
		d = nextReadBackoff(d)
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond,
		80 * time.Millisecond, 160 * time.Millisecond, 320 * time.Millisecond,
		640 * time.Millisecond, time.Second, time.Second,
	}, got)
}
