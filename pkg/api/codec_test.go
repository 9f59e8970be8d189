package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestSubscribe_Marshal(t *testing.T) {
	s := &Subscribe{}
	assert.Empty(t, s.Marshal())

	got, err := DecodeSubscribe(SerIDProtobuf, s.Marshal())
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMetricReport_WireLayout(t *testing.T) {
	r := &MetricReport{ID: "p", Memory: Memory{Usage: 1}}
	want := []byte{
		0x0a, 0x01, 'p', // id
		0x12, 0x02, 0x08, 0x01, // memory{usage: 1}
		0x1a, 0x00, // cpu{}
	}
	assert.Equal(t, want, r.Marshal())
}

func TestMetricReport_RoundTrip(t *testing.T) {
	t.Run("all_sections", func(t *testing.T) {
		in := &MetricReport{
			ID:      "process",
			Memory:  Memory{Usage: 300, Limit: 1000},
			CPU:     CPU{Total: 5_000_000_000, System: 2_000_000_000},
			Network: &Network{RxBytes: 1, RxPackets: 2, TxBytes: 3, TxPackets: 4},
			IO:      &IO{Read: 4096, Write: 8192},
		}
		out, err := DecodeReport(SerIDProtobuf, in.Marshal())
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
	t.Run("optional_sections_absent", func(t *testing.T) {
		in := &MetricReport{ID: "process", CPU: CPU{Total: 7}}
		out, err := DecodeReport(SerIDProtobuf, in.Marshal())
		require.NoError(t, err)
		assert.Nil(t, out.Network)
		assert.Nil(t, out.IO)
		assert.Equal(t, in, out)
	})
	t.Run("present_but_zero", func(t *testing.T) {
		in := &MetricReport{ID: "process", Network: &Network{}, IO: &IO{}}
		out, err := DecodeReport(SerIDProtobuf, in.Marshal())
		require.NoError(t, err)
		assert.Equal(t, &Network{}, out.Network)
		assert.Equal(t, &IO{}, out.IO)
	})
}

func TestMetricReport_SkipsUnknownFields(t *testing.T) {
	b := (&MetricReport{ID: "x", CPU: CPU{System: 9}}).Marshal()
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)
	b = protowire.AppendTag(b, 100, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	out, err := DecodeReport(SerIDProtobuf, b)
	require.NoError(t, err)
	assert.Equal(t, "x", out.ID)
	assert.Equal(t, uint64(9), out.CPU.System)

	// a report is a well-formed message, so it also decodes as Subscribe
	_, err = DecodeSubscribe(SerIDProtobuf, b)
	assert.NoError(t, err)
}

func TestDecode_ProtocolErrors(t *testing.T) {
	cases := []struct {
		name    string
		serID   uint64
		payload []byte
	}{
		{"wrong_serialization_id", 7, []byte{}},
		{"truncated_tag", SerIDProtobuf, []byte{0xff}},
		{"field_number_zero", SerIDProtobuf, []byte{0x00, 0x01}},
		{"truncated_varint", SerIDProtobuf, []byte{0x08, 0x80}},
		{"length_past_end", SerIDProtobuf, []byte{0x0a, 0x05, 'a'}},
		{"end_group_without_start", SerIDProtobuf, []byte{0x0c}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSubscribe(tc.serID, tc.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrProtocol))

			_, err = DecodeReport(tc.serID, tc.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrProtocol))
		})
	}
}

func TestDecodeReport_TypeMismatch(t *testing.T) {
	t.Run("id_as_varint", func(t *testing.T) {
		_, err := DecodeReport(SerIDProtobuf, []byte{0x08, 0x01})
		assert.ErrorIs(t, err, ErrProtocol)
	})
	t.Run("memory_usage_as_bytes", func(t *testing.T) {
		_, err := DecodeReport(SerIDProtobuf, []byte{0x12, 0x03, 0x0a, 0x01, 'x'})
		assert.ErrorIs(t, err, ErrProtocol)
	})
	t.Run("invalid_utf8_id", func(t *testing.T) {
		_, err := DecodeReport(SerIDProtobuf, []byte{0x0a, 0x01, 0xff})
		assert.ErrorIs(t, err, ErrProtocol)
	})
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add((&MetricReport{ID: "process", IO: &IO{Read: 1}}).Marshal())
	f.Add([]byte{0x12, 0x02, 0x08})
	f.Add([]byte{0x0b, 0x08, 0x01, 0x0c})
	f.Fuzz(func(t *testing.T, b []byte) {
		_, _ = DecodeSubscribe(SerIDProtobuf, b)
		r, err := DecodeReport(SerIDProtobuf, b)
		if err == nil {
			// whatever decodes must re-encode and decode to the same report
			again, err := DecodeReport(SerIDProtobuf, r.Marshal())
			require.NoError(t, err)
			assert.Equal(t, r, again)
		}
	})
}
