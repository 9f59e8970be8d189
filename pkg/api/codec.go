package api

import (
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	reportID      protowire.Number = 1
	reportMemory  protowire.Number = 2
	reportCPU     protowire.Number = 3
	reportNetwork protowire.Number = 4
	reportIO      protowire.Number = 5
)

// Marshal encodes the empty Subscribe message.
func (s *Subscribe) Marshal() []byte { return []byte{} }

// Unmarshal accepts any well-formed message; Subscribe has no fields of its
// own, unknown ones are skipped.
func (s *Subscribe) Unmarshal(b []byte) error {
	return unmarshalFields(b, skipField)
}

func (r *MetricReport) Marshal() []byte {
	var b []byte
	if r.ID != "" {
		b = protowire.AppendTag(b, reportID, protowire.BytesType)
		b = protowire.AppendString(b, r.ID)
	}
	b = appendMessage(b, reportMemory, appendUints(nil, r.Memory.Usage, r.Memory.Limit))
	b = appendMessage(b, reportCPU, appendUints(nil, r.CPU.Total, r.CPU.System))
	if n := r.Network; n != nil {
		b = appendMessage(b, reportNetwork, appendUints(nil, n.RxBytes, n.RxPackets, n.TxBytes, n.TxPackets))
	}
	if io := r.IO; io != nil {
		b = appendMessage(b, reportIO, appendUints(nil, io.Read, io.Write))
	}
	return b
}

func (r *MetricReport) Unmarshal(b []byte) error {
	*r = MetricReport{}
	return unmarshalFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case reportID:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			if !utf8.Valid(v) {
				return 0, fmt.Errorf("%w: id is not valid utf-8", ErrProtocol)
			}
			r.ID = string(v)
			return n, nil
		case reportMemory:
			return consumeUints(typ, b, &r.Memory.Usage, &r.Memory.Limit)
		case reportCPU:
			return consumeUints(typ, b, &r.CPU.Total, &r.CPU.System)
		case reportNetwork:
			if r.Network == nil {
				r.Network = &Network{}
			}
			n := r.Network
			return consumeUints(typ, b, &n.RxBytes, &n.RxPackets, &n.TxBytes, &n.TxPackets)
		case reportIO:
			if r.IO == nil {
				r.IO = &IO{}
			}
			return consumeUints(typ, b, &r.IO.Read, &r.IO.Write)
		default:
			return skipField(num, typ, b)
		}
	})
}

// DecodeSubscribe decodes a payload tagged serID as a Subscribe.
func DecodeSubscribe(serID uint64, payload []byte) (*Subscribe, error) {
	if err := checkSerID(serID); err != nil {
		return nil, err
	}
	s := &Subscribe{}
	if err := s.Unmarshal(payload); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodeReport decodes a payload tagged serID as a MetricReport.
func DecodeReport(serID uint64, payload []byte) (*MetricReport, error) {
	if err := checkSerID(serID); err != nil {
		return nil, err
	}
	r := &MetricReport{}
	if err := r.Unmarshal(payload); err != nil {
		return nil, err
	}
	return r, nil
}

func checkSerID(serID uint64) error {
	if serID != SerIDProtobuf {
		return fmt.Errorf("%w: unknown serialization id %d", ErrProtocol, serID)
	}
	return nil
}

// appendUints encodes vals as varint fields numbered 1..len(vals), omitting
// zeros as proto3 does.
func appendUints(b []byte, vals ...uint64) []byte {
	for i, v := range vals {
		if v == 0 {
			continue
		}
		b = protowire.AppendTag(b, protowire.Number(i+1), protowire.VarintType)
		b = protowire.AppendVarint(b, v)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// consumeUints decodes a nested message of varint fields numbered
// 1..len(dst). Fields merge into dst like repeated occurrences do in proto.
func consumeUints(typ protowire.Type, b []byte, dst ...*uint64) (int, error) {
	body, n, err := consumeBytes(typ, b)
	if err != nil {
		return 0, err
	}
	err = unmarshalFields(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num < 1 || int(num) > len(dst) {
			return skipField(num, typ, b)
		}
		if typ != protowire.VarintType {
			return 0, fmt.Errorf("%w: field %d has wire type %d", ErrProtocol, num, typ)
		}
		v, m := protowire.ConsumeVarint(b)
		if m < 0 {
			return 0, parseError(m)
		}
		*dst[num-1] = v
		return m, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("%w: wire type %d where bytes expected", ErrProtocol, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, parseError(n)
	}
	return v, n, nil
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// unmarshalFields walks the top level fields of b, handing each value to fn
// which reports how many bytes it consumed.
func unmarshalFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return parseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, parseError(n)
	}
	return n, nil
}

func parseError(n int) error {
	return fmt.Errorf("%w: %w", ErrProtocol, protowire.ParseError(n))
}
