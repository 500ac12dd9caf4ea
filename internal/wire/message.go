// Package wire implements the framed, tagged-message protocol spoken on both
// the main and the notification ports.
//
// Each frame is a 4-byte big-endian length followed by a body in protobuf
// wire format:
//
//	1 kind   varint
//	2 text   string
//	3 arg    string
//	4 data   bytes
//	5 num    varint
//	6 flag   bool
//	7 items  repeated string
//
// Zero-valued fields are omitted. Unknown field numbers are skipped so the
// format can grow.
package wire

import (
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/common"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldKind  protowire.Number = 1
	fieldText  protowire.Number = 2
	fieldArg   protowire.Number = 3
	fieldData  protowire.Number = 4
	fieldNum   protowire.Number = 5
	fieldFlag  protowire.Number = 6
	fieldItems protowire.Number = 7
)

// Message is one protocol message. Which fields are meaningful depends on Kind.
type Message struct {
	Kind  Kind
	Text  string
	Arg   string
	Data  []byte
	Num   int64
	Flag  bool
	Items []string
}

// Marshal appends the wire encoding of m to b.
func (m *Message) Marshal(b []byte) []byte {
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Kind))

	if m.Text != "" {
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, m.Text)
	}
	if m.Arg != "" {
		b = protowire.AppendTag(b, fieldArg, protowire.BytesType)
		b = protowire.AppendString(b, m.Arg)
	}
	if len(m.Data) > 0 {
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Data)
	}
	if m.Num != 0 {
		b = protowire.AppendTag(b, fieldNum, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Num))
	}
	if m.Flag {
		b = protowire.AppendTag(b, fieldFlag, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	for _, item := range m.Items {
		b = protowire.AppendTag(b, fieldItems, protowire.BytesType)
		b = protowire.AppendString(b, item)
	}
	return b
}

// Size returns the encoded length of m.
func (m *Message) Size() int {
	n := protowire.SizeTag(fieldKind) + protowire.SizeVarint(uint64(m.Kind))
	if m.Text != "" {
		n += protowire.SizeTag(fieldText) + protowire.SizeBytes(len(m.Text))
	}
	if m.Arg != "" {
		n += protowire.SizeTag(fieldArg) + protowire.SizeBytes(len(m.Arg))
	}
	if len(m.Data) > 0 {
		n += protowire.SizeTag(fieldData) + protowire.SizeBytes(len(m.Data))
	}
	if m.Num != 0 {
		n += protowire.SizeTag(fieldNum) + protowire.SizeVarint(uint64(m.Num))
	}
	if m.Flag {
		n += protowire.SizeTag(fieldFlag) + protowire.SizeVarint(1)
	}
	for _, item := range m.Items {
		n += protowire.SizeTag(fieldItems) + protowire.SizeBytes(len(item))
	}
	return n
}

// Unmarshal decodes a message body. The returned Data aliases b.
func Unmarshal(b []byte) (*Message, error) {
	m := &Message{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeError(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeError(protowire.ParseError(n))
			}
			if v >= uint64(kindCount) {
				return nil, fmt.Errorf("%w: unknown kind %d", common.ErrProtocolViolation, v)
			}
			m.Kind = Kind(v)
			b = b[n:]
		case num == fieldNum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeError(protowire.ParseError(n))
			}
			m.Num = int64(v)
			b = b[n:]
		case num == fieldFlag && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeError(protowire.ParseError(n))
			}
			m.Flag = protowire.DecodeBool(v)
			b = b[n:]
		case (num == fieldText || num == fieldArg || num == fieldData || num == fieldItems) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, decodeError(protowire.ParseError(n))
			}
			switch num {
			case fieldText:
				m.Text = string(v)
			case fieldArg:
				m.Arg = string(v)
			case fieldData:
				m.Data = v
			case fieldItems:
				m.Items = append(m.Items, string(v))
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, decodeError(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if !m.Kind.Valid() {
		return nil, fmt.Errorf("%w: missing kind", common.ErrProtocolViolation)
	}
	return m, nil
}

func decodeError(err error) error {
	return fmt.Errorf("%w: %v", common.ErrProtocolViolation, err)
}
