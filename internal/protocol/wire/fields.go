package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
)

// CurrentVersion is the message version written and accepted.
const CurrentVersion = 3

// VersionByte is the first byte of every versioned message.
const VersionByte byte = CurrentVersion<<4 | CurrentVersion

// fields is a decoded protobuf body. Repeated fields keep the last value.
type fields struct {
	bytes   map[protowire.Number][]byte
	varints map[protowire.Number]uint64
}

func parseFields(b []byte) (fields, error) {
	f := fields{
		bytes:   make(map[protowire.Number][]byte),
		varints: make(map[protowire.Number]uint64),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, fmt.Errorf("%w: %v", types.ErrInvalidMessage, protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", types.ErrInvalidMessage, num, protowire.ParseError(n))
			}
			f.bytes[num] = v
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", types.ErrInvalidMessage, num, protowire.ParseError(n))
			}
			f.varints[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, fmt.Errorf("%w: field %d: %v", types.ErrInvalidMessage, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return f, nil
}

func (f fields) uint32(num protowire.Number) (uint32, bool) {
	v, ok := f.varints[num]
	return uint32(v), ok
}

func (f fields) publicKey(num protowire.Number) (types.X25519Public, error) {
	raw, ok := f.bytes[num]
	if !ok {
		return types.X25519Public{}, fmt.Errorf("%w: missing key field %d", types.ErrInvalidMessage, num)
	}
	pub, err := crypto.DecodePublicKey(raw)
	if err != nil {
		return types.X25519Public{}, fmt.Errorf("%w: field %d: %v", types.ErrInvalidMessage, num, err)
	}
	return pub, nil
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint32) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

// checkVersion validates the leading version byte of b.
func checkVersion(b []byte, minLen int) error {
	if len(b) < minLen {
		return fmt.Errorf("%w: %d bytes is too short", types.ErrInvalidMessage, len(b))
	}
	if v := b[0] >> 4; v != CurrentVersion {
		return fmt.Errorf("%w: %d", types.ErrInvalidVersion, v)
	}
	return nil
}
