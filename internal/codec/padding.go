package codec

import (
	"crypto/rand"
	"fmt"

	"whisper/internal/domain/types"
)

// maxPadding is the largest pad Pad appends.
const maxPadding = 16

// Pad appends 1 to 16 random-length bytes, each holding the pad length.
func Pad(b []byte) ([]byte, error) {
	var r [1]byte
	if _, err := rand.Read(r[:]); err != nil {
		return nil, err
	}
	n := 1 + int(r[0]&0x0f)
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out, nil
}

// Unpad strips padding written by Pad.
func Unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty input", types.ErrInvalidPadding)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > maxPadding || n > len(b) {
		return nil, fmt.Errorf("%w: length %d", types.ErrInvalidPadding, n)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: inconsistent pad bytes", types.ErrInvalidPadding)
		}
	}
	return b[:len(b)-n], nil
}
