package codec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/codec"
	"whisper/internal/domain/types"
)

func TestPad_RoundTrip(t *testing.T) {
	msg := []byte("hello")
	for i := 0; i < 64; i++ {
		padded, err := codec.Pad(msg)
		require.NoError(t, err)
		n := len(padded) - len(msg)
		require.True(t, n >= 1 && n <= 16, "pad length %d", n)

		got, err := codec.Unpad(padded)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}
}

func TestUnpad_Rejects(t *testing.T) {
	cases := map[string][]byte{
		"empty":        nil,
		"zero":         {1, 2, 0},
		"too long":     {17},
		"past start":   {3, 3},
		"inconsistent": {'a', 1, 2},
	}
	for name, in := range cases {
		_, err := codec.Unpad(in)
		assert.ErrorIs(t, err, types.ErrInvalidPadding, name)
	}
}

func TestDeflate_RoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("group message "), 64)
	z, err := codec.Deflate(in)
	require.NoError(t, err)
	assert.Less(t, len(z), len(in))

	out, err := codec.Inflate(z)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestInflate_Garbage(t *testing.T) {
	_, err := codec.Inflate([]byte("not zlib"))
	assert.Error(t, err)
}
