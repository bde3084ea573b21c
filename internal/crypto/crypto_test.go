package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
)

func TestKeyHeader_RoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{7}, 32)

	framed, err := crypto.AppendKeyHeader(raw)
	require.NoError(t, err)
	require.Len(t, framed, 33)
	assert.Equal(t, crypto.KeyHeader, framed[0])

	again, err := crypto.AppendKeyHeader(framed)
	require.NoError(t, err)
	assert.Equal(t, framed, again)

	stripped, err := crypto.RemoveKeyHeader(framed)
	require.NoError(t, err)
	assert.Equal(t, raw, stripped)

	bare, err := crypto.RemoveKeyHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, bare)
}

func TestKeyHeader_InvalidSize(t *testing.T) {
	for _, n := range []int{0, 1, 31, 34, 64} {
		_, err := crypto.AppendKeyHeader(make([]byte, n))
		assert.ErrorIs(t, err, types.ErrInvalidKeySize, "append len %d", n)
		_, err = crypto.RemoveKeyHeader(make([]byte, n))
		assert.ErrorIs(t, err, types.ErrInvalidKeySize, "remove len %d", n)
	}
}

func TestDecodePublicKey_RejectsWrongType(t *testing.T) {
	b := make([]byte, 33)
	b[0] = 0x04
	_, err := crypto.DecodePublicKey(b)
	assert.ErrorIs(t, err, types.ErrInvalidKeySize)
}

func TestDH_Agrees(t *testing.T) {
	a, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	b, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	ab, err := crypto.DH(a.Private, b.Public)
	require.NoError(t, err)
	ba, err := crypto.DH(b.Private, a.Public)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	pub, err := crypto.PublicKey(a.Private)
	require.NoError(t, err)
	assert.Equal(t, a.Public, pub)
}

func TestXEdDSA_SignVerify(t *testing.T) {
	for i := 0; i < 16; i++ {
		kp, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		msg := []byte("signed pre-key")

		sig, err := crypto.Sign(kp.Private, msg)
		require.NoError(t, err)
		require.Len(t, sig, crypto.SignatureSize)
		assert.True(t, crypto.Verify(kp.Public, msg, sig))

		assert.False(t, crypto.Verify(kp.Public, []byte("other"), sig))

		bad := append([]byte(nil), sig...)
		bad[10] ^= 0x01
		assert.False(t, crypto.Verify(kp.Public, msg, bad))

		other, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		assert.False(t, crypto.Verify(other.Public, msg, sig))
	}
}

func TestXEdDSA_ShortSignature(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, crypto.Verify(kp.Public, []byte("m"), make([]byte, 63)))
}

func TestCBC_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	iv := bytes.Repeat([]byte{2}, 16)

	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		pt := bytes.Repeat([]byte{'x'}, n)
		ct, err := crypto.EncryptCBC(key, iv, pt)
		require.NoError(t, err)
		assert.Zero(t, len(ct)%16)

		got, err := crypto.DecryptCBC(key, iv, ct)
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
}

func TestCBC_RejectsBadLength(t *testing.T) {
	_, err := crypto.DecryptCBC(make([]byte, 32), make([]byte, 16), make([]byte, 15))
	assert.Error(t, err)
}

func TestDeriveSecrets_Length(t *testing.T) {
	out, err := crypto.DeriveSecrets([]byte("ikm"), nil, []byte("WhisperMessageKeys"), 80)
	require.NoError(t, err)
	assert.Len(t, out, 80)

	again, err := crypto.DeriveSecrets([]byte("ikm"), make([]byte, 32), []byte("WhisperMessageKeys"), 80)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestFingerprint_Stable(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	fp := crypto.Fingerprint(kp.Public)
	assert.Len(t, fp.String(), 20)
	assert.Equal(t, fp, crypto.Fingerprint(kp.Public))
}
