package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"

	"whisper/internal/domain/types"
)

// SignatureSize is the length of an XEdDSA signature.
const SignatureSize = 64

// hashPrefix domain-separates the nonce hash from Ed25519's.
var hashPrefix = [32]byte{
	0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// Sign produces an XEdDSA signature over message with a Curve25519 private
// key. The sign bit of the Edwards public key is carried in the top bit of
// the last signature byte.
func Sign(priv types.X25519Private, message []byte) ([]byte, error) {
	var random [64]byte
	if _, err := rand.Read(random[:]); err != nil {
		return nil, err
	}

	a, err := edwards25519.NewScalar().SetBytesWithClamping(priv.Slice())
	if err != nil {
		return nil, err
	}
	edPub := new(edwards25519.Point).ScalarBaseMult(a).Bytes()
	signBit := edPub[31] & 0x80

	h := sha512.New()
	h.Write(hashPrefix[:])
	h.Write(a.Bytes())
	h.Write(message)
	h.Write(random[:])
	r, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}
	R := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	h.Write(R)
	h.Write(edPub)
	h.Write(message)
	k, err := edwards25519.NewScalar().SetUniformBytes(h.Sum(nil))
	if err != nil {
		return nil, err
	}
	s := edwards25519.NewScalar().MultiplyAdd(k, a, r)

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, R...)
	sig = append(sig, s.Bytes()...)
	sig[63] &= 0x7f
	sig[63] |= signBit
	return sig, nil
}

// Verify checks an XEdDSA signature under a Curve25519 public key.
func Verify(pub types.X25519Public, message, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	edPub, ok := montgomeryToEdwards(pub)
	if !ok {
		return false
	}
	edPub[31] |= sig[63] & 0x80

	s := make([]byte, SignatureSize)
	copy(s, sig)
	s[63] &= 0x7f
	return ed25519.Verify(edPub, message, s)
}

// montgomeryToEdwards maps u to the Edwards y = (u-1)/(u+1) with a cleared
// sign bit.
func montgomeryToEdwards(pub types.X25519Public) (ed25519.PublicKey, bool) {
	var u, one, num, den, y field.Element
	if _, err := u.SetBytes(pub.Slice()); err != nil {
		return nil, false
	}
	one.One()
	num.Subtract(&u, &one)
	den.Add(&u, &one)
	if den.Equal(new(field.Element)) == 1 {
		return nil, false
	}
	den.Invert(&den)
	y.Multiply(&num, &den)
	return ed25519.PublicKey(y.Bytes()), true
}
