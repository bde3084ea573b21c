package x3dh

import (
	"bytes"

	"whisper/internal/crypto"
	"whisper/internal/domain/types"
	"whisper/internal/util/memzero"
)

var (
	infoText = []byte("WhisperText")

	// discontinuity prefixes the DH transcript.
	discontinuity = bytes.Repeat([]byte{0xff}, 32)
)

// InitiatorMasterSecret derives the root and chain keys for the side that
// fetched a bundle. theirOneTime is nil when the bundle had no one-time
// pre-key.
func InitiatorMasterSecret(
	ourIdentity, ourBase types.KeyPair,
	theirIdentity, theirSignedPreKey types.X25519Public,
	theirOneTime *types.X25519Public,
) (root, chain []byte, err error) {
	var oneTime []byte
	if theirOneTime != nil {
		dh, err := crypto.DH(ourBase.Private, *theirOneTime) // DH(EKA, OPKB)
		if err != nil {
			return nil, nil, err
		}
		oneTime = dh[:]
	}
	return agree(true, ourIdentity, ourBase, theirIdentity, theirSignedPreKey, oneTime)
}

// ResponderMasterSecret derives the same keys on the side that published the
// bundle. ourOneTime is nil when the handshake named no one-time pre-key.
func ResponderMasterSecret(
	ourIdentity, ourSignedPreKey types.KeyPair,
	ourOneTime *types.KeyPair,
	theirIdentity, theirBaseKey types.X25519Public,
) (root, chain []byte, err error) {
	var oneTime []byte
	if ourOneTime != nil {
		dh, err := crypto.DH(ourOneTime.Private, theirBaseKey) // DH(OPKB, EKA)
		if err != nil {
			return nil, nil, err
		}
		oneTime = dh[:]
	}
	return agree(false, ourIdentity, ourSignedPreKey, theirIdentity, theirBaseKey, oneTime)
}

// agree computes the transcript 0xFF*32 ‖ first ‖ second ‖ DH(ours, theirs)
// [‖ oneTime]. The pair identity×their-ephemeral / ephemeral×their-identity
// is computed once; the initiator writes it in that order and the responder
// swapped, so both transcripts match.
func agree(
	initiator bool,
	ourIdentity, ourEphemeral types.KeyPair,
	theirIdentity, theirEphemeral types.X25519Public,
	oneTime []byte,
) ([]byte, []byte, error) {
	a, err := crypto.DH(ourIdentity.Private, theirEphemeral)
	if err != nil {
		return nil, nil, err
	}
	b, err := crypto.DH(ourEphemeral.Private, theirIdentity)
	if err != nil {
		return nil, nil, err
	}
	c, err := crypto.DH(ourEphemeral.Private, theirEphemeral)
	if err != nil {
		return nil, nil, err
	}

	first, second := a[:], b[:]
	if !initiator {
		first, second = second, first
	}

	secret := make([]byte, 0, 32*5)
	secret = append(secret, discontinuity...)
	secret = append(secret, first...)
	secret = append(secret, second...)
	secret = append(secret, c[:]...)
	secret = append(secret, oneTime...)

	out, err := crypto.DeriveSecrets(secret, nil, infoText, 64)
	memzero.Zero(secret)
	memzero.Array(&a)
	memzero.Array(&b)
	memzero.Array(&c)
	memzero.Zero(oneTime)
	if err != nil {
		return nil, nil, err
	}
	return out[:32], out[32:], nil
}
