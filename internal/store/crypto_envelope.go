package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"whisper/internal/util/memzero"
)

const (
	// The current supported version of the sealed record format.
	keystoreFormatVersion = 2

	// Upper bound on the scrypt cost accepted from a stored blob.
	maxScryptN = 1 << 20
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// sealed identity has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted identity")
)

// blob is the stored JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

type scryptParams struct{ N, R, P int }

// Tunables for scrypt key derivation.
var (
	scryptDefault = scryptParams{N: 1 << 15, R: 8, P: 1}
	scryptLight   = scryptParams{N: 1 << 10, R: 8, P: 1}
)

// seal derives a key from passphrase and seals raw into a JSON blob. The
// record key is bound as associated data, so a blob only opens under the key
// it was written to.
func seal(passphrase, recordKey string, raw []byte, params scryptParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	aead, err := newAEAD(passphrase, salt[:], params)
	if err != nil {
		return nil, err
	}
	var nonce [12]byte // zero nonce; salt-bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, associatedData(recordKey, salt[:]))

	return json.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt[:],
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Cipher: ct,
	})
}

// open decrypts a blob written by seal under recordKey.
func open(passphrase, recordKey string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, err
	}
	if bl.V != keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}
	if bl.N <= 1 || bl.N > maxScryptN || len(bl.Salt) != 16 {
		return nil, fmt.Errorf("keystore: implausible KDF parameters (N=%d)", bl.N)
	}

	aead, err := newAEAD(passphrase, bl.Salt, scryptParams{N: bl.N, R: bl.R, P: bl.P})
	if err != nil {
		return nil, err
	}
	var nonce [12]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, associatedData(recordKey, bl.Salt))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func newAEAD(passphrase string, salt []byte, params scryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	return chacha20poly1305.New(key)
}

func associatedData(recordKey string, salt []byte) []byte {
	ad := make([]byte, 0, len(recordKey)+1+len(salt))
	ad = append(ad, recordKey...)
	ad = append(ad, 0)
	return append(ad, salt...)
}
