package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveSecrets expands input into length bytes with HKDF-SHA256. A nil salt
// means 32 zero bytes.
func DeriveSecrets(input, salt, info []byte, length int) ([]byte, error) {
	if salt == nil {
		salt = make([]byte, sha256.Size)
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, input, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}

// HMACSHA256 returns HMAC-SHA256(key, data).
func HMACSHA256(key []byte, data ...[]byte) []byte {
	h := hmac.New(sha256.New, key)
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
