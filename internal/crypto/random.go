package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// maxRegistrationID is the upper bound (inclusive) of registration ids.
const maxRegistrationID = 16380

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandomRegistrationID returns a registration id in [1, 16380].
func RandomRegistrationID() (uint32, error) {
	v, err := randomUint32()
	if err != nil {
		return 0, err
	}
	return v%maxRegistrationID + 1, nil
}

// RandomSenderKeyID returns a sender key chain id in [0, 2^31-1).
func RandomSenderKeyID() (uint32, error) {
	v, err := randomUint32()
	if err != nil {
		return 0, err
	}
	return v % math.MaxInt32, nil
}

func randomUint32() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
