package memzero_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"whisper/internal/domain/types"
	"whisper/internal/util/memzero"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	memzero.Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
	memzero.Zero(nil)
}

func TestArray(t *testing.T) {
	k := types.X25519Private{1, 2, 3}
	memzero.Array(&k)
	assert.Equal(t, types.X25519Private{}, k)

	dh := [32]byte{9}
	memzero.Array(&dh)
	assert.Equal(t, [32]byte{}, dh)
}
