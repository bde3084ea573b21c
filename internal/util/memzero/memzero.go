// Package memzero wipes key material that is no longer needed.
package memzero

import "runtime"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// Array zeroes a fixed-size secret such as a DH output or private key in
// place.
func Array[T ~[32]byte](k *T) {
	var zero T
	*k = zero
	runtime.KeepAlive(k)
}
