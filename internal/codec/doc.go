// Package codec holds the byte-level helpers applied to plaintext before it
// reaches a cipher: random-length padding and zlib compression.
package codec
