// Package codec implements the bijection between compressed passwords
// (a 64-bit counter in [0,N)) and plaintext passwords, the per-column
// reduction function, and the chain continuation step that alternates
// them with a hash.
package codec

import (
	"encoding/binary"
	"sort"

	"github.com/rtlab/gorainbow/internal/ctx"
)

// CounterToPassword decodes a compressed password (a counter in [0,N))
// into its plaintext, over the alphabet and length bound described by c.
func CounterToPassword(counter uint64, c *ctx.Context) []byte {
	k := len(c.SearchSpaces) - 1
	for k > 0 && c.SearchSpaces[k] > counter {
		k--
	}

	rest := counter - c.SearchSpaces[k]
	charsetLen := uint64(len(c.Charset))

	password := make([]byte, k)
	for i := 0; i < k; i++ {
		password[i] = c.Charset[rest%charsetLen]
		rest /= charsetLen
	}

	return password
}

// PasswordToCounter is the inverse of CounterToPassword.
func PasswordToCounter(password []byte, c *ctx.Context) uint64 {
	counter := c.SearchSpaces[len(password)]
	charsetLen := uint64(len(c.Charset))
	base := uint64(1)

	for _, ch := range password {
		counter += uint64(charsetIndex(c.Charset, ch)) * base
		base *= charsetLen
	}

	return counter
}

// charsetIndex finds ch's position in the sorted charset.
func charsetIndex(charset []byte, ch byte) int {
	return sort.Search(len(charset), func(i int) bool { return charset[i] >= ch })
}

// Reduce maps a digest to a counter in [0,N), for column iteration i. The
// table number multiplies the iteration (rather than offsetting it
// additively) so sibling tables in a cluster diverge quickly across
// columns.
func Reduce(digest []byte, i uint64, c *ctx.Context) uint64 {
	seed := binary.LittleEndian.Uint64(digest[:8])
	return (seed + i*uint64(c.TableNumber)) % c.N
}

// Hash hashes a plaintext password under the context's hash function.
func Hash(password []byte, c *ctx.Context) []byte {
	return c.HashFunction.Sum(password)
}

// ContinueChain advances a chain's endpoint counter through columns
// [colStart, colEnd), alternating Hash and Reduce. It is pure: no
// allocation survives the call beyond the returned counter.
func ContinueChain(endpoint uint64, colStart, colEnd uint64, c *ctx.Context) uint64 {
	for i := colStart; i < colEnd; i++ {
		password := CounterToPassword(endpoint, c)
		digest := Hash(password, c)
		endpoint = Reduce(digest, i, c)
	}
	return endpoint
}
