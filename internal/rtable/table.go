// Package rtable implements rainbow tables: the data structures that
// store generated chains and let a digest be searched against them.
// Two storage shapes are provided — SimpleTable, an in-memory
// endpoint map ready right after generation, and CompressedTable, a
// delta/Rice-coded layout built from a SimpleTable for disk storage.
package rtable

import (
	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
)

// Chain is a generated chain: the counter it started at and the
// counter it ended at after t-1 reduction/hash steps.
type Chain struct {
	Startpoint uint64
	Endpoint   uint64
}

// Table is the interface shared by every on-disk and in-memory table
// layout: enough to search it for a digest and to convert it to or
// from any other layout.
type Table interface {
	// Len reports the number of chains stored.
	Len() int

	// Chains returns every chain, in unspecified order.
	Chains() []Chain

	// SearchEndpoints returns the startpoint of the chain whose
	// endpoint equals password, if one is stored.
	SearchEndpoints(password uint64) (uint64, bool)

	// Ctx returns the generation parameters the table was built with.
	Ctx() *ctx.Context
}

// Transcode converts src into another table representation, entirely by
// way of its chains and context, so Simple->Compressed and
// Compressed->Simple both go through the same code path: the one the
// original chain generator leaves them in is irrelevant, only the
// (startpoint, endpoint) pairs and the context matter. T is the
// concrete destination type, *SimpleTable or *CompressedTable.
func Transcode[T Table](src Table) (T, error) {
	var zero T

	switch any(zero).(type) {
	case *SimpleTable:
		simple, err := NewSimpleTableFromChains(src.Chains(), src.Ctx())
		if err != nil {
			return zero, err
		}
		return any(simple).(T), nil

	case *CompressedTable:
		simple, ok := src.(*SimpleTable)
		if !ok {
			var err error
			simple, err = NewSimpleTableFromChains(src.Chains(), src.Ctx())
			if err != nil {
				return zero, err
			}
		}
		return any(NewCompressedTable(simple)).(T), nil

	default:
		panic("rtable: Transcode called with an unsupported destination type")
	}
}

// SearchColumn replays the chain that would pass through column for a
// given digest, looking it up by its column-t-1 endpoint and walking
// it back to the original plaintext. It returns the matching
// plaintext, or nil if no chain in the table covers this digest at
// this column.
func SearchColumn(table Table, column uint64, digest []byte) []byte {
	c := table.Ctx()
	columnDigest := append([]byte(nil), digest...)

	var columnCounter uint64
	for k := column; k < c.T-2; k++ {
		columnCounter = codec.Reduce(columnDigest, k, c)
		columnPlaintext := codec.CounterToPassword(columnCounter, c)
		columnDigest = codec.Hash(columnPlaintext, c)
	}
	columnCounter = codec.Reduce(columnDigest, c.T-2, c)

	startpoint, ok := table.SearchEndpoints(columnCounter)
	if !ok {
		return nil
	}

	chainPlaintext := codec.CounterToPassword(startpoint, c)
	for k := uint64(0); k < column; k++ {
		columnDigest = codec.Hash(chainPlaintext, c)
		chainCounter := codec.Reduce(columnDigest, k, c)
		chainPlaintext = codec.CounterToPassword(chainCounter, c)
	}

	if !bytesEqual(codec.Hash(chainPlaintext, c), digest) {
		return nil
	}

	return chainPlaintext
}

// Search looks for a plaintext that hashes to digest by checking every
// column from the last to the first, since a later column needs fewer
// reduce/hash steps to reach its endpoint. It returns nil if the digest
// is not covered by the table.
func Search(table Table, digest []byte) []byte {
	c := table.Ctx()
	for i := int64(c.T) - 2; i >= 0; i-- {
		if plaintext := SearchColumn(table, uint64(i), digest); plaintext != nil {
			return plaintext
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
