// Package ctx holds the immutable parameters of a rainbow table: the
// alphabet, password length bound, chain length, startpoint count, table
// index and the hash function, plus the search-space prefix sums derived
// from them. A Context is not modified after Build; tables and chain
// operations share it by pointer.
package ctx

import (
	"math"
	"sort"

	"github.com/rtlab/gorainbow/internal/hashfn"
	"github.com/rtlab/gorainbow/internal/rterrors"
)

const (
	// DefaultFilterCount is the default number of filtration columns.
	DefaultFilterCount = 20

	// DefaultChainLength is the default chain length t.
	DefaultChainLength uint64 = 10_000

	// DefaultAlpha is the default maximality factor.
	DefaultAlpha = 0.952

	// DefaultMaxPasswordLength is the default L.
	DefaultMaxPasswordLength uint8 = 6

	// DefaultTableNumber is the default (zero-indexed) table number.
	DefaultTableNumber uint8 = 0

	// MaxPasswordLengthAllowed is the implementation-defined cap on L.
	MaxPasswordLengthAllowed = 10

	// MaxCharsetLengthAllowed is the implementation-defined cap on |Sigma|.
	MaxCharsetLengthAllowed = 126
)

// DefaultCharset is the default alphabet used when none is supplied.
var DefaultCharset = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_")

// Context is the immutable set of parameters shared by every chain
// operation against one rainbow table.
type Context struct {
	// Charset is the sorted alphabet Sigma.
	Charset []byte
	// T is the chain length.
	T uint64
	// MaxPasswordLength is L.
	MaxPasswordLength uint8
	// N is the total search-space size, S[L+1].
	N uint64
	// SearchSpaces holds the prefix sums S[0..L+1].
	SearchSpaces []uint64
	// M0 is the number of startpoints.
	M0 uint64
	// TableNumber is tn, stored internally as >= 1.
	TableNumber uint8
	// HashFunction selects the hash used to build and query this table.
	HashFunction hashfn.Function
}

// Builder constructs a Context from user-supplied parameters, applying
// the package defaults for anything left unset.
type Builder struct {
	hashFunction      hashfn.Function
	charset           []byte
	t                 uint64
	tn                uint8
	maxPasswordLength uint8
	m0                *uint64
	alpha             float64
}

// NewBuilder returns a Builder preloaded with the package defaults.
func NewBuilder() *Builder {
	return &Builder{
		hashFunction:      hashfn.Ntlm,
		charset:           append([]byte(nil), DefaultCharset...),
		maxPasswordLength: DefaultMaxPasswordLength,
		t:                 DefaultChainLength,
		tn:                DefaultTableNumber + 1,
		alpha:             DefaultAlpha,
	}
}

// Hash sets the hash function.
func (b *Builder) Hash(h hashfn.Function) *Builder {
	b.hashFunction = h
	return b
}

// Charset sets the alphabet. It is sorted at Build time.
func (b *Builder) Charset(charset []byte) *Builder {
	b.charset = append([]byte(nil), charset...)
	return b
}

// ChainLength sets t.
func (b *Builder) ChainLength(t uint64) *Builder {
	b.t = t
	return b
}

// MaxPasswordLength sets L.
func (b *Builder) MaxPasswordLength(l uint8) *Builder {
	b.maxPasswordLength = l
	return b
}

// TableNumber sets the table number. Table numbers are 1-indexed
// internally so the reduce function has more randomness across tables
// in a cluster; callers pass the external (0-indexed) number.
func (b *Builder) TableNumber(tableNumber uint8) *Builder {
	b.tn = tableNumber + 1
	return b
}

// Startpoints sets m0 directly, overriding alpha. Prefer Alpha unless you
// know exactly what you are doing.
func (b *Builder) Startpoints(m0 uint64) *Builder {
	v := m0
	b.m0 = &v
	return b
}

// Alpha sets the maximality factor used to derive m0.
func (b *Builder) Alpha(alpha float64) *Builder {
	b.alpha = alpha
	return b
}

// Build validates the parameters and returns the resulting Context.
func (b *Builder) Build() (*Context, error) {
	if b.maxPasswordLength > MaxPasswordLengthAllowed {
		return nil, rterrors.MaxLenExceeded()
	}
	if len(b.charset) > MaxCharsetLengthAllowed {
		return nil, rterrors.CharsetTooLong()
	}
	if b.t < 2 {
		return nil, rterrors.ChainTooShort()
	}
	seen := make(map[byte]bool, len(b.charset))
	for _, ch := range b.charset {
		if seen[ch] {
			return nil, rterrors.CharsetDuplicate()
		}
		seen[ch] = true
	}

	searchSpaces := make([]uint64, 0, int(b.maxPasswordLength)+2)
	var n uint64
	searchSpaces = append(searchSpaces, n)

	charsetLen := uint64(len(b.charset))
	for i := uint8(0); i < b.maxPasswordLength; i++ {
		n += pow64(charsetLen, uint64(i))
		searchSpaces = append(searchSpaces, n)
	}

	last := pow64(charsetLen, uint64(b.maxPasswordLength))
	// Detect overflow of the final addition before it wraps silently.
	if n > math.MaxUint64-last {
		return nil, rterrors.SpaceTooLarge(spaceBits(n, last))
	}
	n += last
	searchSpaces = append(searchSpaces, n)

	m0 := n
	if b.m0 != nil {
		m0 = *b.m0
	} else if b.alpha != 1 {
		mtmax := (2 * float64(n)) / float64(b.t+2)
		m0f := (b.alpha / (1 - b.alpha)) * mtmax
		m0 = clampU64(m0f, 1, n)
	}

	charset := append([]byte(nil), b.charset...)
	sort.Slice(charset, func(i, j int) bool { return charset[i] < charset[j] })

	return &Context{
		Charset:           charset,
		T:                 b.t,
		MaxPasswordLength: b.maxPasswordLength,
		N:                 n,
		SearchSpaces:      searchSpaces,
		M0:                m0,
		TableNumber:       b.tn,
		HashFunction:      b.hashFunction,
	}, nil
}

func pow64(base, exp uint64) uint64 {
	result := uint64(1)
	for i := uint64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func spaceBits(n, last uint64) uint8 {
	total := float64(n) + float64(last)
	return uint8(math.Ceil(math.Log2(total)))
}

func clampU64(v float64, lo, hi uint64) uint64 {
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return uint64(v)
}
