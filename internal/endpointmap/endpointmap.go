// Package endpointmap implements the open-addressed hash map used to
// deduplicate rainbow chains by endpoint during generation. It trades
// a general-purpose hash map for three domain-specific shortcuts: a
// (MaxUint64, MaxUint64) sentinel for vacant slots, the endpoint used
// directly as its own hash (endpoints are already well distributed by
// the reduction function), and linear probing instead of rehashing.
package endpointmap

import (
	"github.com/rtlab/gorainbow/internal/rterrors"
)

// loadFactor bounds how full the table may get before probe chains
// grow long; it sizes capacity relative to the expected entry count.
const loadFactor = 0.7

// Chain is one entry: the counter a chain started at and the counter
// it ended at after running the full column range.
type Chain struct {
	Startpoint uint64
	Endpoint   uint64
}

// Vacant is the sentinel marking an empty slot. No real chain can
// produce it: startpoint and endpoint are both bounded by N-1 < MaxUint64
// for any context whose search space was validated at Build time.
var Vacant = Chain{Startpoint: ^uint64(0), Endpoint: ^uint64(0)}

// Map is the fixed-capacity open-addressed endpoint table.
type Map struct {
	inner []Chain
	len   int
	cap   int
}

// New returns an empty map sized for m0 entries at the target load
// factor.
func New(m0 uint64) (*Map, error) {
	cap := capacityFor(m0)
	inner := make([]Chain, cap)
	for i := range inner {
		inner[i] = Vacant
	}
	return &Map{inner: inner, len: 0, cap: cap}, nil
}

// WithStartpoints returns a map pre-filled with the identity chains
// (i, i) for i in [0, m0) — the initial generation of every chain
// before any column has run. It is not a valid lookup table (entries
// are placed by index, not by endpoint hash); use it only to seed a
// generation pass via Chains.
func WithStartpoints(m0 uint64) (*Map, error) {
	if m0 == 0 {
		return nil, rterrors.OutOfMemory()
	}

	cap := capacityFor(m0)
	inner := make([]Chain, cap)
	for i := uint64(0); i < m0; i++ {
		inner[i] = Chain{Startpoint: i, Endpoint: i}
	}
	for i := m0; i < uint64(cap); i++ {
		inner[i] = Vacant
	}

	return &Map{inner: inner, len: int(m0), cap: cap}, nil
}

func capacityFor(m0 uint64) int {
	cap := int(float64(m0) / loadFactor)
	if cap < 1 {
		cap = 1
	}
	return cap
}

// Clear empties the map in place, keeping its allocated capacity.
func (m *Map) Clear() {
	for i := range m.inner {
		m.inner[i] = Vacant
	}
	m.len = 0
}

// Insert adds chain, discarding it if a chain with the same endpoint
// is already present (a chain collision — the table only needs to
// remember one startpoint per endpoint, since either would recover
// the same plaintext during a search).
func (m *Map) Insert(chain Chain) {
	index := int(chain.Endpoint % uint64(m.cap))

	for {
		entry := m.inner[index]

		if entry == Vacant {
			m.inner[index] = chain
			m.len++
			return
		}

		if entry.Endpoint == chain.Endpoint {
			return
		}

		index = (index + 1) % m.cap
	}
}

// Get returns the startpoint stored for endpoint, if any.
func (m *Map) Get(endpoint uint64) (uint64, bool) {
	index := int(endpoint % uint64(m.cap))

	for {
		entry := m.inner[index]

		if entry.Endpoint == endpoint && entry != Vacant {
			return entry.Startpoint, true
		}

		if entry == Vacant {
			return 0, false
		}

		index = (index + 1) % m.cap
	}
}

// Len reports the number of live entries.
func (m *Map) Len() int {
	return m.len
}

// Chains returns every live (startpoint, endpoint) pair, in table
// order. The result is unsorted; callers that need sorted endpoints
// (for compressed storage) must sort it themselves.
func (m *Map) Chains() []Chain {
	out := make([]Chain, 0, m.len)
	for _, entry := range m.inner {
		if entry != Vacant {
			out = append(out, entry)
		}
	}
	return out
}
