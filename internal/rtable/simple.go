package rtable

import (
	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/endpointmap"
)

// SimpleTable is the in-memory table layout a generation pass produces
// directly: an endpoint map with O(1) average lookup, at the cost of
// roughly 16 bytes of storage per chain.
type SimpleTable struct {
	chains *endpointmap.Map
	ctx    *ctx.Context
}

// NewSimpleTableFromChains builds a SimpleTable from a flat chain list,
// deduplicating by endpoint the same way the generator's endpoint map
// does.
func NewSimpleTableFromChains(chains []Chain, c *ctx.Context) (*SimpleTable, error) {
	m, err := endpointmap.New(uint64(len(chains)))
	if err != nil {
		return nil, err
	}
	for _, chain := range chains {
		m.Insert(endpointmap.Chain{Startpoint: chain.Startpoint, Endpoint: chain.Endpoint})
	}
	return &SimpleTable{chains: m, ctx: c}, nil
}

// NewSimpleTable wraps an already-built endpoint map, transferring
// ownership to the table. The generator uses this path directly, to
// avoid re-inserting every chain a second time.
func NewSimpleTable(m *endpointmap.Map, c *ctx.Context) *SimpleTable {
	return &SimpleTable{chains: m, ctx: c}
}

// Len reports the number of chains stored.
func (t *SimpleTable) Len() int { return t.chains.Len() }

// Chains returns every stored chain, in table order (unsorted).
func (t *SimpleTable) Chains() []Chain {
	entries := t.chains.Chains()
	out := make([]Chain, len(entries))
	for i, e := range entries {
		out[i] = Chain{Startpoint: e.Startpoint, Endpoint: e.Endpoint}
	}
	return out
}

// SearchEndpoints looks up password directly in the endpoint map.
func (t *SimpleTable) SearchEndpoints(password uint64) (uint64, bool) {
	return t.chains.Get(password)
}

// Ctx returns the generation parameters.
func (t *SimpleTable) Ctx() *ctx.Context { return t.ctx }
