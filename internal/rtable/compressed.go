package rtable

import (
	"math"
	"sort"

	"github.com/rtlab/gorainbow/internal/ctx"
)

// blockSize is the number of chains grouped per index block. It's an
// arbitrary tradeoff: smaller blocks shrink the average search scan,
// larger blocks shrink the index itself.
const blockSize = 256

// index tracks, for each block, the bit offset of its first encoded
// endpoint and the ordinal of its first chain — both packed at the
// minimum bit width that fits the table's size, following "Precomputation
// for Rainbow Tables has Never Been so Fast" section 4.
type index struct {
	len             int
	entries         *bitWriter
	bitAddressSize  int
	chainNumberSize int
}

func newIndex(n, m float64, k uint8) *index {
	rate := optimalRiceParameterRate(n, m, k)
	bitAddressSize := int(math.Ceil(math.Log2(rate * m)))
	chainNumberSize := int(math.Max(math.Ceil(math.Log2(m)), 1))

	return &index{
		entries:         &bitWriter{},
		bitAddressSize:  bitAddressSize,
		chainNumberSize: chainNumberSize,
	}
}

func (idx *index) addEntry(bitAddress, chainNumber int) {
	idx.len++
	idx.entries.pushBits(uint64(bitAddress), idx.bitAddressSize)
	idx.entries.pushBits(uint64(chainNumber), idx.chainNumberSize)
}

func (idx *index) getEntry(i int) (bitAddress, chainNumber int, ok bool) {
	if i < 0 || i >= idx.len {
		return 0, 0, false
	}

	entrySize := idx.bitAddressSize + idx.chainNumberSize
	r := idx.entries.reader(entrySize * i)
	bitAddress = int(r.readBits(idx.bitAddressSize))
	chainNumber = int(r.readBits(idx.chainNumberSize))
	return bitAddress, chainNumber, true
}

// CompressedTable stores chains as delta/Rice-coded endpoints plus a
// sparse index, trading search-time scanning for a much smaller
// footprint than SimpleTable's endpoint map — typically under 2 bytes
// per chain once the optimal Rice parameter is found.
type CompressedTable struct {
	ctx          *ctx.Context
	index        *index
	startpoints  *bitWriter
	endpoints    *bitWriter
	l            int
	k            uint8
	m            int
	passwordBits uint8
}

// riceDecode reads one Rice-coded value (parameter k) from r, which is
// mutated to point past the value read.
func riceDecode(k uint8, r *bitReader) uint64 {
	m := uint64(1) << k

	s := uint64(0)
	for r.readBit() {
		s++
	}

	x := r.readBits(int(k))
	return s*m + x
}

// riceEncode appends x to w, Rice-coded with parameter k: the quotient
// x/2^k in unary (a run of ones terminated by a zero), followed by the
// k-bit remainder.
func riceEncode(x uint64, k uint8, w *bitWriter) {
	m := uint64(1) << k
	q := x / m

	for i := uint64(0); i < q; i++ {
		w.pushBit(true)
	}
	w.pushBit(false)
	w.pushBits(x, int(k))
}

func blockCount(m int) int {
	return (m + blockSize - 1) / blockSize
}

func passwordBlock(password uint64, l int, n uint64) int {
	return int(password / (n / uint64(l)))
}

func passwordBitsFor(m0 uint64) uint8 {
	if m0 <= 1 {
		return 1
	}
	return uint8(math.Ceil(math.Log2(float64(m0))))
}

// optimalRiceParameter picks k minimizing the expected encoded size of
// a geometric-ish gap distribution over n values with m samples. The
// derivation is the golden-ratio approximation from the same paper;
// the formula is exact, not tunable.
func optimalRiceParameter(n, m float64) uint8 {
	goldenRatioLog := math.Log10((1+math.Sqrt(5))/2 - 1)
	spaceLog := math.Log10((n - m) / (n + 1))

	k := 1 + math.Log2(goldenRatioLog/spaceLog)
	ik := uint8(k)
	if ik < 1 {
		ik = 1
	}
	return ik
}

// optimalRiceParameterRate is the expected number of bits per encoded
// gap under parameter k, used to size the index's bit-address field.
func optimalRiceParameterRate(n, m float64, k uint8) float64 {
	frac := math.Pow((n-m)/(n+1), float64(uint64(1)<<k))
	return float64(k) + 1/(1-frac)
}

func (t *CompressedTable) startpoint(i int) uint64 {
	bits := int(t.passwordBits)
	return t.startpoints.reader(i * bits).readBits(bits)
}

// storeBlock encodes every chain whose endpoint falls in block i's
// span, delta-coding successive endpoints relative to the block start.
// It returns the ordinal of the first chain belonging to the next
// block.
func (t *CompressedTable) storeBlock(i, chainStart int, chains []Chain, next *int) int {
	blockSpan := int(t.ctx.N) / t.l
	firstValue := i * blockSpan
	nextBlockStart := (i + 1) * blockSpan

	start := *next
	for *next < len(chains) && int(chains[*next].Endpoint) < nextBlockStart {
		*next++
	}
	inBlock := chains[start:*next]

	for _, chain := range inBlock {
		t.startpoints.pushBits(chain.Startpoint, int(t.passwordBits))
	}

	last := uint64(firstValue)
	for j, chain := range inBlock {
		diff := chain.Endpoint - last
		if j == 0 {
			riceEncode(diff, t.k, t.endpoints)
		} else {
			riceEncode(diff-1, t.k, t.endpoints)
		}
		last = chain.Endpoint
	}

	return chainStart + len(inBlock)
}

// NewCompressedTable builds a CompressedTable from any other table
// layout, most commonly a freshly generated SimpleTable.
func NewCompressedTable(table Table) *CompressedTable {
	c := table.Ctx()
	m := table.Len()
	l := blockCount(m)
	k := optimalRiceParameter(float64(c.N), float64(m))
	passwordBits := passwordBitsFor(c.M0)

	t := &CompressedTable{
		ctx:          c,
		index:        newIndex(float64(c.N), float64(m), k),
		l:            l,
		k:            k,
		m:            m,
		passwordBits: passwordBits,
		startpoints:  &bitWriter{},
		endpoints:    &bitWriter{},
	}

	chains := table.Chains()
	sort.Slice(chains, func(i, j int) bool { return chains[i].Endpoint < chains[j].Endpoint })

	bitAddress := 0
	chainStart := 0
	next := 0
	for i := 0; i <= l; i++ {
		t.index.addEntry(bitAddress, chainStart)
		chainStart = t.storeBlock(i, chainStart, chains, &next)
		bitAddress = t.endpoints.bitLen()
	}

	return t
}

// Len reports the number of chains stored.
func (t *CompressedTable) Len() int { return t.m }

// Ctx returns the generation parameters.
func (t *CompressedTable) Ctx() *ctx.Context { return t.ctx }

// SearchEndpoints scans the block a password would fall in (found via
// the index) for a matching encoded endpoint.
func (t *CompressedTable) SearchEndpoints(password uint64) (uint64, bool) {
	blockNumber := passwordBlock(password, t.l, t.ctx.N)

	_, chainStart, ok := t.index.getEntry(blockNumber)
	if !ok {
		return 0, false
	}

	it, ok := newEndpointIterator(t, blockNumber)
	if !ok {
		return 0, false
	}

	pos := -1
	for i := 0; ; i++ {
		endpoint, ok := it.next()
		if !ok {
			break
		}
		if endpoint == password {
			pos = i
			break
		}
		if endpoint > password {
			break
		}
	}
	if pos < 0 {
		return 0, false
	}

	return t.startpoint(chainStart + pos), true
}

// Chains decodes every stored chain. It is used for conversion between
// table layouts and is not the hot path for a search.
func (t *CompressedTable) Chains() []Chain {
	out := make([]Chain, 0, t.m)

	it, ok := newEndpointIterator(t, 0)
	if !ok {
		return out
	}

	for i := 0; ; i++ {
		endpoint, ok := it.next()
		if !ok {
			break
		}
		out = append(out, Chain{Startpoint: t.startpoint(i), Endpoint: endpoint})
	}

	return out
}

// endpointIterator walks the delta-coded endpoint stream block by
// block, reconstructing absolute endpoints from each block's deltas.
type endpointIterator struct {
	table              *CompressedTable
	i                  int
	block              int
	isFirstDiff        bool
	nextSwitch         int
	hasNextSwitch      bool
	lastEndpoint       uint64
	endpointBitAddress int
}

func newEndpointIterator(table *CompressedTable, block int) (*endpointIterator, bool) {
	bitAddress, i, ok := table.index.getEntry(block)
	if !ok {
		return nil, false
	}

	_, chainNumber, hasNext := table.index.getEntry(block + 1)

	blockSpan := int(table.ctx.N) / table.l

	return &endpointIterator{
		table:              table,
		block:              block,
		isFirstDiff:        true,
		i:                  i,
		endpointBitAddress: bitAddress,
		lastEndpoint:       uint64(blockSpan * block),
		nextSwitch:         chainNumber,
		hasNextSwitch:      hasNext,
	}, true
}

func (it *endpointIterator) next() (uint64, bool) {
	if it.i >= it.table.m {
		return 0, false
	}

	r := it.table.endpoints.reader(it.endpointBitAddress)
	diff := riceDecode(it.table.k, r)

	var endpoint uint64
	if it.isFirstDiff {
		endpoint = it.lastEndpoint + diff
	} else {
		endpoint = it.lastEndpoint + diff + 1
	}

	it.endpointBitAddress = r.pos
	it.i++

	if it.hasNextSwitch && it.i == it.nextSwitch {
		it.isFirstDiff = true
		it.block++
		_, chainNumber, hasNext := it.table.index.getEntry(it.block + 1)
		it.nextSwitch = chainNumber
		it.hasNextSwitch = hasNext

		blockSpan := int(it.table.ctx.N) / it.table.l
		it.lastEndpoint = uint64(blockSpan * it.block)
	} else {
		it.isFirstDiff = false
		it.lastEndpoint = endpoint
	}

	return endpoint, true
}
