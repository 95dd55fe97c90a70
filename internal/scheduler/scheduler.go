// Package scheduler splits chain generation work into batches sized for
// the worker pool, and yields the column ranges at which a generation
// pass must pause to filter (deduplicate) chain endpoints.
package scheduler

import (
	"math"

	"github.com/rtlab/gorainbow/internal/ctx"
)

// Batch describes one unit of generation work: a half-open range of
// chain indices and the worker count to process it with.
type Batch struct {
	Start, End int
	Workers    int
}

// Len reports the number of chains in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// BatchIterator splits chains_len chains into batches sized for the
// configured worker count, filling each worker's queue to capacity. The
// remainder of chainsLen/batches is spread one extra chain each across
// the first `remainder` batches, rather than dumped into a lone
// undersized final batch: no batch ever falls below the floor size,
// which would otherwise starve the worker pool's occupancy on its last
// dispatch.
type BatchIterator struct {
	batchSize   int
	remainder   int
	batches     int
	batchNumber int
	pos         int
	workers     int
}

const (
	// defaultWorkers approximates the parallelism of a busy multi-core
	// host; it replaces the CUDA-core count used to size a GPU batch.
	defaultWorkers = 256

	// fillFactor keeps each worker's queue topped up across batches so
	// scheduling overhead doesn't dominate for small chain counts.
	fillFactor = 10
)

// NewBatchIterator returns an iterator over chainsLen chains, split into
// batches sized so each worker processes fillFactor chains per batch.
func NewBatchIterator(chainsLen int) *BatchIterator {
	workers := defaultWorkers

	batches := chainsLen / (workers * fillFactor)
	if batches == 0 {
		batches = 1
	}

	batchSize := chainsLen / batches
	remainder := chainsLen % batches

	return &BatchIterator{
		batchSize: batchSize,
		remainder: remainder,
		batches:   batches,
		workers:   workers,
	}
}

// Next returns the next batch, or ok=false once exhausted.
func (it *BatchIterator) Next() (Batch, bool) {
	if it.batchNumber == it.batches {
		return Batch{}, false
	}

	size := it.batchSize
	if it.batchNumber < it.remainder {
		size++
	}

	workers := it.workers
	if size < workers {
		workers = size
	}
	if workers < 1 {
		workers = 1
	}

	start := it.pos
	batch := Batch{Start: start, End: start + size, Workers: workers}

	it.pos += size
	it.batchNumber++

	return batch, true
}

// Remaining reports how many batches are left to yield, including the
// one a subsequent Next call would return.
func (it *BatchIterator) Remaining() int {
	return it.batches - it.batchNumber
}

// FiltrationIterator yields the column ranges between successive
// filtration passes. Columns are spaced according to theorem 3 of
// "Precomputation for Rainbow Tables has Never Been so Fast": early
// passes are frequent, when chain merging is most likely, and later
// passes space out geometrically since merges become rare.
type FiltrationIterator struct {
	i          int
	currentCol int
	gamma      float64
	frac       float64
	filterCount int
	t          uint64
}

// NewFiltrationIterator returns an iterator of filtration column ranges
// for a chain of length c.T, given m0 startpoints.
func NewFiltrationIterator(c *ctx.Context) *FiltrationIterator {
	gamma := 2 * float64(c.N) / float64(c.M0)
	frac := (float64(c.T) + gamma - 1) / gamma

	return &FiltrationIterator{
		gamma:       gamma,
		frac:        frac,
		filterCount: ctx.DefaultFilterCount,
		t:           c.T,
	}
}

// Next returns the next column range [start,end) to generate before the
// next filtration pass, or ok=false once the chain has been fully
// generated through column t-1.
func (it *FiltrationIterator) Next() (start, end int, ok bool) {
	if it.i == it.filterCount {
		it.i++
		if it.currentCol >= int(it.t)-1 {
			return 0, 0, false
		}
		return it.currentCol, int(it.t) - 1, true
	} else if it.i > it.filterCount {
		return 0, 0, false
	}

	filterCol := int(it.gamma*math.Pow(it.frac, float64(it.i)/float64(it.filterCount))-it.gamma) + 2
	// On short chains the spacing can land past the last column.
	if last := int(it.t) - 1; filterCol > last {
		filterCol = last
	}

	col := it.currentCol
	it.i++
	it.currentCol = filterCol

	// Degenerate filtration column: can happen on small tables where
	// the geometric spacing collapses two passes together.
	if col == filterCol {
		return it.Next()
	}

	return col, filterCol, true
}
