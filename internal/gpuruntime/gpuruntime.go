// Package gpuruntime runs the column-advance kernel — the inner loop
// that walks a batch of chain endpoints forward through a range of
// columns — across a bounded pool of goroutines. It stands in for the
// GPU compute backend of a production renderer: same batch/kernel
// contract, CPU-parallel implementation.
package gpuruntime

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/rterrors"
)

// Backend advances a batch of chain endpoints through a column range.
// chains holds compressed-password counters in place; RunKernel
// mutates it in place, the way a device kernel would write back to a
// mapped buffer.
type Backend interface {
	RunKernel(goCtx context.Context, chains []uint64, colStart, colEnd uint64, rc *ctx.Context) error
}

// CPU is the multithreaded CPU backend. It is the only Backend this
// implementation ships; the interface exists so a future device
// backend can be dropped in without touching the generator.
type CPU struct {
	// Workers bounds how many chains are advanced concurrently. Zero
	// means GOMAXPROCS.
	Workers int
}

// NewCPU returns a CPU backend sized to the host's available
// parallelism.
func NewCPU() *CPU {
	return &CPU{Workers: runtime.GOMAXPROCS(0)}
}

// RunKernel advances every chain in chains through [colStart, colEnd),
// fanning the batch out across the backend's worker pool. It returns
// the first error encountered, if the context is canceled.
func (c *CPU) RunKernel(goCtx context.Context, chains []uint64, colStart, colEnd uint64, rc *ctx.Context) error {
	if len(chains) == 0 {
		return nil
	}

	workers := c.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(chains) {
		workers = len(chains)
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, goCtx := errgroup.WithContext(goCtx)

	for i := range chains {
		if err := sem.Acquire(goCtx, 1); err != nil {
			return rterrors.Device(err.Error())
		}

		i := i
		g.Go(func() error {
			defer sem.Release(1)
			chains[i] = codec.ContinueChain(chains[i], colStart, colEnd, rc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rterrors.Device(err.Error())
	}
	return nil
}
