// Package generator runs a full chain-generation pass: m0 startpoint
// chains are advanced column by column, deduplicating by endpoint at
// the filtration points the scheduler computes, until every chain has
// reached column t-1.
package generator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/endpointmap"
	"github.com/rtlab/gorainbow/internal/event"
	"github.com/rtlab/gorainbow/internal/gpuruntime"
	"github.com/rtlab/gorainbow/internal/rtable"
	"github.com/rtlab/gorainbow/internal/scheduler"
)

// producerPoolSize bounds how many batches a filtration segment keeps in
// flight at once. Each producer runs its own backend.RunKernel call, so
// batch i+1's kernel can start before batch i's result has been folded
// back into the chain table.
const producerPoolSize = 4

// Generate produces a SimpleTable for the given context, running the
// column-advance kernel on backend and publishing event notifications to
// bus as it goes. bus may be nil, in which case events are simply
// discarded.
func Generate(goCtx context.Context, c *ctx.Context, backend gpuruntime.Backend, bus *event.Bus) (*rtable.SimpleTable, error) {
	currentChains, err := endpointmap.New(c.M0)
	if err != nil {
		return nil, err
	}
	nextChains, err := endpointmap.WithStartpoints(c.M0)
	if err != nil {
		return nil, err
	}

	filtration := scheduler.NewFiltrationIterator(c)

	for {
		colStart, colEnd, ok := filtration.Next()
		if !ok {
			break
		}

		// This round's target becomes the source; the old source is
		// recycled as this round's (empty) target.
		currentChains, nextChains = nextChains, currentChains
		nextChains.Clear()

		chains := currentChains.Chains()
		batches := scheduler.NewBatchIterator(len(chains))
		batchCount := batches.Remaining()

		emit(bus, event.Event{
			Kind:       event.ComputationStepStarted,
			ColStart:   uint64(colStart),
			ColEnd:     uint64(colEnd),
			BatchCount: batchCount,
		})

		if err := runSegment(goCtx, backend, c, bus, chains, nextChains, colStart, colEnd, batchCount); err != nil {
			return nil, err
		}

		emit(bus, event.Event{
			Kind:         event.ComputationStepFinished,
			UniqueChains: nextChains.Len(),
		})
	}

	return rtable.NewSimpleTable(nextChains, c), nil
}

// runSegment dispatches every batch of one filtration segment across a
// bounded pool of concurrent producers, folding each batch's result into
// nextChains as it completes. Insertion is serialized with a mutex since
// endpointmap.Map is not safe for concurrent writers.
func runSegment(
	goCtx context.Context,
	backend gpuruntime.Backend,
	c *ctx.Context,
	bus *event.Bus,
	chains []endpointmap.Chain,
	nextChains *endpointmap.Map,
	colStart, colEnd, batchCount int,
) error {
	sem := semaphore.NewWeighted(producerPoolSize)
	group, groupCtx := errgroup.WithContext(goCtx)

	var mu sync.Mutex

	// idle holds the producer slots not running a batch; holding the
	// semaphore guarantees one is free.
	idle := make(chan int, producerPoolSize)
	for p := 0; p < producerPoolSize; p++ {
		idle <- p
	}

	batches := scheduler.NewBatchIterator(len(chains))
	batchNumber := 0

	for {
		batch, ok := batches.Next()
		if !ok {
			break
		}
		batchNumber++
		bn := batchNumber

		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}

		producer := <-idle

		segment := chains[batch.Start:batch.End]

		group.Go(func() error {
			defer sem.Release(1)
			defer func() { idle <- producer }()

			emit(bus, event.Event{
				Kind: event.Batch, Producer: producer, Status: event.CopyHostToDevice,
				BatchNumber: bn, BatchCount: batchCount, ColStart: uint64(colStart), ColEnd: uint64(colEnd),
			})

			endpoints := make([]uint64, len(segment))
			for i, chain := range segment {
				endpoints[i] = chain.Endpoint
			}

			emit(bus, event.Event{
				Kind: event.Batch, Producer: producer, Status: event.ComputationStarted,
				BatchNumber: bn, BatchCount: batchCount, ColStart: uint64(colStart), ColEnd: uint64(colEnd),
			})

			if err := backend.RunKernel(groupCtx, endpoints, uint64(colStart), uint64(colEnd), c); err != nil {
				return err
			}

			emit(bus, event.Event{
				Kind: event.Batch, Producer: producer, Status: event.CopyDeviceToHost,
				BatchNumber: bn, BatchCount: batchCount, ColStart: uint64(colStart), ColEnd: uint64(colEnd),
			})

			emit(bus, event.Event{
				Kind: event.Batch, Producer: producer, Status: event.FiltrationStarted,
				BatchNumber: bn, BatchCount: batchCount, ColStart: uint64(colStart), ColEnd: uint64(colEnd),
			})

			mu.Lock()
			for i, chain := range segment {
				nextChains.Insert(endpointmap.Chain{Startpoint: chain.Startpoint, Endpoint: endpoints[i]})
			}
			mu.Unlock()

			emit(bus, event.Event{
				Kind: event.Batch, Producer: producer, Status: event.FiltrationFinished,
				BatchNumber: bn, BatchCount: batchCount, ColStart: uint64(colStart), ColEnd: uint64(colEnd),
			})

			emit(bus, event.Event{Kind: event.Progress, Fraction: progressFraction(colStart, colEnd, bn, batchCount, c)})
			return nil
		})
	}

	return group.Wait()
}

func progressFraction(colStart, colEnd, batchNumber, batchCount int, c *ctx.Context) float64 {
	batchPercent := float64(batchNumber) / float64(batchCount)
	currentColProgress := float64(colEnd-colStart) * batchPercent
	colProgress := float64(colStart)
	return (colProgress + currentColProgress) / float64(c.T)
}

func emit(bus *event.Bus, ev event.Event) {
	if bus == nil {
		return
	}
	bus.Emit(ev)
}
