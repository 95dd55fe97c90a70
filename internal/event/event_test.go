package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitAndRecv(t *testing.T) {
	b := NewBus(4)
	b.Emit(Event{Kind: Progress, Fraction: 0.5})

	ev, ok := b.Recv()
	require.True(t, ok)
	assert.Equal(t, Progress, ev.Kind)
	assert.Equal(t, 0.5, ev.Fraction)
}

func TestEmitDropsOldestWhenFull(t *testing.T) {
	b := NewBus(2)
	b.Emit(Event{Kind: Progress, Fraction: 0.1})
	b.Emit(Event{Kind: Progress, Fraction: 0.2})
	b.Emit(Event{Kind: Progress, Fraction: 0.3})

	ev, ok := b.Recv()
	require.True(t, ok)
	assert.Equal(t, 0.2, ev.Fraction)

	ev, ok = b.Recv()
	require.True(t, ok)
	assert.Equal(t, 0.3, ev.Fraction)
}

func TestCloseDrainsThenStops(t *testing.T) {
	b := NewBus(4)
	b.Emit(Event{Kind: Batch, BatchNumber: 1, BatchCount: 10})
	b.Close()

	ev, ok := b.Recv()
	require.True(t, ok)
	assert.Equal(t, Batch, ev.Kind)

	_, ok = b.Recv()
	assert.False(t, ok)
}

func TestComputationStepEventsCarryTheirFields(t *testing.T) {
	b := NewBus(4)
	b.Emit(Event{Kind: ComputationStepStarted, ColStart: 0, ColEnd: 100, BatchCount: 7})
	b.Emit(Event{Kind: ComputationStepFinished, UniqueChains: 42})
	b.Emit(Event{Kind: Batch, Producer: 2, Status: ComputationStarted})

	ev, ok := b.Recv()
	require.True(t, ok)
	assert.Equal(t, ComputationStepStarted, ev.Kind)
	assert.Equal(t, 7, ev.BatchCount)
	assert.Equal(t, uint64(100), ev.ColEnd)

	ev, ok = b.Recv()
	require.True(t, ok)
	assert.Equal(t, ComputationStepFinished, ev.Kind)
	assert.Equal(t, 42, ev.UniqueChains)

	ev, ok = b.Recv()
	require.True(t, ok)
	assert.Equal(t, Batch, ev.Kind)
	assert.Equal(t, 2, ev.Producer)
	assert.Equal(t, ComputationStarted, ev.Status)
}

func TestEmitIsSafeForConcurrentProducers(t *testing.T) {
	b := NewBus(8)

	var wg sync.WaitGroup
	for p := 0; p < 16; p++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Emit(Event{Kind: Batch, Producer: producer})
			}
		}(p)
	}
	wg.Wait()
}
