package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/event"
	"github.com/rtlab/gorainbow/internal/gpuruntime"
)

func testCtx(t *testing.T) *ctx.Context {
	t.Helper()
	c, err := ctx.NewBuilder().
		Charset([]byte("abc")).
		MaxPasswordLength(4).
		ChainLength(25).
		Startpoints(200).
		Build()
	require.NoError(t, err)
	return c
}

func TestGenerateProducesConsistentChains(t *testing.T) {
	c := testCtx(t)
	backend := gpuruntime.NewCPU()

	table, err := Generate(context.Background(), c, backend, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, table.Len(), int(c.M0))
	assert.Greater(t, table.Len(), 0)

	for _, chain := range table.Chains() {
		want := codec.ContinueChain(chain.Startpoint, 0, c.T-1, c)
		assert.Equal(t, want, chain.Endpoint)
	}
}

func TestGenerateEmitsEvents(t *testing.T) {
	c := testCtx(t)
	backend := gpuruntime.NewCPU()
	bus := event.NewBus(64)

	_, err := Generate(context.Background(), c, backend, bus)
	require.NoError(t, err)
	bus.Close()

	sawBatch, sawProgress, sawStepStarted, sawStepFinished := false, false, false, false
	for {
		ev, ok := bus.Recv()
		if !ok {
			break
		}
		switch ev.Kind {
		case event.Batch:
			sawBatch = true
			assert.GreaterOrEqual(t, ev.Producer, 0)
			assert.Less(t, ev.Producer, producerPoolSize)
		case event.Progress:
			sawProgress = true
		case event.ComputationStepStarted:
			sawStepStarted = true
		case event.ComputationStepFinished:
			sawStepFinished = true
		}
	}

	assert.True(t, sawBatch)
	assert.True(t, sawProgress)
	assert.True(t, sawStepStarted)
	assert.True(t, sawStepFinished)
}

func TestGenerateLeavesNoDuplicateEndpoints(t *testing.T) {
	c := testCtx(t)
	backend := gpuruntime.NewCPU()

	table, err := Generate(context.Background(), c, backend, nil)
	require.NoError(t, err)

	// Folding batch results into the shared map must keep at most one
	// chain per endpoint.
	seen := make(map[uint64]bool, table.Len())
	for _, chain := range table.Chains() {
		assert.False(t, seen[chain.Endpoint], "duplicate endpoint in result")
		seen[chain.Endpoint] = true
	}
}
