package gpuruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
)

func TestCPURunKernelMatchesSequentialContinueChain(t *testing.T) {
	c, err := ctx.NewBuilder().
		Charset([]byte("abc")).
		MaxPasswordLength(4).
		Startpoints(50).
		ChainLength(32).
		Build()
	require.NoError(t, err)

	chains := make([]uint64, 200)
	want := make([]uint64, len(chains))
	for i := range chains {
		chains[i] = uint64(i) % c.N
		want[i] = codec.ContinueChain(chains[i], 0, 17, c)
	}

	backend := &CPU{Workers: 4}
	require.NoError(t, backend.RunKernel(context.Background(), chains, 0, 17, c))

	assert.Equal(t, want, chains)
}

func TestCPURunKernelEmptyBatch(t *testing.T) {
	c, err := ctx.NewBuilder().Charset([]byte("abc")).Startpoints(1).Build()
	require.NoError(t, err)

	backend := NewCPU()
	assert.NoError(t, backend.RunKernel(context.Background(), nil, 0, 10, c))
}
