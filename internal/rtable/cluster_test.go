package rtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
)

func buildGeneratedTableWithTableNumber(t *testing.T, tn uint8) *SimpleTable {
	t.Helper()

	c, err := ctx.NewBuilder().
		Charset([]byte("ab")).
		MaxPasswordLength(4).
		ChainLength(40).
		TableNumber(tn).
		Alpha(1).
		Build()
	require.NoError(t, err)

	chains := make([]Chain, c.N)
	for i := uint64(0); i < c.N; i++ {
		chains[i] = Chain{Startpoint: i, Endpoint: codec.ContinueChain(i, 0, c.T-1, c)}
	}

	table, err := NewSimpleTableFromChains(chains, c)
	require.NoError(t, err)
	return table
}

func TestSearchParallelMatchesSequentialSearch(t *testing.T) {
	table := buildGeneratedTable(t)
	c := table.Ctx()

	for i := uint64(0); i < c.N; i++ {
		password := codec.CounterToPassword(i, c)
		digest := codec.Hash(password, c)

		sequential := Search(table, digest)
		parallel := SearchParallel(context.Background(), table, digest, 4)

		if sequential == nil {
			assert.Nil(t, parallel)
			continue
		}
		require.NotNil(t, parallel)
		assert.Equal(t, digest, codec.Hash(parallel, c))
	}
}

func TestClusterNeverFindsFewerThanSingleTable(t *testing.T) {
	tables := []Table{
		buildGeneratedTableWithTableNumber(t, 0),
		buildGeneratedTableWithTableNumber(t, 1),
		buildGeneratedTableWithTableNumber(t, 2),
	}
	c := tables[0].Ctx()

	cluster := NewCluster(tables)
	assert.Equal(t, 3, cluster.Len())

	singleFound := 0
	clusterFound := 0
	for i := uint64(0); i < c.N; i++ {
		password := codec.CounterToPassword(i, tables[0].Ctx())
		digest := codec.Hash(password, tables[0].Ctx())

		if Search(tables[0], digest) != nil {
			singleFound++
		}
		if cluster.Search(context.Background(), digest, 4) != nil {
			clusterFound++
		}
	}

	assert.GreaterOrEqual(t, clusterFound, singleFound)
}
