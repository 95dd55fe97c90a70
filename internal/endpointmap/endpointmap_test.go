package endpointmap

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStartpointsSeedsIdentityChains(t *testing.T) {
	m, err := WithStartpoints(10)
	require.NoError(t, err)
	assert.Equal(t, 10, m.Len())

	chains := m.Chains()
	sort.Slice(chains, func(i, j int) bool { return chains[i].Startpoint < chains[j].Startpoint })
	for i, c := range chains {
		assert.Equal(t, uint64(i), c.Startpoint)
		assert.Equal(t, uint64(i), c.Endpoint)
	}
}

func TestInsertAndGet(t *testing.T) {
	m, err := New(100)
	require.NoError(t, err)

	for i := uint64(0); i < 80; i++ {
		m.Insert(Chain{Startpoint: i, Endpoint: i * 37})
	}

	assert.Equal(t, 80, m.Len())

	for i := uint64(0); i < 80; i++ {
		sp, ok := m.Get(i * 37)
		require.True(t, ok)
		assert.Equal(t, i, sp)
	}

	_, ok := m.Get(999_999)
	assert.False(t, ok)
}

func TestInsertDiscardsEndpointCollision(t *testing.T) {
	m, err := New(10)
	require.NoError(t, err)

	m.Insert(Chain{Startpoint: 1, Endpoint: 5})
	m.Insert(Chain{Startpoint: 2, Endpoint: 5})

	assert.Equal(t, 1, m.Len())
	sp, ok := m.Get(5)
	require.True(t, ok)
	assert.Equal(t, uint64(1), sp)
}

func TestClearEmptiesMap(t *testing.T) {
	m, err := WithStartpoints(5)
	require.NoError(t, err)
	require.Equal(t, 5, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get(0)
	assert.False(t, ok)
}

func TestChainsRoundTripsAllEntries(t *testing.T) {
	m, err := New(50)
	require.NoError(t, err)

	want := map[uint64]uint64{}
	for i := uint64(0); i < 30; i++ {
		m.Insert(Chain{Startpoint: i, Endpoint: i*911 + 1})
		want[i*911+1] = i
	}

	got := map[uint64]uint64{}
	for _, c := range m.Chains() {
		got[c.Endpoint] = c.Startpoint
	}

	assert.Equal(t, want, got)
}
