package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtlab/gorainbow/internal/codec"
	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/rtable"
)

func buildTestTable(t *testing.T) *rtable.SimpleTable {
	t.Helper()
	c, err := ctx.NewBuilder().
		Charset([]byte("ab")).
		MaxPasswordLength(4).
		ChainLength(30).
		Alpha(1).
		Build()
	require.NoError(t, err)

	chains := make([]rtable.Chain, c.N)
	for i := uint64(0); i < c.N; i++ {
		chains[i] = rtable.Chain{Startpoint: i, Endpoint: codec.ContinueChain(i, 0, c.T-1, c)}
	}

	table, err := rtable.NewSimpleTableFromChains(chains, c)
	require.NoError(t, err)
	return table
}

func TestStoreAndLoadSimpleRoundTrip(t *testing.T) {
	table := buildTestTable(t)
	path := filepath.Join(t.TempDir(), "table.rt")

	require.NoError(t, StoreSimple(path, table))

	mapped, err := OpenMapped(path)
	require.NoError(t, err)
	defer mapped.Close()

	loaded, err := LoadSimple(mapped.Bytes())
	require.NoError(t, err)

	assert.Equal(t, table.Len(), loaded.Len())
	assert.ElementsMatch(t, table.Chains(), loaded.Chains())
	assert.Equal(t, table.Ctx().N, loaded.Ctx().N)
	assert.Equal(t, table.Ctx().HashFunction, loaded.Ctx().HashFunction)
}

func TestStoreAndLoadCompressedRoundTrip(t *testing.T) {
	table := buildTestTable(t)
	compressed := rtable.NewCompressedTable(table)

	path := filepath.Join(t.TempDir(), "table.rtcde")
	require.NoError(t, StoreCompressed(path, compressed))

	mapped, err := OpenMapped(path)
	require.NoError(t, err)
	defer mapped.Close()

	loaded, err := LoadCompressed(mapped.Bytes())
	require.NoError(t, err)

	assert.Equal(t, compressed.Len(), loaded.Len())
	assert.ElementsMatch(t, compressed.Chains(), loaded.Chains())
}

func TestLoadSimpleRejectsCompressedFile(t *testing.T) {
	table := buildTestTable(t)
	compressed := rtable.NewCompressedTable(table)

	path := filepath.Join(t.TempDir(), "table.rtcde")
	require.NoError(t, StoreCompressed(path, compressed))

	mapped, err := OpenMapped(path)
	require.NoError(t, err)
	defer mapped.Close()

	_, err = LoadSimple(mapped.Bytes())
	assert.Error(t, err)
}

func TestScanDirectoryRejectsMixedExtensions(t *testing.T) {
	dir := t.TempDir()
	table := buildTestTable(t)
	compressed := rtable.NewCompressedTable(table)

	require.NoError(t, StoreSimple(filepath.Join(dir, "a.rt"), table))
	require.NoError(t, StoreCompressed(filepath.Join(dir, "b.rtcde"), compressed))

	_, err := ScanDirectory(dir)
	assert.Error(t, err)
}

func TestScanDirectoryRejectsEmpty(t *testing.T) {
	_, err := ScanDirectory(t.TempDir())
	assert.Error(t, err)
}

func TestLoadClusterConsistencyCheck(t *testing.T) {
	dir := t.TempDir()

	c1, err := ctx.NewBuilder().Charset([]byte("ab")).MaxPasswordLength(4).ChainLength(30).TableNumber(0).Alpha(1).Build()
	require.NoError(t, err)
	c2, err := ctx.NewBuilder().Charset([]byte("abc")).MaxPasswordLength(4).ChainLength(30).TableNumber(1).Alpha(1).Build()
	require.NoError(t, err)

	t1, err := rtable.NewSimpleTableFromChains(nil, c1)
	require.NoError(t, err)
	t2, err := rtable.NewSimpleTableFromChains(nil, c2)
	require.NoError(t, err)

	require.NoError(t, StoreSimple(filepath.Join(dir, "a.rt"), t1))
	require.NoError(t, StoreSimple(filepath.Join(dir, "b.rt"), t2))

	scanned, err := ScanDirectory(dir)
	require.NoError(t, err)

	_, _, closeAll, err := LoadCluster(scanned)
	if closeAll != nil {
		defer closeAll()
	}
	assert.Error(t, err)
}

func TestLoadClusterRejectsDuplicateTableNumbers(t *testing.T) {
	dir := t.TempDir()

	c1, err := ctx.NewBuilder().Charset([]byte("ab")).MaxPasswordLength(4).ChainLength(30).TableNumber(3).Alpha(1).Build()
	require.NoError(t, err)
	c2, err := ctx.NewBuilder().Charset([]byte("ab")).MaxPasswordLength(4).ChainLength(30).TableNumber(3).Alpha(1).Build()
	require.NoError(t, err)

	t1, err := rtable.NewSimpleTableFromChains(nil, c1)
	require.NoError(t, err)
	t2, err := rtable.NewSimpleTableFromChains(nil, c2)
	require.NoError(t, err)

	require.NoError(t, StoreSimple(filepath.Join(dir, "a.rt"), t1))
	require.NoError(t, StoreSimple(filepath.Join(dir, "b.rt"), t2))

	scanned, err := ScanDirectory(dir)
	require.NoError(t, err)

	_, _, closeAll, err := LoadCluster(scanned)
	if closeAll != nil {
		defer closeAll()
	}
	assert.Error(t, err, "loading two tables sharing a table number must fail")
}
