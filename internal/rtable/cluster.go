package rtable

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SearchParallel fans a digest search out across a worker pool, one
// column per unit of work, since which column (if any) holds the
// matching chain isn't knowable up front. It returns the first
// plaintext any worker finds, canceling the rest, or nil if no column
// covers the digest.
func SearchParallel(parent context.Context, table Table, digest []byte, workers int) []byte {
	c := table.Ctx()
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	columns := make(chan uint64)
	go func() {
		defer close(columns)
		for i := int64(c.T) - 2; i >= 0; i-- {
			select {
			case columns <- uint64(i):
			case <-ctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	var result []byte

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for col := range columns {
				if plaintext := SearchColumn(table, col, digest); plaintext != nil {
					mu.Lock()
					if result == nil {
						result = plaintext
					}
					mu.Unlock()
					cancel()
					return nil
				}
			}
			return nil
		})
	}
	g.Wait()

	return result
}

// Cluster groups several tables that share generation parameters
// except for their table number. Searching a cluster of k independent
// tables multiplies the single-table success rate: a table with an
// 86.5% hit rate becomes a 99.96% cluster at k=4.
type Cluster struct {
	tables []Table
}

// NewCluster wraps a set of tables as a cluster. The caller is
// responsible for ensuring they share a chain length and charset.
func NewCluster(tables []Table) *Cluster {
	return &Cluster{tables: tables}
}

// Len reports how many tables make up the cluster.
func (cl *Cluster) Len() int { return len(cl.tables) }

// Search checks every column across every table in the cluster,
// column work distributed across workers; within a column, tables are
// checked in cluster order and the first hit wins.
func (cl *Cluster) Search(parent context.Context, digest []byte, workers int) []byte {
	if len(cl.tables) == 0 {
		return nil
	}

	c := cl.tables[0].Ctx()
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	columns := make(chan uint64)
	go func() {
		defer close(columns)
		for i := int64(c.T) - 2; i >= 0; i-- {
			select {
			case columns <- uint64(i):
			case <-ctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	var result []byte

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for col := range columns {
				for _, table := range cl.tables {
					if plaintext := SearchColumn(table, col, digest); plaintext != nil {
						mu.Lock()
						if result == nil {
							result = plaintext
						}
						mu.Unlock()
						cancel()
						return nil
					}
				}
			}
			return nil
		})
	}
	g.Wait()

	return result
}
