package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtlab/gorainbow/internal/ctx"
	"github.com/rtlab/gorainbow/internal/event"
	"github.com/rtlab/gorainbow/internal/generator"
	"github.com/rtlab/gorainbow/internal/gpuruntime"
	"github.com/rtlab/gorainbow/internal/hashfn"
	"github.com/rtlab/gorainbow/internal/rtable"
	"github.com/rtlab/gorainbow/internal/rterrors"
	"github.com/rtlab/gorainbow/internal/storage"
)

type generateOptions struct {
	hash              string
	chainLength       uint64
	maxPasswordLength uint8
	charset           string
	alpha             float64
	startpoints       uint64
	tableCount        uint8
	startFrom         uint8
	compress          bool
	backend           string
}

func newGenerateCmd(logger *zap.Logger) *cobra.Command {
	opts := &generateOptions{
		chainLength:       ctx.DefaultChainLength,
		maxPasswordLength: ctx.DefaultMaxPasswordLength,
		alpha:             ctx.DefaultAlpha,
		tableCount:        1,
		backend:           "cpu",
	}

	cmd := &cobra.Command{
		Use:   "generate <hash> <dir>",
		Short: "Generate one or more rainbow tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), logger, opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.Uint64VarP(&opts.chainLength, "chain-length", "t", opts.chainLength, "chain length")
	flags.Uint8VarP(&opts.maxPasswordLength, "max-password-length", "l", opts.maxPasswordLength, "maximum password length")
	flags.StringVarP(&opts.charset, "charset", "c", string(ctx.DefaultCharset), "alphabet to generate passwords from")
	flags.Float64VarP(&opts.alpha, "alpha", "a", opts.alpha, "maximality factor used to derive the startpoint count")
	flags.Uint64VarP(&opts.startpoints, "startpoints", "s", 0, "override the startpoint count directly (ignores --alpha)")
	flags.Uint8VarP(&opts.tableCount, "table-count", "n", opts.tableCount, "number of tables to generate for a cluster")
	flags.Uint8VarP(&opts.startFrom, "start-from", "f", 0, "table number to start numbering from")
	flags.BoolVar(&opts.compress, "compress", false, "store each table as a compressed .rtcde file (the file holds the chain list; the delta/Rice layout is rebuilt on load)")
	flags.StringVar(&opts.backend, "backend", opts.backend, "compute backend to advance chains on (cpu)")

	return cmd
}

func runGenerate(goCtx context.Context, logger *zap.Logger, opts *generateOptions, hashName, dir string) error {
	hashFn, err := hashfn.Parse(hashName)
	if err != nil {
		return err
	}

	backend, err := selectBackend(opts.backend)
	if err != nil {
		return err
	}

	progress := newProgressTable(logger, opts.tableCount)

	for i := uint8(0); i < opts.tableCount; i++ {
		tableNumber := opts.startFrom + i

		builder := ctx.NewBuilder().
			Hash(hashFn).
			Charset([]byte(opts.charset)).
			ChainLength(opts.chainLength).
			MaxPasswordLength(opts.maxPasswordLength).
			TableNumber(tableNumber).
			Alpha(opts.alpha)
		if opts.startpoints > 0 {
			builder = builder.Startpoints(opts.startpoints)
		}

		c, err := builder.Build()
		if err != nil {
			return err
		}

		logger.Info("generating table",
			zap.Uint8("table_number", tableNumber),
			zap.Uint64("n", c.N),
			zap.Uint64("m0", c.M0),
		)

		bus := event.NewBus(64)
		row := progress.track(tableNumber, c)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				ev, ok := bus.Recv()
				if !ok {
					return
				}
				row.apply(ev)
			}
		}()

		simple, err := generator.Generate(goCtx, c, backend, bus)
		bus.Close()
		<-done
		if err != nil {
			return err
		}

		path, err := storeTable(dir, tableNumber, simple, opts.compress)
		if err != nil {
			return err
		}

		row.finish(path, simple.Len())
	}

	fmt.Println(progress.render())
	return nil
}

func selectBackend(name string) (gpuruntime.Backend, error) {
	switch name {
	case "", "cpu":
		return gpuruntime.NewCPU(), nil
	default:
		return nil, rterrors.Device(fmt.Sprintf("unknown backend %q", name))
	}
}

func storeTable(dir string, tableNumber uint8, simple *rtable.SimpleTable, compress bool) (string, error) {
	if compress {
		compressed, err := rtable.Transcode[*rtable.CompressedTable](simple)
		if err != nil {
			return "", err
		}
		path := filepath.Join(dir, fmt.Sprintf("table_%d%s", tableNumber, storage.CompressedExtension))
		if err := storage.StoreCompressed(path, compressed); err != nil {
			return "", err
		}
		return path, nil
	}

	path := filepath.Join(dir, fmt.Sprintf("table_%d%s", tableNumber, storage.SimpleExtension))
	if err := storage.StoreSimple(path, simple); err != nil {
		return "", err
	}
	return path, nil
}

// progressTable renders a go-pretty table of per-table generation state,
// re-rendering it to the logger every time a row changes rather than only
// printing a summary once every table is done — the same role the
// original CLI's event-driven progress bar plays.
type progressTable struct {
	logger *zap.Logger
	mu     sync.Mutex
	rows   []*progressRow
}

type progressRow struct {
	parent      *progressTable
	tableNumber uint8
	columns     uint64
	status      string
	fraction    float64
	path        string
	chains      int
}

func newProgressTable(logger *zap.Logger, tableCount uint8) *progressTable {
	return &progressTable{logger: logger, rows: make([]*progressRow, 0, tableCount)}
}

func (p *progressTable) track(tableNumber uint8, c *ctx.Context) *progressRow {
	row := &progressRow{parent: p, tableNumber: tableNumber, columns: c.T, status: "queued"}
	p.mu.Lock()
	p.rows = append(p.rows, row)
	p.mu.Unlock()
	p.refresh()
	return row
}

func (p *progressTable) refresh() {
	p.logger.Debug("progress", zap.String("table", p.render()))
}

func (p *progressTable) render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"table", "status", "column", "fraction", "chains", "file"})
	for _, row := range p.rows {
		tw.AppendRow(table.Row{row.tableNumber, row.status, row.columns, fmt.Sprintf("%.2f", row.fraction), row.chains, row.path})
	}
	return tw.Render()
}

func (r *progressRow) apply(ev event.Event) {
	r.parent.mu.Lock()
	switch ev.Kind {
	case event.Progress:
		r.fraction = ev.Fraction
	case event.ComputationStepStarted:
		r.status = fmt.Sprintf("columns %d-%d", ev.ColStart, ev.ColEnd)
	case event.ComputationStepFinished:
		r.status = "filtered"
		r.chains = ev.UniqueChains
	case event.Batch:
		r.status = batchStatusLabel(ev)
	}
	r.parent.mu.Unlock()
	r.parent.refresh()
}

func (r *progressRow) finish(path string, chains int) {
	r.parent.mu.Lock()
	r.path = path
	r.chains = chains
	r.status = "done"
	r.fraction = 1
	r.parent.mu.Unlock()
	r.parent.refresh()
}

func batchStatusLabel(ev event.Event) string {
	switch ev.Status {
	case event.CopyHostToDevice:
		return fmt.Sprintf("producer %d: host->device", ev.Producer)
	case event.ComputationStarted:
		return fmt.Sprintf("producer %d: computing", ev.Producer)
	case event.CopyDeviceToHost:
		return fmt.Sprintf("producer %d: device->host", ev.Producer)
	case event.FiltrationStarted:
		return fmt.Sprintf("producer %d: filtration", ev.Producer)
	case event.FiltrationFinished:
		return fmt.Sprintf("producer %d: filtered", ev.Producer)
	default:
		return fmt.Sprintf("producer %d: batch %d/%d", ev.Producer, ev.BatchNumber, ev.BatchCount)
	}
}
