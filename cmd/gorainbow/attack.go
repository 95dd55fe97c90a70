package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtlab/gorainbow/internal/rtable"
	"github.com/rtlab/gorainbow/internal/rterrors"
	"github.com/rtlab/gorainbow/internal/storage"
)

type attackOptions struct {
	lowMemory bool
}

func newAttackCmd(logger *zap.Logger) *cobra.Command {
	opts := &attackOptions{}

	cmd := &cobra.Command{
		Use:   "attack <digest> <dir>",
		Short: "Find the password that produces a digest, using the tables in dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttack(cmd.Context(), logger, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.lowMemory, "low-memory", false, "search one table at a time instead of loading the whole directory")

	return cmd
}

func runAttack(goCtx context.Context, logger *zap.Logger, opts *attackOptions, digestHex, dir string) error {
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return rterrors.MalformedDigest("digest is not valid hexadecimal")
	}

	scanned, err := storage.ScanDirectory(dir)
	if err != nil {
		return err
	}

	var plaintext []byte
	if opts.lowMemory {
		plaintext, err = attackLowMemory(goCtx, scanned, digest)
	} else {
		plaintext, err = attackInMemory(goCtx, scanned, digest)
	}
	if err != nil {
		return err
	}

	if plaintext == nil {
		logger.Info("no password found for the given digest")
		fmt.Println("no password found")
		return nil
	}

	fmt.Println(string(plaintext))
	return nil
}

func attackInMemory(goCtx context.Context, dir *storage.Directory, digest []byte) ([]byte, error) {
	tables, _, closeAll, err := storage.LoadCluster(dir)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	cluster := rtable.NewCluster(tables)
	return cluster.Search(goCtx, digest, 0), nil
}

// attackLowMemory mirrors the --low-memory flag's intent: tables are
// mapped and searched one at a time, trading speed for a working set
// that never exceeds a single table's size.
func attackLowMemory(goCtx context.Context, dir *storage.Directory, digest []byte) ([]byte, error) {
	for _, path := range dir.Paths {
		mapped, err := storage.OpenMapped(path)
		if err != nil {
			return nil, err
		}

		var found []byte
		if dir.Compressed {
			tbl, lerr := storage.LoadCompressed(mapped.Bytes())
			if lerr == nil {
				found = rtable.SearchParallel(goCtx, tbl, digest, 0)
			} else {
				err = lerr
			}
		} else {
			tbl, lerr := storage.LoadSimple(mapped.Bytes())
			if lerr == nil {
				found = rtable.SearchParallel(goCtx, tbl, digest, 0)
			} else {
				err = lerr
			}
		}

		closeErr := mapped.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}
