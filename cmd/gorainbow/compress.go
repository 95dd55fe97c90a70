package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtlab/gorainbow/internal/rtable"
	"github.com/rtlab/gorainbow/internal/storage"
)

func newCompressCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "compress <in-dir> <out-dir>",
		Short: "Convert a directory of .rt tables to compressed .rtcde tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(logger, args[0], args[1])
		},
	}
}

func runCompress(logger *zap.Logger, inDir, outDir string) error {
	scanned, err := storage.ScanDirectory(inDir)
	if err != nil {
		return err
	}
	if scanned.Compressed {
		return storage.ErrAlreadyCompressed
	}

	for _, path := range scanned.Paths {
		mapped, err := storage.OpenMapped(path)
		if err != nil {
			return err
		}

		simple, err := storage.LoadSimple(mapped.Bytes())
		closeErr := mapped.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}

		compressed, err := rtable.Transcode[*rtable.CompressedTable](simple)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(filepath.Base(path), storage.SimpleExtension)
		outPath := filepath.Join(outDir, base+storage.CompressedExtension)

		if err := storage.StoreCompressed(outPath, compressed); err != nil {
			return err
		}

		logger.Info("compressed table",
			zap.String("in", path),
			zap.String("out", outPath),
			zap.Int("chains", compressed.Len()),
		)
	}

	return nil
}
