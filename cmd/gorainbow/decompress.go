package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtlab/gorainbow/internal/rtable"
	"github.com/rtlab/gorainbow/internal/storage"
)

func newDecompressCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "decompress <in-dir> <out-dir>",
		Short: "Convert a directory of compressed .rtcde tables to .rt tables",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(logger, args[0], args[1])
		},
	}
}

func runDecompress(logger *zap.Logger, inDir, outDir string) error {
	scanned, err := storage.ScanDirectory(inDir)
	if err != nil {
		return err
	}
	if !scanned.Compressed {
		return storage.ErrNotCompressed
	}

	for _, path := range scanned.Paths {
		mapped, err := storage.OpenMapped(path)
		if err != nil {
			return err
		}

		compressed, err := storage.LoadCompressed(mapped.Bytes())
		closeErr := mapped.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}

		base := strings.TrimSuffix(filepath.Base(path), storage.CompressedExtension)
		outPath := filepath.Join(outDir, base+storage.SimpleExtension)

		table, err := rtable.Transcode[*rtable.SimpleTable](compressed)
		if err != nil {
			return err
		}

		if err := storage.StoreSimple(outPath, table); err != nil {
			return err
		}

		logger.Info("decompressed table",
			zap.String("in", path),
			zap.String("out", outPath),
			zap.Int("chains", table.Len()),
		)
	}

	return nil
}
