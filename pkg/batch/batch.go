// Package batch drives the minify transform over files on disk: it collects
// input files, runs one transform per file on a worker pool and writes the
// results next to a mirrored directory layout or to a single writer.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoOutput is returned when neither OutDir nor Out is set.
var ErrNoOutput = errors.New("batch: no output directory or writer")

// Run minifies every file under args.Paths. Per-file failures do not stop the
// run; they are combined into the returned error and reported in the results.
func Run(ctx context.Context, args Arguments, logger *zap.Logger) ([]FileResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if args.OutDir == "" && args.Out == nil {
		return nil, ErrNoOutput
	}

	startTime := time.Now()
	logger.Info("Starting minify run", zap.Strings("paths", args.Paths))

	collected, err := CollectFiles(args.Paths, logger, args.Verbose)
	if err != nil {
		logger.Error("Failed to collect files", zap.Error(err))
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}

	if len(collected.Binary) > 0 {
		logger.Warn("Skipping binary files",
			zap.Int("binaryFileCount", len(collected.Binary)),
			zap.Strings("binaryFiles", collected.Binary))
	}
	if len(collected.Regular) == 0 {
		logger.Warn("No files to process after filtering")
		return nil, nil
	}

	results := processConcurrently(ctx, collected.Regular, args, logger)

	var errs error
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			errs = multierr.Append(errs, res.Err)
			continue
		}
		if err := emit(res, args, logger); err != nil {
			res.Err = err
			errs = multierr.Append(errs, err)
		}
	}

	logger.Info("Minify run completed",
		zap.Int("totalFiles", len(results)),
		zap.Int("failedFiles", len(multierr.Errors(errs))),
		zap.Duration("elapsed", time.Since(startTime)))
	return results, errs
}

// emit writes one successful result to its destination.
func emit(res *FileResult, args Arguments, logger *zap.Logger) error {
	if args.OutDir == "" {
		if _, err := args.Out.Write(res.Output); err != nil {
			return fmt.Errorf("write %s: %w", res.Entry.Rel(), err)
		}
		return nil
	}

	dest := filepath.Join(args.OutDir, filepath.FromSlash(res.Entry.Rel()))
	if err := ensureDirectory(filepath.Dir(dest), logger); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writeToFile(dest, res.Output, 0o644, logger); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	res.Written = dest
	return nil
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// writeToFile writes data to a file and logs the operation.
func writeToFile(path string, data []byte, perm os.FileMode, logger *zap.Logger) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Successfully wrote file", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
