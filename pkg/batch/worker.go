// File: pkg/batch/worker.go
package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/browserify/uglifyify/pkg/gate"
	"github.com/browserify/uglifyify/pkg/options"
	"github.com/browserify/uglifyify/pkg/transform"
	"go.uber.org/zap"
)

type job struct {
	index int
	entry Entry
}

// processConcurrently runs one transform per entry on a worker pool. Results
// keep the order of entries.
func processConcurrently(ctx context.Context, entries []Entry, args Arguments, logger *zap.Logger) []FileResult {
	jobs := make(chan job, len(entries))
	results := make([]FileResult, len(entries))
	var wg sync.WaitGroup

	maxWorkers := args.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", maxWorkers))
	}
	if maxWorkers > len(entries) {
		maxWorkers = len(entries)
	}

	logger.Debug("Initializing worker pool", zap.Int("workers", maxWorkers))
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go worker(ctx, jobs, results, args, &wg, logger.With(zap.Int("workerID", w)))
	}

	for i, e := range entries {
		jobs <- job{index: i, entry: e}
	}
	close(jobs)

	wg.Wait()
	logger.Debug("All files processed", zap.Int("processedFiles", len(entries)))
	return results
}

// worker processes files from the jobs channel. Each job owns its slot in
// results, so no locking is needed.
func worker(ctx context.Context, jobs <-chan job, results []FileResult, args Arguments, wg *sync.WaitGroup, logger *zap.Logger) {
	defer wg.Done()

	for j := range jobs {
		res := FileResult{Entry: j.entry}
		if err := ctx.Err(); err != nil {
			res.Err = err
			results[j.index] = res
			continue
		}

		res.Decision, res.Output, res.Err = processFile(ctx, j.entry, args.Options, args.transformOptions(logger))
		if res.Err != nil {
			logger.Error("Worker failed to process file", zap.String("filePath", j.entry.Path), zap.Error(res.Err))
		} else {
			logger.Debug("Worker processed file",
				zap.String("filePath", j.entry.Path),
				zap.Stringer("decision", res.Decision))
		}
		results[j.index] = res
	}
}

func (a Arguments) transformOptions(logger *zap.Logger) []transform.Option {
	opts := []transform.Option{transform.WithLogger(logger)}
	if a.Minifier != nil {
		opts = append(opts, transform.WithMinifier(a.Minifier))
	}
	return opts
}

// processFile runs a single file through a transform. The gate sees the path
// relative to the entry's root so ignore patterns read like project paths.
func processFile(ctx context.Context, e Entry, opts options.Options, tOpts []transform.Option) (decision gate.Decision, out []byte, err error) {
	src, err := os.ReadFile(e.Path)
	if err != nil {
		return decision, nil, fmt.Errorf("read %s: %w", e.Path, err)
	}

	var buf bytes.Buffer
	t, err := transform.New(e.Rel(), opts, transform.NewWriterSink(&buf), tOpts...)
	if err != nil {
		return decision, nil, err
	}
	decision = t.Decision()

	if _, err := t.Write(src); err != nil {
		return decision, nil, err
	}
	if err := t.Finish(ctx); err != nil {
		return decision, nil, err
	}
	return decision, buf.Bytes(), nil
}
