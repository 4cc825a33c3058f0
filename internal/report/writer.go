// File: internal/report/writer.go
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/signalerhq/signaler/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrAllWritesFailed is returned when not a single report file could be
// written. Anything short of that is a partial success.
var ErrAllWritesFailed = errors.New("all report writes failed")

// WriteFailure records one failed file write.
type WriteFailure struct {
	Path string
	Err  error
}

// WriteResult distinguishes fully succeeded writes from individual failures.
type WriteResult struct {
	Written []string
	Failed  []WriteFailure
}

// CompositeError folds the failures into one error listing each failed path
// and its cause, or nil when everything succeeded.
func (r *WriteResult) CompositeError() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("write %s: %w", f.Path, f.Err))
	}
	return errors.Join(errs...)
}

// Writer persists rendered report bodies with bounded concurrency. Writes are
// whole-file: content lands in a temp file that is renamed into place, so a
// cancelled or failed run never leaves a corrupt partial report behind.
type Writer struct {
	cfg    config.WriterConfig
	logger *zap.Logger
}

// NewWriter creates a batch writer.
func NewWriter(cfg config.WriterConfig, logger *zap.Logger) *Writer {
	return &Writer{cfg: cfg, logger: logger.Named("writer")}
}

// WriteAll writes every (relative path, content) pair under dir. One failed
// write never prevents the others; failures are collected and surfaced
// together. The returned error is non-nil only when every write failed or
// the context was cancelled before completion.
func (w *Writer) WriteAll(ctx context.Context, dir string, files map[string][]byte) (*WriteResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Deterministic dispatch order; completion order is unconstrained.
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	maxConcurrent := w.cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	var (
		mu     sync.Mutex
		result WriteResult
		wg     sync.WaitGroup
	)

	for _, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled mid-batch: remaining files are recorded as failed so
			// the caller sees exactly what was not written.
			mu.Lock()
			result.Failed = append(result.Failed, WriteFailure{Path: name, Err: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(name string, content []byte) {
			defer wg.Done()
			defer sem.Release(1)

			path := filepath.Join(dir, name)
			if err := w.writeFile(path, content); err != nil {
				w.logger.Error("Report write failed", zap.String("path", path), zap.Error(err))
				mu.Lock()
				result.Failed = append(result.Failed, WriteFailure{Path: name, Err: err})
				mu.Unlock()
				return
			}

			written := []string{path}
			if w.cfg.Compress && int64(len(content)) >= w.cfg.CompressMinBytes {
				if err := w.writeCompressed(path+".br", content); err != nil {
					// Compression is best-effort; the uncompressed report exists.
					w.logger.Warn("Compressed copy failed", zap.String("path", path+".br"), zap.Error(err))
				} else {
					written = append(written, path+".br")
				}
			}

			mu.Lock()
			result.Written = append(result.Written, written...)
			mu.Unlock()
		}(name, files[name])
	}

	wg.Wait()

	sort.Strings(result.Written)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Path < result.Failed[j].Path })

	if len(result.Written) == 0 && len(result.Failed) > 0 {
		return &result, fmt.Errorf("%w: %v", ErrAllWritesFailed, result.CompositeError())
	}
	return &result, nil
}

// writeFile writes content to a temp file in the target directory and
// renames it into place.
func (w *Writer) writeFile(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

// writeCompressed writes a brotli-compressed copy alongside the original.
func (w *Writer) writeCompressed(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	bw := brotli.NewWriter(tmp)
	if _, err := bw.Write(content); err != nil {
		bw.Close()
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to compress content: %w", err)
	}
	if err := bw.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move compressed report into place: %w", err)
	}
	return nil
}
