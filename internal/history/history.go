// File: internal/history/history.go

// Package history maintains the append-only run summary file used for
// cross-run comparison. The live audit model is never persisted; only this
// compact per-run line survives between executions.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one run's summary line.
type Entry struct {
	Timestamp          time.Time `json:"timestamp"`
	TotalPages         int       `json:"total_pages"`
	AveragePerformance float64   `json:"average_performance"`
	CriticalIssueCount int       `json:"critical_issue_count"`
	EstimatedSavingsMs float64   `json:"estimated_savings_ms"`
	ElapsedMs          int64     `json:"elapsed_ms"`
}

// Delta is the change between two runs, consumed by the dashboard template.
type Delta struct {
	Previous          Entry
	PerformanceChange float64
	CriticalChange    int
	SavingsChangeMs   float64
}

// Compare computes the delta from a previous entry to the current one.
func Compare(prev, current Entry) Delta {
	return Delta{
		Previous:          prev,
		PerformanceChange: current.AveragePerformance - prev.AveragePerformance,
		CriticalChange:    current.CriticalIssueCount - prev.CriticalIssueCount,
		SavingsChangeMs:   current.EstimatedSavingsMs - prev.EstimatedSavingsMs,
	}
}

// Append writes one entry to the history file, creating the file and its
// directory as needed. Each entry is a single JSON line.
func Append(path string, entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Last returns the most recent entry in the history file. The second return
// is false when the file does not exist or holds no parseable entry; a
// missing history is expected on first runs and is not an error.
func Last(path string) (Entry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	defer f.Close()

	var last Entry
	found := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// A corrupt line is skipped rather than failing the run; history
			// is advisory.
			continue
		}
		last = entry
		found = true
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, false, fmt.Errorf("failed to read history file %s: %w", path, err)
	}
	return last, found, nil
}

// DefaultPath places the history file beside the output directory so
// successive runs into the same tree share one history.
func DefaultPath(outputDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(outputDir)), "signaler-history.jsonl")
}
