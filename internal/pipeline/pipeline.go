// File: internal/pipeline/pipeline.go

// Package pipeline orchestrates one report generation run: decode, validate,
// normalize, aggregate, render, write. It owns the streaming-vs-standard
// decision and keeps the memory monitor in the loop for the whole run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/history"
	"github.com/signalerhq/signaler/internal/memwatch"
	"github.com/signalerhq/signaler/internal/normalize"
	"github.com/signalerhq/signaler/internal/report"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result summarizes one completed run for the CLI layer.
type Result struct {
	OutputDir string
	Written   []string
	Failed    []report.WriteFailure

	Streamed    bool
	TotalPages  int
	FailedPages int
	IssueCount  int

	Heap    memwatch.HeapStats
	Elapsed time.Duration
}

// Generator runs the full audit-to-report pipeline.
type Generator struct {
	cfg     config.Interface
	logger  *zap.Logger
	monitor *memwatch.Monitor
	scorer  *aggregate.Scorer
	writer  *report.Writer
}

// NewGenerator wires a generator from configuration.
func NewGenerator(cfg config.Interface, logger *zap.Logger) *Generator {
	return &Generator{
		cfg:     cfg,
		logger:  logger.Named("pipeline"),
		monitor: memwatch.NewMonitor(cfg.Memory(), logger),
		scorer:  aggregate.NewScorer(cfg.Scoring()),
		writer:  report.NewWriter(cfg.Writer(), logger),
	}
}

// Run executes one generation run end to end. Per-page audit failures and
// per-file write failures degrade the result without aborting it; only
// structural input errors, unknown template keys and total write failure are
// fatal.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	gen := g.cfg.Generate()

	raw, err := g.decodeInput(gen.InputPath)
	if err != nil {
		return nil, err
	}
	if err := normalize.ValidateRaw(raw); err != nil {
		return nil, fmt.Errorf("invalid audit input: %w", err)
	}

	g.monitor.Begin(ctx)
	defer g.monitor.End()

	streamCfg := g.cfg.Streaming()
	estimate := EstimateBytes(raw)
	streamed := g.monitor.ShouldStream(estimate, len(raw.Pages), streamCfg)
	g.logger.Info("Processing mode selected",
		zap.Bool("streaming", streamed),
		zap.Int("pages", len(raw.Pages)),
		zap.Uint64("estimated_bytes", estimate))

	var data *schemas.ProcessedAuditData
	if streamed {
		data, err = g.processStreaming(ctx, raw, streamCfg)
	} else {
		data, err = g.processStandard(ctx, raw, streamCfg)
	}
	if err != nil {
		return nil, err
	}
	data.Meta = normalize.Metadata(raw)
	g.scorer.SortByPriority(data.AllIssues)
	data.GlobalIssues = aggregate.GlobalIssues(data.AllIssues)

	trend := g.loadTrend(gen.OutputDir, data)

	files, err := g.render(data, trend)
	if err != nil {
		return nil, err
	}

	writeResult, err := g.writer.WriteAll(ctx, gen.OutputDir, files)
	if err != nil {
		return nil, err
	}
	if composite := writeResult.CompositeError(); composite != nil {
		g.logger.Warn("Some report writes failed", zap.Error(composite))
	}

	g.appendHistory(gen.OutputDir, data, time.Since(start))

	failedPages := 0
	for i := range data.Pages {
		if data.Pages[i].Failed {
			failedPages++
		}
	}

	return &Result{
		OutputDir:   gen.OutputDir,
		Written:     writeResult.Written,
		Failed:      writeResult.Failed,
		Streamed:    streamed,
		TotalPages:  data.Metrics.TotalPages,
		FailedPages: failedPages,
		IssueCount:  len(data.AllIssues),
		Heap:        g.monitor.Snapshot(),
		Elapsed:     time.Since(start),
	}, nil
}

// -- Input Decoding --

func (g *Generator) decodeInput(path string) (*schemas.RawAuditResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit input %s: %w", path, err)
	}
	var raw schemas.RawAuditResult
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode audit input %s: %w", path, err)
	}
	if len(raw.Pages) == 0 {
		return nil, fmt.Errorf("audit input %s contains no pages", path)
	}
	return &raw, nil
}

// -- Processing Paths --

// processStandard normalizes every page up front and aggregates in one pass.
// The full per-page detail, issue lists included, is retained for templates.
func (g *Generator) processStandard(ctx context.Context, raw *schemas.RawAuditResult, streamCfg config.StreamingConfig) (*schemas.ProcessedAuditData, error) {
	pages, err := normalize.NormalizeAll(ctx, raw.Pages, streamCfg.NormalizeConcurrency)
	if err != nil {
		return nil, err
	}

	issues, err := aggregate.Aggregate(pages)
	if err != nil {
		return nil, err
	}

	return &schemas.ProcessedAuditData{
		Pages:     pages,
		AllIssues: issues,
		Metrics:   aggregate.ComputeMetrics(pages),
	}, nil
}

// processStreaming folds pages chunk by chunk through the same accumulators
// the standard path uses, so both paths produce identical aggregates. Page
// summaries survive streaming with their recorded counters, but the issue
// lists, raw and normalized both, are released once folded, which is what
// bounds the working set.
func (g *Generator) processStreaming(ctx context.Context, raw *schemas.RawAuditResult, streamCfg config.StreamingConfig) (*schemas.ProcessedAuditData, error) {
	chunkSize := streamCfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1
	}

	acc := aggregate.NewAccumulator()
	metricsAcc := aggregate.NewMetricsAccumulator()
	summaries := make([]schemas.PageAuditResult, 0, len(raw.Pages))

	for offset := 0; offset < len(raw.Pages); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := offset + chunkSize
		if end > len(raw.Pages) {
			end = len(raw.Pages)
		}

		chunk, err := normalize.NormalizeAll(ctx, raw.Pages[offset:end], streamCfg.NormalizeConcurrency)
		if err != nil {
			return nil, err
		}
		// The raw audits for this chunk are done; zero the entries so the
		// decoded document shrinks as the fold advances instead of holding
		// every page's audit list until the end of the run.
		for i := offset; i < end; i++ {
			raw.Pages[i] = schemas.RawPageResult{}
		}
		for i := range chunk {
			if err := acc.Add(&chunk[i]); err != nil {
				return nil, err
			}
			metricsAcc.Add(&chunk[i])

			summary := chunk[i]
			summary.Issues = nil
			summary.Opportunities = nil
			summaries = append(summaries, summary)
		}

		if g.monitor.State() >= memwatch.StateWarning {
			g.monitor.ForceGC()
		}
	}

	return &schemas.ProcessedAuditData{
		Pages:     summaries,
		AllIssues: acc.Finalize(),
		Metrics:   metricsAcc.Finalize(),
	}, nil
}

// -- Rendering --

// render resolves the requested templates and produces filename -> body
// pairs. An unknown template key is a fatal configuration error.
func (g *Generator) render(data *schemas.ProcessedAuditData, trend *history.Delta) (map[string][]byte, error) {
	gen := g.cfg.Generate()
	registry := report.NewRegistry(g.scorer, g.cfg.Report(), trend)

	var selected []report.Template
	switch {
	case len(gen.Templates) > 0:
		for _, name := range gen.Templates {
			tpl, err := registry.Lookup(name)
			if err != nil {
				return nil, err
			}
			selected = append(selected, tpl)
		}
	case len(gen.Formats) > 0:
		for _, f := range gen.Formats {
			format, err := report.ParseFormat(f)
			if err != nil {
				return nil, err
			}
			selected = append(selected, registry.ForFormat(format)...)
		}
	default:
		for _, name := range registry.Names() {
			tpl, _ := registry.Lookup(name)
			selected = append(selected, tpl)
		}
	}

	files := make(map[string][]byte, len(selected))
	for _, tpl := range selected {
		body, err := tpl.Generate(data)
		if err != nil {
			return nil, fmt.Errorf("failed to render template %s: %w", tpl.Name(), err)
		}
		files[tpl.Filename()] = body
	}
	return files, nil
}

// -- Run History --

func (g *Generator) historyPath(outputDir string) string {
	hist := g.cfg.History()
	if hist.Path != "" {
		return hist.Path
	}
	return history.DefaultPath(outputDir)
}

// loadTrend reads the previous run summary, if any, and compares it against
// the current one. History problems are logged and swallowed; trend data is
// never worth failing a run over.
func (g *Generator) loadTrend(outputDir string, data *schemas.ProcessedAuditData) *history.Delta {
	if !g.cfg.History().Enabled {
		return nil
	}
	prev, ok, err := history.Last(g.historyPath(outputDir))
	if err != nil {
		g.logger.Warn("Failed to read run history", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	delta := history.Compare(prev, currentEntry(data, 0))
	return &delta
}

func (g *Generator) appendHistory(outputDir string, data *schemas.ProcessedAuditData, elapsed time.Duration) {
	if !g.cfg.History().Enabled {
		return
	}
	if err := history.Append(g.historyPath(outputDir), currentEntry(data, elapsed.Milliseconds())); err != nil {
		g.logger.Warn("Failed to append run history", zap.Error(err))
	}
}

func currentEntry(data *schemas.ProcessedAuditData, elapsedMs int64) history.Entry {
	return history.Entry{
		Timestamp:          time.Now().UTC(),
		TotalPages:         data.Metrics.TotalPages,
		AveragePerformance: data.Metrics.AveragePerformance,
		CriticalIssueCount: data.Metrics.CriticalIssueCount,
		EstimatedSavingsMs: data.Metrics.EstimatedSavingsMs,
		ElapsedMs:          elapsedMs,
	}
}
