// File: cmd/generate.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/observability"
	"github.com/signalerhq/signaler/internal/pipeline"
)

// newGenerateCmd creates and configures the `generate` command, the main
// entry point of the tool.
func newGenerateCmd() *cobra.Command {
	var (
		inputPath string
		outputDir string
		formats   []string
		templates []string
	)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate prioritized performance reports from a raw audit file.",
		Long: `Generate reads a raw audit result file produced by the measurement
engine, normalizes and aggregates its findings across pages, scores every
issue for fix priority and writes the selected report files.

Large runs are processed in bounded-memory streaming mode automatically;
the aggregate numbers are identical either way.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			if _, err := os.Stat(inputPath); err != nil {
				return fmt.Errorf("cannot access input file %s: %w", inputPath, err)
			}

			appConfig.SetGenerateConfig(config.GenerateConfig{
				InputPath: inputPath,
				OutputDir: outputDir,
				Formats:   formats,
				Templates: templates,
			})

			// A clean Ctrl-C abandons the run without leaving partial files.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			generator := pipeline.NewGenerator(appConfig, logger)
			result, err := generator.Run(ctx)
			if err != nil {
				return fmt.Errorf("report generation failed: %w", err)
			}

			logger.Info("Run complete",
				zap.Int("pages", result.TotalPages),
				zap.Int("failed_pages", result.FailedPages),
				zap.Int("issues", result.IssueCount),
				zap.Bool("streaming", result.Streamed),
				zap.Duration("elapsed", result.Elapsed))

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d pages (%d issues) in %s\n",
				result.TotalPages, result.IssueCount, result.Elapsed.Round(time.Millisecond))
			for _, path := range result.Written {
				fmt.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", path)
			}
			for _, failure := range result.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "  FAILED %s: %v\n", failure.Path, failure.Err)
			}
			if len(result.Failed) > 0 {
				// As long as at least one report landed, a partial run is a
				// completed run.
				fmt.Fprintf(cmd.OutOrStdout(), "Completed with partial failure: %d file(s) not written\n", len(result.Failed))
			}
			return nil
		},
	}

	generateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the raw audit result JSON (required)")
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", "./reports", "directory for generated report files")
	generateCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "output formats to generate (markdown, json, html, csv); default all")
	generateCmd.Flags().StringSliceVarP(&templates, "templates", "t", nil, "specific template keys to generate; overrides --format")
	_ = generateCmd.MarkFlagRequired("input")

	return generateCmd
}

func init() {
	rootCmd.AddCommand(newGenerateCmd())
}
