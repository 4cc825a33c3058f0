// File: cmd/formats.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/report"
)

// newFormatsCmd creates the `formats` command, which lists every registered
// report template with its format family and output filename.
func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available report templates and formats.",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := report.NewRegistry(aggregate.NewScorer(appConfig.Scoring()), appConfig.Report(), nil)

			fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-10s %s\n", "TEMPLATE", "FORMAT", "FILE")
			for _, name := range registry.Names() {
				tpl, err := registry.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-10s %s\n", tpl.Name(), tpl.Format(), tpl.Filename())
			}
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newFormatsCmd())
}
