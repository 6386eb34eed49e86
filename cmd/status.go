package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/velmik/intake/internal/adapters/render/status"
)

func newStatusCmd(app *app) *cobra.Command {
	var (
		asJSON bool
		recent int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session progress, recent transactions and operator totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := app.ledger.Report(recent)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			rendered, err := app.statusRenderer(report, statusadapter.RenderOptions{Now: app.clock.Now()})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent transactions to include")

	return cmd
}
