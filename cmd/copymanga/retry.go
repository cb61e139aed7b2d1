package cmd

import (
	"context"
	"fmt"

	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry failed page downloads",
	Long:  "Download every page that failed in an earlier run again. Pages that fail again are kept for the next retry.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			report, err := c.RetryFailed(ctx)
			if err != nil {
				return err
			}
			if report.Pages == 0 {
				fmt.Println("✅ No failed downloads to retry.")
				return nil
			}
			printReport(report, c.Ledger().Snapshot())
			return nil
		})
	},
}
