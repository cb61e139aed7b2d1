package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs",
	Long:  "Display recent download, watch and retry runs with their page counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			runs, err := c.History(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("📜 No runs recorded yet.")
				return nil
			}

			columns := []table.Column{
				{Title: "Started", Width: 19},
				{Title: "Kind", Width: 8},
				{Title: "Series", Width: 24},
				{Title: "Done", Width: 6},
				{Title: "Skipped", Width: 8},
				{Title: "Failed", Width: 7},
				{Title: "Took", Width: 8},
			}

			rows := make([]table.Row, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, table.Row{
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Kind,
					truncateString(run.SeriesKey, 22),
					fmt.Sprintf("%d", run.Succeeded),
					fmt.Sprintf("%d", run.Skipped),
					fmt.Sprintf("%d", run.Failed+run.Cancelled),
					run.FinishedAt.Sub(run.StartedAt).Round(100 * time.Millisecond).String(),
				})
			}

			t := table.New(
				table.WithColumns(columns),
				table.WithRows(rows),
				table.WithFocused(false),
				table.WithHeight(len(rows)),
			)
			t.SetStyles(plainTableStyles())

			fmt.Printf("\n📜 Last %d runs\n\n", len(runs))
			fmt.Println(t.View())
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "l", 20, "number of runs to show (0 shows all)")
}
