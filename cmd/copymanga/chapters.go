package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <series-key> [filter]",
	Short: "List the chapters of a series",
	Long:  "List the chapter names of a series in catalog order. These are the names ranges are written with.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seriesKey := args[0]
		var filter string
		if len(args) == 2 {
			filter = args[1]
		}

		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			chapters, err := c.Chapters(ctx, seriesKey)
			if err != nil {
				return err
			}
			if len(chapters) == 0 {
				fmt.Println("No chapters found.")
				return nil
			}

			var (
				purple = lipgloss.Color("99")

				headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
				cellStyle   = lipgloss.NewStyle().Padding(0, 1)
			)

			t := table.New().
				Border(lipgloss.HiddenBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(purple)).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == table.HeaderRow:
						return headerStyle
					default:
						return cellStyle
					}
				}).
				Headers("#", "Chapter", "ID")

			shown := 0
			for _, ch := range chapters {
				if filter != "" && !strings.Contains(ch.Name, filter) {
					continue
				}
				t.Row(fmt.Sprintf("%d", ch.Ordinal+1), truncateString(ch.Name, 40), ch.ID)
				shown++
			}

			if shown == 0 {
				fmt.Printf("No chapters of %s contain %q\n", seriesKey, filter)
				return nil
			}
			fmt.Println(t)
			fmt.Printf("%d of %d chapters\n", shown, len(chapters))
			return nil
		})
	},
}
