package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Download new chapters of watched series",
	Long: `Check every watched series for chapters published after its bookmark,
download them and move the bookmark forward once a series downloaded cleanly.`,
	Args: cobra.NoArgs,
	RunE: runWatchUpdate,
}

var watchUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download new chapters of watched series",
	Args:  cobra.NoArgs,
	RunE:  runWatchUpdate,
}

var watchAddCmd = &cobra.Command{
	Use:   "add <series-key> <last-seen-chapter>",
	Short: "Watch a series from the given chapter on",
	Long:  "Watch a series. Chapters after <last-seen-chapter> are downloaded by the next update.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			if err := c.Watch(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("✅ Watching %s from %s\n", args[0], args[1])
			return nil
		})
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:     "remove <series-key>",
	Aliases: []string{"rm"},
	Short:   "Stop watching a series",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			removed, err := c.Unwatch(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("%s is not watched\n", args[0])
				return nil
			}
			fmt.Printf("✅ Stopped watching %s\n", args[0])
			return nil
		})
	},
}

var watchListCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List watched series and their bookmarks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			list, err := c.Watchlist()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("📚 No watched series. Use 'copymanga watch add' to watch one.")
				return nil
			}

			var filter string
			if len(args) == 1 {
				filter = args[0]
			}
			keys := filterSeries(list, filter)
			if len(keys) == 0 {
				fmt.Printf("No watched series match %q\n", filter)
				return nil
			}

			fmt.Printf("\n📚 Watching %d series\n\n", len(list))
			fmt.Println(watchTable(list, keys).View())
			return nil
		})
	},
}

func init() {
	watchCmd.AddCommand(watchUpdateCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchRemoveCmd)
	watchCmd.AddCommand(watchListCmd)
}

func runWatchUpdate(cmd *cobra.Command, args []string) error {
	return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
		done := printProgress(c.Downloader().GetProgressChannel())

		fmt.Println("🔍 Checking watched series...")
		report, err := c.Update(ctx)
		c.Downloader().Close()
		<-done
		if err != nil {
			return err
		}

		for _, e := range report.Errors {
			fmt.Printf("❌ %v\n", e)
		}
		if len(report.Updates) == 0 {
			fmt.Println("✅ Every watched series is up to date.")
			return nil
		}

		for _, u := range report.Updates {
			switch {
			case u.Advanced:
				fmt.Printf("✅ %s: downloaded %s, bookmark now %s\n", u.SeriesKey, u.Range, u.Range.End)
			case u.Err != nil:
				fmt.Printf("❌ %s: %v\n", u.SeriesKey, u.Err)
			default:
				fmt.Printf("⚠️  %s: incomplete, bookmark kept at its previous chapter\n", u.SeriesKey)
			}
		}
		printReport(report.Totals(), c.Ledger().Snapshot())
		return nil
	})
}

// filterSeries returns the watched keys matching filter, best match first. An empty filter
// returns every key in alphabetical order.
func filterSeries(list data.WatchList, filter string) []string {
	keys := make([]string, 0, len(list))
	for key := range list {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if filter == "" {
		return keys
	}

	ranks := fuzzy.RankFindFold(filter, keys)
	sort.Stable(ranks)
	matched := make([]string, len(ranks))
	for i, r := range ranks {
		matched[i] = r.Target
	}
	return matched
}

func watchTable(list data.WatchList, keys []string) table.Model {
	columns := []table.Column{
		{Title: "Series", Width: 40},
		{Title: "Last seen", Width: 30},
	}

	rows := make([]table.Row, len(keys))
	for i, key := range keys {
		rows[i] = table.Row{truncateString(key, 38), truncateString(list[key], 28)}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)),
	)
	t.SetStyles(plainTableStyles())
	return t
}

// plainTableStyles styles a table that is printed once rather than navigated.
func plainTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}
