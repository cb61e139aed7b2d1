package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <series-key> <range>",
	Short: "Download a chapter range",
	Long: `Download every chapter between two chapter names, inclusive, in catalog order.

The range is either a single chapter name or "<start>-<end>", for example:
  copymanga download chainsawman 第1话-第10话
  copymanga download chainsawman 番外

Pages already on disk are skipped, so an interrupted download can simply be run again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		seriesKey, expr := args[0], args[1]
		name, _ := cmd.Flags().GetString("name")

		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			done := printProgress(c.Downloader().GetProgressChannel())

			fmt.Printf("📥 Downloading %s %s\n", seriesKey, expr)
			report, err := c.Download(ctx, seriesKey, expr, name)
			c.Downloader().Close()
			<-done

			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			if report.Chapters == 0 {
				suggestChapters(ctx, c, seriesKey, expr)
				return nil
			}

			printReport(report, c.Ledger().Snapshot())
			return report.Err()
		})
	},
}

func init() {
	downloadCmd.Flags().StringP("name", "n", "", "folder name for the series (default is the title from the series page)")
}

// suggestChapters prints catalog names close to the boundaries of a range that matched nothing.
func suggestChapters(ctx context.Context, c *services.MangaController, seriesKey, expr string) {
	fmt.Println("⚠️  The range selected no chapters.")

	rng, err := data.ParseRange(expr)
	if err != nil {
		return
	}
	chapters, err := c.Chapters(ctx, seriesKey)
	if err != nil {
		return
	}

	_, hasStart := services.FindChapter(chapters, rng.Start)
	_, hasEnd := services.FindChapter(chapters, rng.End)
	if hasStart && hasEnd {
		fmt.Printf("   %s comes after %s in the catalog\n", rng.Start, rng.End)
		return
	}

	for _, name := range []string{rng.Start, rng.End} {
		if _, ok := services.FindChapter(chapters, name); ok {
			continue
		}
		suggestions := services.SuggestChapters(chapters, name, 5)
		if len(suggestions) == 0 {
			fmt.Printf("   %q is not a chapter of %s\n", name, seriesKey)
			continue
		}
		fmt.Printf("   %q is not a chapter of %s. Did you mean: %s\n", name, seriesKey, strings.Join(suggestions, ", "))
		if rng.IsSingle() {
			break
		}
	}
	fmt.Printf("💡 List chapter names with: copymanga chapters %s\n", seriesKey)
}
