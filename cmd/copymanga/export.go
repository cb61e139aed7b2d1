package cmd

import (
	"context"
	"fmt"

	"github.com/CknightX/CopyMangaDownloader/pkg/integrations"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <series-key> <range>",
	Short: "Pack downloaded chapters into an EPUB",
	Long: `Pack the chapters of a range that are already on disk into a single EPUB.
Page images are embedded as downloaded. Chapters that were never downloaded are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		outputDir, _ := cmd.Flags().GetString("output")
		if outputDir == "" {
			outputDir = cfg.Download.Dir
		}

		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			path, err := c.Export(ctx, args[0], args[1], name, integrations.NewEPubBuilder(outputDir, logger))
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("📖 EPUB created: %s\n", path)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringP("name", "n", "", "folder name the series was downloaded under (default is the title)")
	exportCmd.Flags().StringP("output", "o", "", "directory to write the EPUB to (default is download.dir)")
}
