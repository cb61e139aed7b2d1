package cmd

import (
	"fmt"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
)

const maxPrintedFailures = 20

// printProgress prints chapter events from ch until it is closed, then closes the returned channel.
func printProgress(ch <-chan services.DownloadProgress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for progress := range ch {
			switch progress.Status {
			case "complete":
				fmt.Printf("  ✅ %s: %d pages\n", progress.ChapterName, progress.TotalPages)
			case "error":
				fmt.Printf("  ❌ %s: %v\n", progress.ChapterName, progress.Error)
			}
		}
	}()
	return done
}

func printReport(report services.Report, failures []data.FailureRecord) {
	fmt.Printf("\n📊 %d chapters, %d pages: %d downloaded, %d skipped, %d failed, %d cancelled\n",
		report.Chapters, report.Pages, report.Succeeded, report.Skipped, report.Failed, report.Cancelled)

	if len(failures) == 0 {
		return
	}
	fmt.Printf("\n⚠️  %d downloads failed:\n", len(failures))
	for i, rec := range failures {
		if i == maxPrintedFailures {
			fmt.Printf("  ... and %d more\n", len(failures)-maxPrintedFailures)
			break
		}
		fmt.Printf("  %s\n", rec.Path)
	}
	fmt.Println("💡 Run 'copymanga retry' to try them again.")
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
