package components

import (
	"fmt"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
)

// maxListedFailures caps how many ledger records are printed under a report.
const maxListedFailures = 10

// ReportView renders the outcome counts of a finished run and the downloads that are still failing.
func ReportView(report services.Report, failures []data.FailureRecord) string {
	var b strings.Builder

	status := "complete"
	if report.Failed > 0 || report.Cancelled > 0 || report.Err() != nil {
		status = "partial"
	}

	b.WriteString(styles.StatusStyle(status).Render(fmt.Sprintf("%d chapters, %d pages", report.Chapters, report.Pages)))
	b.WriteString("\n")
	counts := []struct {
		label string
		n     int
	}{
		{"downloaded", report.Succeeded},
		{"skipped", report.Skipped},
		{"failed", report.Failed},
		{"cancelled", report.Cancelled},
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = styles.OutcomeStyle(c.label, c.n).Render(fmt.Sprintf("%s %d", c.label, c.n))
	}
	b.WriteString(strings.Join(parts, " • "))
	b.WriteString("\n")

	for _, err := range report.ChapterErrors {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", err)))
		b.WriteString("\n")
	}

	if len(failures) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d failed downloads, retry them from the menu:", len(failures))))
		b.WriteString("\n")
		for i, rec := range failures {
			if i == maxListedFailures {
				b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("... and %d more", len(failures)-maxListedFailures)))
				b.WriteString("\n")
				break
			}
			b.WriteString(styles.MutedStyle.Render(rec.Path))
			b.WriteString("\n")
		}
	}

	return b.String()
}
