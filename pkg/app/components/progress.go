package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
)

// ProgressTracker folds downloader progress events into per-chapter state for the run screen.
// Finished chapters leave the view; chapters whose page list failed stay with their error.
type ProgressTracker struct {
	chapters  map[string]services.DownloadProgress
	completed int
	failed    int
	width     int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		chapters: make(map[string]services.DownloadProgress),
		width:    width,
	}
}

func progressKey(p services.DownloadProgress) string {
	return p.SeriesKey + "\x00" + p.ChapterName
}

func (p *ProgressTracker) Update(progress services.DownloadProgress) {
	key := progressKey(progress)
	switch progress.Status {
	case "complete":
		delete(p.chapters, key)
		p.completed++
	case "error":
		if prev, ok := p.chapters[key]; !ok || prev.Status != "error" {
			p.failed++
		}
		p.chapters[key] = progress
	default:
		// Events can arrive out of order; never move a chapter's page count backwards.
		if prev, ok := p.chapters[key]; ok && prev.Done > progress.Done {
			progress.Done = prev.Done
		}
		p.chapters[key] = progress
	}
}

// Completed counts chapters whose pages all reached an outcome since the last Clear.
func (p *ProgressTracker) Completed() int {
	return p.completed
}

// Failed counts chapters whose page list could not be fetched since the last Clear.
func (p *ProgressTracker) Failed() int {
	return p.failed
}

func (p *ProgressTracker) Resize(width int) {
	p.width = width
}

func (p *ProgressTracker) Clear() {
	p.chapters = make(map[string]services.DownloadProgress)
	p.completed = 0
	p.failed = 0
}

func (p *ProgressTracker) View() string {
	if len(p.chapters) == 0 {
		return ""
	}

	bySeries := make(map[string][]services.DownloadProgress)
	for _, progress := range p.chapters {
		bySeries[progress.SeriesKey] = append(bySeries[progress.SeriesKey], progress)
	}
	series := make([]string, 0, len(bySeries))
	for key := range bySeries {
		series = append(series, key)
	}
	sort.Strings(series)

	var b strings.Builder
	for _, key := range series {
		chapters := bySeries[key]
		sort.Slice(chapters, func(i, j int) bool { return chapters[i].ChapterName < chapters[j].ChapterName })

		b.WriteString(styles.SubtitleStyle.Render(key))
		b.WriteString("\n")
		for _, ch := range chapters {
			b.WriteString(p.chapterLine(ch))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *ProgressTracker) chapterLine(ch services.DownloadProgress) string {
	name := styles.TextStyle.Render("  " + ch.ChapterName)
	if ch.Error != nil {
		return name + " " + styles.StatusError.Render(fmt.Sprintf("Error: %s", ch.Error))
	}
	if ch.TotalPages == 0 {
		return name + " " + styles.StatusStyle(ch.Status).Render(ch.Status)
	}

	counts := fmt.Sprintf("%d/%d pages", ch.Done, ch.TotalPages)
	barWidth := p.width - len([]rune(ch.ChapterName)) - len(counts) - 6
	if barWidth > 40 {
		barWidth = 40
	}
	bar := renderProgressBar(ch.Done, ch.TotalPages, barWidth)
	return strings.TrimRight(fmt.Sprintf("%s %s %s", name, bar, styles.StatusStyle(ch.Status).Render(counts)), " ")
}

func renderProgressBar(done, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := done * width / total
	if filled > width {
		filled = width
	}
	return styles.ProgressBarStyle.Render(strings.Repeat("█", filled)) + styles.MutedStyle.Render(strings.Repeat("░", width-filled))
}
