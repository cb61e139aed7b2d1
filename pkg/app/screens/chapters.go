package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	tea "github.com/charmbracelet/bubbletea"
)

const chapterWindow = 10

type chaptersRequest struct {
	seriesKey string
	lastSeen  string
}

// ChaptersScreen lists a series' catalog with its bookmark and lets the user mark a range to download.
type ChaptersScreen struct {
	ctx             context.Context
	controller      Controller
	seriesKey       string
	lastSeen        string
	chapters        []data.Chapter
	selectedChapter int
	start, end      string
	width           int
	height          int
	err             error
}

func NewChaptersScreen(ctx context.Context, controller Controller, seriesKey, lastSeen string) *ChaptersScreen {
	return &ChaptersScreen{
		ctx:        ctx,
		controller: controller,
		seriesKey:  seriesKey,
		lastSeen:   lastSeen,
	}
}

func (s *ChaptersScreen) Init() tea.Cmd {
	return s.loadChapters
}

func (s *ChaptersScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selectedChapter > 0 {
				s.selectedChapter--
			}
		case "down", "j":
			if s.selectedChapter < len(s.chapters)-1 {
				s.selectedChapter++
			}
		case "s":
			if len(s.chapters) > 0 {
				s.start = s.chapters[s.selectedChapter].Name
			}
		case "e":
			if len(s.chapters) > 0 {
				s.end = s.chapters[s.selectedChapter].Name
			}
		case "enter":
			if expr := s.Range(); !expr.IsEmpty() {
				request := startDownloadMsg{seriesKey: s.seriesKey, expr: expr.String()}
				return s, func() tea.Msg { return request }
			}
		case "esc", "backspace":
			return s, switchTo("watchlist", nil)
		}

	case chaptersLoadedMsg:
		s.chapters = msg.chapters
		s.err = msg.err
		if i, ok := findIndex(s.chapters, s.lastSeen); ok {
			s.selectedChapter = i
		}
	}

	return s, nil
}

// Range is the expression marked so far. A lone start or end mark selects that chapter.
func (s *ChaptersScreen) Range() data.RangeExpression {
	switch {
	case s.start != "" && s.end != "":
		return data.RangeExpression{Start: s.start, End: s.end}
	case s.start != "":
		return data.SingleChapter(s.start)
	case s.end != "":
		return data.SingleChapter(s.end)
	}
	return data.RangeExpression{}
}

func (s *ChaptersScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render(s.seriesKey)

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	var selection string
	if expr := s.Range(); !expr.IsEmpty() {
		selection = styles.SubtitleStyle.Render(fmt.Sprintf("Selected: %s", expr)) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • s: mark start • e: mark end • enter: download • esc: back • ctrl+c: quit",
	)

	return fmt.Sprintf("%s\n\n%s%s%s\n%s", header, errorMsg, selection, s.renderChaptersList(), help)
}

func (s *ChaptersScreen) renderChaptersList() string {
	if len(s.chapters) == 0 {
		return styles.MutedStyle.Render("No chapters available")
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Chapters (%d total):", len(s.chapters))))
	b.WriteString("\n\n")

	start, end := chapterWindowBounds(s.selectedChapter, len(s.chapters))

	bookmark, hasBookmark := findIndex(s.chapters, s.lastSeen)
	for i := start; i < end; i++ {
		ch := s.chapters[i]

		// ● chapters are at or before the bookmark
		statusIcon := "○"
		statusColor := styles.MutedStyle
		if hasBookmark && i <= bookmark {
			statusIcon = "●"
			statusColor = styles.BookmarkStyle
		}

		line := fmt.Sprintf("%s %s", statusIcon, ch.Name)
		if i == s.selectedChapter {
			line = styles.SelectedStyle.Render(line)
		} else {
			line = statusColor.Render(line)
		}
		if ch.Name == s.start {
			line += styles.RangeMarkStyle.Render(" [start]")
		}
		if ch.Name == s.end {
			line += styles.RangeMarkStyle.Render(" [end]")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(s.chapters) > chapterWindow {
		b.WriteString("\n")
		b.WriteString(styles.MutedStyle.Render(
			fmt.Sprintf("Showing %d-%d of %d chapters", start+1, end, len(s.chapters)),
		))
	}

	return b.String()
}

// chapterWindowBounds returns the slice of at most chapterWindow chapters around selected.
func chapterWindowBounds(selected, total int) (int, int) {
	if total <= chapterWindow {
		return 0, total
	}
	start := selected - chapterWindow/2
	if start < 0 {
		start = 0
	}
	end := start + chapterWindow
	if end > total {
		end = total
		start = end - chapterWindow
	}
	return start, end
}

func findIndex(chapters []data.Chapter, name string) (int, bool) {
	for i, ch := range chapters {
		if ch.Name == name {
			return i, true
		}
	}
	return 0, false
}

type chaptersLoadedMsg struct {
	chapters []data.Chapter
	err      error
}

func (s *ChaptersScreen) loadChapters() tea.Msg {
	chapters, err := s.controller.Chapters(s.ctx, s.seriesKey)
	return chaptersLoadedMsg{chapters: chapters, err: err}
}
