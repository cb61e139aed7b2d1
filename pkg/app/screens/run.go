package screens

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/components"
	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// runJob is one of the three run modes. notes are extra lines shown under the report.
type runJob func(ctx context.Context) (report services.Report, notes []string, err error)

// RunScreen shows a running job's chapter progress, then its report.
type RunScreen struct {
	title   string
	ledger  *services.Ledger
	spinner spinner.Model
	tracker *components.ProgressTracker
	result  *runFinishedMsg
	width   int
	height  int
}

func NewRunScreen(title string, ledger *services.Ledger) *RunScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusDownloading

	return &RunScreen{
		title:   title,
		ledger:  ledger,
		spinner: sp,
		tracker: components.NewProgressTracker(80),
	}
}

func (s *RunScreen) Init() tea.Cmd {
	return s.spinner.Tick
}

// start runs job in the background and reports its result as a runFinishedMsg.
// jobs is released once job returns, even if the program has already quit.
func (s *RunScreen) start(ctx context.Context, jobs *sync.WaitGroup, job runJob) tea.Cmd {
	results := make(chan runFinishedMsg, 1)
	jobs.Add(1)
	go func() {
		defer jobs.Done()
		report, notes, err := job(ctx)
		results <- runFinishedMsg{report: report, notes: notes, err: err}
	}()
	return func() tea.Msg {
		return <-results
	}
}

// Track records a progress event from the downloader.
func (s *RunScreen) Track(progress services.DownloadProgress) {
	s.tracker.Update(progress)
}

func (s *RunScreen) Done() bool {
	return s.result != nil
}

func (s *RunScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.tracker.Resize(msg.Width - 4)

	case tea.KeyMsg:
		if s.Done() {
			switch msg.String() {
			case "esc", "enter", "backspace":
				return s, switchTo("menu", nil)
			}
		}

	case runFinishedMsg:
		s.result = &msg
		s.tracker.Clear()

	case spinner.TickMsg:
		if s.Done() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}

	return s, nil
}

func (s *RunScreen) View() string {
	if !s.Done() {
		header := styles.TitleStyle.Render(fmt.Sprintf("%s %s", s.spinner.View(), s.title))
		status := styles.MutedStyle.Render(fmt.Sprintf("%d chapters finished", s.tracker.Completed()))
		if failed := s.tracker.Failed(); failed > 0 {
			status += styles.StatusError.Render(fmt.Sprintf(" • %d without a page list", failed))
		}
		help := styles.HelpStyle.Render("ctrl+c: stop and quit")
		return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", header, status, s.tracker.View(), help)
	}

	header := styles.TitleStyle.Render(s.title)

	var b strings.Builder
	if s.result.err != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", s.result.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(components.ReportView(s.result.report, s.ledger.Snapshot()))
	for _, note := range s.result.notes {
		b.WriteString("\n")
		b.WriteString(styles.TextStyle.Render(note))
	}

	help := styles.HelpStyle.Render("enter/esc: back to menu • ctrl+c: quit")
	return fmt.Sprintf("%s\n\n%s\n%s", header, b.String(), help)
}

type runFinishedMsg struct {
	report services.Report
	notes  []string
	err    error
}
