package screens

import (
	"context"
	"fmt"
	"sync"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of services.MangaController the screens drive.
type Controller interface {
	Download(ctx context.Context, seriesKey, expr, displayName string) (services.Report, error)
	Update(ctx context.Context) (services.WatchReport, error)
	RetryFailed(ctx context.Context) (services.Report, error)
	Chapters(ctx context.Context, seriesKey string) ([]data.Chapter, error)
	Watchlist() (data.WatchList, error)
	Unwatch(seriesKey string) (bool, error)
	Ledger() *services.Ledger
}

type screenType int

const (
	menuView screenType = iota
	downloadView
	watchlistView
	chaptersView
	runView
)

type RootScreen struct {
	ctx        context.Context
	controller Controller
	progress   <-chan services.DownloadProgress

	currentView screenType
	menu        *MenuScreen
	download    *DownloadScreen
	watchlist   *WatchlistScreen
	chapters    *ChaptersScreen
	run         *RunScreen

	// jobs tracks background work started by run screens so the caller can wait for it
	// before releasing the controller.
	jobs sync.WaitGroup

	width  int
	height int
}

func NewRootScreen(ctx context.Context, controller Controller, progress <-chan services.DownloadProgress) *RootScreen {
	return &RootScreen{
		ctx:         ctx,
		controller:  controller,
		progress:    progress,
		currentView: menuView,
		menu:        NewMenuScreen(),
		download:    NewDownloadScreen(),
		watchlist:   NewWatchlistScreen(controller),
	}
}

// Wait blocks until every job started from the UI has returned.
func (r *RootScreen) Wait() {
	r.jobs.Wait()
}

func (r *RootScreen) Init() tea.Cmd {
	return tea.Batch(r.menu.Init(), r.listenForProgress)
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		// Every screen keeps its layout, not just the one on top.
		r.resize(r.menu)
		r.resize(r.watchlist)
		if r.download != nil {
			r.resize(r.download)
		}
		if r.chapters != nil {
			r.resize(r.chapters)
		}
		if r.run != nil {
			r.resize(r.run)
		}
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return r, tea.Quit
		case "q":
			// Text inputs need the key on the other screens.
			if r.currentView == menuView {
				return r, tea.Quit
			}
		}

	case SwitchScreenMsg:
		return r, r.switchScreen(msg)

	case progressMsg:
		// Progress goes to the latest run screen whatever is on top.
		if r.run != nil {
			r.run.Track(services.DownloadProgress(msg))
		}
		return r, r.listenForProgress

	case startDownloadMsg:
		job := func(ctx context.Context) (services.Report, []string, error) {
			report, err := r.controller.Download(ctx, msg.seriesKey, msg.expr, msg.displayName)
			return report, nil, err
		}
		return r, r.startRun(fmt.Sprintf("Downloading %s %s", msg.seriesKey, msg.expr), job)
	}

	return r, r.forward(msg)
}

func (r *RootScreen) switchScreen(msg SwitchScreenMsg) tea.Cmd {
	switch msg.Screen {
	case "menu":
		r.currentView = menuView
		return r.menu.Init()
	case "download":
		r.download = NewDownloadScreen()
		r.resize(r.download)
		r.currentView = downloadView
		return r.download.Init()
	case "watchlist":
		r.currentView = watchlistView
		return r.watchlist.Init()
	case "chapters":
		if item, ok := msg.Data.(chaptersRequest); ok {
			r.chapters = NewChaptersScreen(r.ctx, r.controller, item.seriesKey, item.lastSeen)
			r.resize(r.chapters)
			r.currentView = chaptersView
			return r.chapters.Init()
		}
	case "update":
		return r.startRun("Updating watched series", r.updateJob)
	case "retry":
		return r.startRun("Retrying failed downloads", func(ctx context.Context) (services.Report, []string, error) {
			report, err := r.controller.RetryFailed(ctx)
			return report, nil, err
		})
	}
	return nil
}

func (r *RootScreen) updateJob(ctx context.Context) (services.Report, []string, error) {
	report, err := r.controller.Update(ctx)
	if err != nil {
		return services.Report{}, nil, err
	}
	var notes []string
	for _, u := range report.Updates {
		switch {
		case u.Advanced:
			notes = append(notes, fmt.Sprintf("%s: downloaded %s, bookmark now %s", u.SeriesKey, u.Range, u.Range.End))
		case u.Err != nil:
			notes = append(notes, fmt.Sprintf("%s: %s", u.SeriesKey, u.Err))
		default:
			notes = append(notes, fmt.Sprintf("%s: incomplete, bookmark kept", u.SeriesKey))
		}
	}
	for _, e := range report.Errors {
		notes = append(notes, e.Error())
	}
	if len(report.Updates) == 0 && len(report.Errors) == 0 {
		notes = append(notes, "every watched series is up to date")
	}
	return report.Totals(), notes, nil
}

func (r *RootScreen) startRun(title string, job runJob) tea.Cmd {
	r.run = NewRunScreen(title, r.controller.Ledger())
	r.resize(r.run)
	r.currentView = runView
	return tea.Batch(r.run.Init(), r.run.start(r.ctx, &r.jobs, job))
}

// resize hands the last window size to screen so it can lay itself out.
func (r *RootScreen) resize(screen tea.Model) {
	if r.width == 0 {
		return
	}
	screen.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
}

func (r *RootScreen) forward(msg tea.Msg) tea.Cmd {
	var newCmd tea.Cmd
	switch r.currentView {
	case menuView:
		var newModel tea.Model
		newModel, newCmd = r.menu.Update(msg)
		r.menu = newModel.(*MenuScreen)
	case downloadView:
		var newModel tea.Model
		newModel, newCmd = r.download.Update(msg)
		r.download = newModel.(*DownloadScreen)
	case watchlistView:
		var newModel tea.Model
		newModel, newCmd = r.watchlist.Update(msg)
		r.watchlist = newModel.(*WatchlistScreen)
	case chaptersView:
		if r.chapters != nil {
			var newModel tea.Model
			newModel, newCmd = r.chapters.Update(msg)
			r.chapters = newModel.(*ChaptersScreen)
		}
	case runView:
		if r.run != nil {
			var newModel tea.Model
			newModel, newCmd = r.run.Update(msg)
			r.run = newModel.(*RunScreen)
		}
	}
	return newCmd
}

func (r *RootScreen) View() string {
	tabs := r.renderTabs()

	var content string
	switch r.currentView {
	case menuView:
		content = r.menu.View()
	case downloadView:
		content = r.download.View()
	case watchlistView:
		content = r.watchlist.View()
	case chaptersView:
		if r.chapters != nil {
			content = r.chapters.View()
		}
	case runView:
		if r.run != nil {
			content = r.run.View()
		}
	}

	return fmt.Sprintf("%s\n\n%s", tabs, content)
}

func (r *RootScreen) renderTabs() string {
	if r.currentView == runView || r.currentView == chaptersView {
		return ""
	}

	tabs := []struct {
		label string
		view  screenType
	}{
		{"Menu", menuView},
		{"Download", downloadView},
		{"Watch list", watchlistView},
	}

	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if tab.view == r.currentView {
			rendered[i] = styles.ActiveTabStyle.Render(tab.label)
		} else {
			rendered[i] = styles.InactiveTabStyle.Render(tab.label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// SwitchScreenMsg asks the root screen to show another screen or start a run.
type SwitchScreenMsg struct {
	Screen string
	Data   interface{}
}

type progressMsg services.DownloadProgress

// listenForProgress waits for the next progress event. It stops once the channel is closed.
func (r *RootScreen) listenForProgress() tea.Msg {
	if r.progress == nil {
		return nil
	}
	p, ok := <-r.progress
	if !ok {
		return nil
	}
	return progressMsg(p)
}

func switchTo(screen string, data interface{}) tea.Cmd {
	return func() tea.Msg {
		return SwitchScreenMsg{Screen: screen, Data: data}
	}
}
