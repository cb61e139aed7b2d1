package screens

import (
	"fmt"
	"sort"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/components"
	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	tea "github.com/charmbracelet/bubbletea"
)

type WatchlistScreen struct {
	controller Controller
	list       *components.CardList
	width      int
	height     int
	err        error
}

func NewWatchlistScreen(controller Controller) *WatchlistScreen {
	return &WatchlistScreen{
		controller: controller,
		list:       components.NewCardList("No watched series. Add one with `copymanga watch add <series> <chapter>`."),
	}
}

func (s *WatchlistScreen) Init() tea.Cmd {
	return s.loadWatchlist
}

func (s *WatchlistScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.list.Width = msg.Width - 4
		s.list.Height = msg.Height - 10

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.list.Prev()
		case "down", "j":
			s.list.Next()
		case "r":
			return s, s.loadWatchlist
		case "d":
			if selected := s.list.Selected(); selected != nil {
				return s, s.unwatch(selected.Key)
			}
		case "enter":
			if selected := s.list.Selected(); selected != nil {
				return s, switchTo("chapters", chaptersRequest{seriesKey: selected.Key, lastSeen: selected.Description})
			}
		case "esc":
			return s, switchTo("menu", nil)
		}

	case watchlistLoadedMsg:
		s.list.SetItems(msg.items)
		s.err = msg.err

	case unwatchedMsg:
		if msg.err != nil {
			s.err = msg.err
		}
		return s, s.loadWatchlist
	}

	return s, nil
}

func (s *WatchlistScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render(fmt.Sprintf("Watch list (%d)", len(s.list.Items)))

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • enter: chapters • d: stop watching • r: refresh • esc: back • ctrl+c: quit",
	)

	return fmt.Sprintf("%s\n\n%s%s\n%s", header, errorMsg, s.list.View(), help)
}

type watchlistLoadedMsg struct {
	items []components.CardListItem
	err   error
}

type unwatchedMsg struct {
	err error
}

func (s *WatchlistScreen) loadWatchlist() tea.Msg {
	list, err := s.controller.Watchlist()
	if err != nil {
		return watchlistLoadedMsg{err: err}
	}

	keys := make([]string, 0, len(list))
	for key := range list {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	items := make([]components.CardListItem, len(keys))
	for i, key := range keys {
		items[i] = components.CardListItem{
			Key:         key,
			Title:       key,
			Description: list[key],
		}
	}
	return watchlistLoadedMsg{items: items}
}

func (s *WatchlistScreen) unwatch(seriesKey string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.controller.Unwatch(seriesKey)
		return unwatchedMsg{err: err}
	}
}
