package screens

import (
	"fmt"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/components"
	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	tea "github.com/charmbracelet/bubbletea"
)

// MenuScreen offers the three run modes plus the watch list.
type MenuScreen struct {
	list   *components.CardList
	width  int
	height int
}

func NewMenuScreen() *MenuScreen {
	list := components.NewCardList("")
	list.SetItems([]components.CardListItem{
		{Key: "update", Title: "Update watched series", Description: "Download every chapter published after each bookmark"},
		{Key: "download", Title: "Download a range", Description: "Pick a series and a chapter range such as 第1话-第10话"},
		{Key: "retry", Title: "Retry failed downloads", Description: "Try every page that failed in this or an earlier run again"},
		{Key: "watchlist", Title: "Watch list", Description: "Browse watched series and their bookmarks"},
	})
	return &MenuScreen{list: list}
}

func (s *MenuScreen) Init() tea.Cmd {
	return nil
}

func (s *MenuScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		case "1", "2", "3", "4":
			s.list.SelectedIndex = int(msg.String()[0] - '1')
			return s, switchTo(s.list.Selected().Key, nil)
		case "enter":
			if selected := s.list.Selected(); selected != nil {
				return s, switchTo(selected.Key, nil)
			}
		}
	}

	return s, nil
}

func (s *MenuScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("CopyManga Downloader")
	help := styles.HelpStyle.Render("↑/k ↓/j: navigate • enter or 1-4: choose • q: quit")

	return fmt.Sprintf("%s\n\n%s\n%s", header, s.list.View(), help)
}
