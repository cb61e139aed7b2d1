package screens

import (
	"fmt"
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	seriesField = iota
	rangeField
	nameField
)

// DownloadScreen collects a series key, a range expression and an optional display name.
type DownloadScreen struct {
	inputs  []textinput.Model
	focused int
	width   int
	height  int
	err     error
}

func NewDownloadScreen() *DownloadScreen {
	series := textinput.New()
	series.Placeholder = "series key, e.g. chainsawman"
	series.CharLimit = 100
	series.Width = 50
	series.Focus()

	rng := textinput.New()
	rng.Placeholder = "第1话-第10话 or a single chapter"
	rng.CharLimit = 100
	rng.Width = 50

	name := textinput.New()
	name.Placeholder = "folder name (optional, defaults to the title)"
	name.CharLimit = 100
	name.Width = 50

	return &DownloadScreen{inputs: []textinput.Model{series, rng, name}}
}

func (s *DownloadScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s *DownloadScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, switchTo("menu", nil)
		case "tab", "down":
			return s, s.focus((s.focused + 1) % len(s.inputs))
		case "shift+tab", "up":
			return s, s.focus((s.focused + len(s.inputs) - 1) % len(s.inputs))
		case "enter":
			if s.focused < nameField {
				return s, s.focus(s.focused + 1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focused], cmd = s.inputs[s.focused].Update(msg)
	return s, cmd
}

func (s *DownloadScreen) focus(i int) tea.Cmd {
	s.inputs[s.focused].Blur()
	s.focused = i
	return s.inputs[i].Focus()
}

func (s *DownloadScreen) submit() tea.Cmd {
	seriesKey := strings.TrimSpace(s.inputs[seriesField].Value())
	if seriesKey == "" {
		s.err = fmt.Errorf("series key is required")
		return s.focus(seriesField)
	}

	expr := s.inputs[rangeField].Value()
	if _, err := data.ParseRange(expr); err != nil {
		s.err = err
		return s.focus(rangeField)
	}

	s.err = nil
	request := startDownloadMsg{
		seriesKey:   seriesKey,
		expr:        strings.TrimSpace(expr),
		displayName: strings.TrimSpace(s.inputs[nameField].Value()),
	}
	return func() tea.Msg { return request }
}

func (s *DownloadScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Download a range")

	labels := []string{"Series", "Range", "Name"}
	var b strings.Builder
	for i, input := range s.inputs {
		inputStyle := styles.InputStyle
		if i == s.focused {
			inputStyle = styles.FocusedInputStyle
		}
		b.WriteString(styles.SubtitleStyle.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(input.View()))
		b.WriteString("\n")
	}

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err))
		errorMsg += "\n\n"
	}

	help := styles.HelpStyle.Render("tab/↓ ↑: switch field • enter: next/start • esc: back • ctrl+c: quit")

	return fmt.Sprintf("%s\n\n%s\n%s%s", header, b.String(), errorMsg, help)
}

type startDownloadMsg struct {
	seriesKey   string
	expr        string
	displayName string
}
