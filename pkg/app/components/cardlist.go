package components

import (
	"strings"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/styles"
	"github.com/charmbracelet/lipgloss"
)

// CardListItem is one selectable card. Key identifies the item to the screen that owns the list.
type CardListItem struct {
	Key         string
	Title       string
	Description string
	Status      string
}

type CardList struct {
	Items         []CardListItem
	SelectedIndex int
	Width         int
	Height        int
	EmptyMessage  string
}

func NewCardList(emptyMessage string) *CardList {
	return &CardList{
		Items:         []CardListItem{},
		SelectedIndex: 0,
		Width:         80,
		Height:        20,
		EmptyMessage:  emptyMessage,
	}
}

func (m *CardList) SetItems(items []CardListItem) {
	m.Items = items
	if m.SelectedIndex >= len(items) && len(items) > 0 {
		m.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		m.SelectedIndex = 0
	}
}

func (m *CardList) Next() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex++
	if m.SelectedIndex >= len(m.Items) {
		m.SelectedIndex = 0
	}
}

func (m *CardList) Prev() {
	if len(m.Items) == 0 {
		return
	}
	m.SelectedIndex--
	if m.SelectedIndex < 0 {
		m.SelectedIndex = len(m.Items) - 1
	}
}

func (m *CardList) Selected() *CardListItem {
	if len(m.Items) == 0 || m.SelectedIndex >= len(m.Items) {
		return nil
	}
	return &m.Items[m.SelectedIndex]
}

func (m *CardList) View() string {
	if len(m.Items) == 0 {
		emptyMsg := styles.MutedStyle.Render(m.EmptyMessage)
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	var b strings.Builder

	for i, item := range m.Items {
		cardStyle := styles.CardStyle
		if i == m.SelectedIndex {
			cardStyle = styles.ActiveCardStyle
		}

		lines := []string{styles.TitleStyle.Render(item.Title)}
		if item.Description != "" {
			desc := item.Description
			if len([]rune(desc)) > 80 {
				desc = string([]rune(desc)[:77]) + "..."
			}
			lines = append(lines, styles.TextStyle.Render(desc))
		}
		if item.Status != "" {
			lines = append(lines, styles.StatusStyle(item.Status).Render(item.Status))
		}

		card := cardStyle.Width(m.Width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
		b.WriteString(card)
		b.WriteString("\n")
	}

	return b.String()
}
