package app

import (
	"context"
	"errors"

	"github.com/CknightX/CopyMangaDownloader/pkg/app/screens"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	tea "github.com/charmbracelet/bubbletea"
)

type App struct {
	controller *services.MangaController
}

func NewApp(controller *services.MangaController) *App {
	return &App{controller: controller}
}

// Run shows the menu until the user quits or ctx is cancelled. Downloads still in flight are
// cancelled and waited for before Run returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := screens.NewRootScreen(ctx, a.controller, a.controller.Downloader().GetProgressChannel())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	cancel()
	model.Wait()

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
