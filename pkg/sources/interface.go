package sources

import (
	"context"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
)

// Source is the remote catalog a series is downloaded from.
type Source interface {
	// GetChapters returns the series' chapters in catalog order.
	GetChapters(ctx context.Context, seriesKey string) ([]data.Chapter, error)
	// GetPages returns the page image URLs of one chapter in reading order.
	GetPages(ctx context.Context, seriesKey string, chapter data.Chapter) ([]string, error)
	// GetTitle returns the human-readable series name.
	GetTitle(ctx context.Context, seriesKey string) (string, error)
}
