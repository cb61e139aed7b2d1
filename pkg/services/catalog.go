package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/sources"
	"golang.org/x/sync/singleflight"
)

// Catalog caches each series' chapter list for the life of the process.
// Concurrent first requests for the same series share one fetch.
type Catalog struct {
	source sources.Source
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string][]data.Chapter
	group singleflight.Group
}

func NewCatalog(source sources.Source, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source: source,
		logger: logger,
		cache:  make(map[string][]data.Chapter),
	}
}

// Resolve returns the ordered chapters of seriesKey. The returned slice is shared and must not be modified.
func (c *Catalog) Resolve(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
	if chapters, ok := c.cached(seriesKey); ok {
		c.logger.Debug("catalog cache hit", "series", seriesKey)
		return chapters, nil
	}

	// The fetch outlives any single caller; each caller stops waiting on its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(seriesKey, func() (any, error) {
		if chapters, ok := c.cached(seriesKey); ok {
			return chapters, nil
		}

		chapters, err := c.source.GetChapters(fetchCtx, seriesKey)
		if err != nil {
			if errors.Is(err, data.ErrCatalogMalformed) || errors.Is(err, data.ErrCatalogUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %w", data.ErrCatalogUnavailable, seriesKey, err)
		}

		c.mu.Lock()
		c.cache[seriesKey] = chapters
		c.mu.Unlock()

		c.logger.Info("loaded chapter catalog", "series", seriesKey, "chapters", len(chapters))
		return chapters, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		c.logger.Error("failed to load chapter catalog", "series", seriesKey, "error", res.Err)
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("catalog fetch coalesced", "series", seriesKey)
	}
	return res.Val.([]data.Chapter), nil
}

func (c *Catalog) cached(seriesKey string) ([]data.Chapter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chapters, ok := c.cache[seriesKey]
	return chapters, ok
}
