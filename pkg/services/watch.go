package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"golang.org/x/sync/errgroup"
)

const watchParallelism = 4

// WatchStore loads and persists the watch list as a whole.
type WatchStore interface {
	Load() (data.WatchList, error)
	Save(list data.WatchList) error
}

// RangeDownloader downloads a chapter range of one series.
type RangeDownloader interface {
	DownloadRange(ctx context.Context, seriesKey string, expr data.RangeExpression, displayName string) (Report, error)
}

// SeriesUpdate is the result of reconciling one watched series.
type SeriesUpdate struct {
	SeriesKey string
	Range     data.RangeExpression
	Report    Report
	Err       error
	Advanced  bool // the bookmark moved to Range.End
}

type WatchReport struct {
	Updates []SeriesUpdate
	Errors  []error // series whose catalog could not be read
}

func (w WatchReport) Totals() Report {
	var total Report
	for _, u := range w.Updates {
		total.Merge(u.Report)
	}
	return total
}

// ComputeDelta returns the chapters published after lastSeen, or an empty expression when
// lastSeen is unknown or already the newest chapter.
func ComputeDelta(chapters []data.Chapter, lastSeen string) data.RangeExpression {
	for i, ch := range chapters {
		if ch.Name != lastSeen {
			continue
		}
		if i+1 >= len(chapters) {
			return data.RangeExpression{}
		}
		return data.RangeExpression{Start: chapters[i+1].Name, End: chapters[len(chapters)-1].Name}
	}
	return data.RangeExpression{}
}

// Watcher brings every watched series up to date.
type Watcher struct {
	catalog    *Catalog
	store      WatchStore
	downloader RangeDownloader
	logger     *slog.Logger
}

func NewWatcher(catalog *Catalog, store WatchStore, downloader RangeDownloader, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		catalog:    catalog,
		store:      store,
		downloader: downloader,
		logger:     logger,
	}
}

// ComputeDeltas maps each series with new chapters to the range to download. Series that are up
// to date or whose bookmark is not in the catalog are omitted. Catalog failures are joined into
// the returned error and do not prevent the other series from being computed.
func (w *Watcher) ComputeDeltas(ctx context.Context, list data.WatchList) (map[string]data.RangeExpression, error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		deltas = make(map[string]data.RangeExpression)
		errs   []error
	)
	g.SetLimit(watchParallelism)

	for seriesKey, lastSeen := range list {
		g.Go(func() error {
			chapters, err := w.catalog.Resolve(ctx, seriesKey)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", seriesKey, err))
				mu.Unlock()
				return nil
			}

			if _, ok := FindChapter(chapters, lastSeen); !ok {
				w.logger.Warn("last seen chapter not in catalog", "series", seriesKey, "chapter", lastSeen)
				return nil
			}

			delta := ComputeDelta(chapters, lastSeen)
			if delta.IsEmpty() {
				w.logger.Debug("series up to date", "series", seriesKey)
				return nil
			}

			mu.Lock()
			deltas[seriesKey] = delta
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return deltas, errors.Join(errs...)
}

// Update downloads every series' delta. After a series downloads cleanly its bookmark moves to
// the delta's last chapter and the whole watch list is rewritten.
func (w *Watcher) Update(ctx context.Context) (WatchReport, error) {
	list, err := w.store.Load()
	if err != nil {
		return WatchReport{}, err
	}

	deltas, err := w.ComputeDeltas(ctx, list)
	report := WatchReport{}
	if err != nil {
		report.Errors = append(report.Errors, err)
	}
	if len(deltas) == 0 {
		w.logger.Info("no watched series updated")
		return report, nil
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(watchParallelism)

	for seriesKey, delta := range deltas {
		g.Go(func() error {
			update := SeriesUpdate{SeriesKey: seriesKey, Range: delta}
			update.Report, update.Err = w.downloader.DownloadRange(ctx, seriesKey, delta, "")
			if update.Err == nil {
				update.Err = update.Report.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if update.Err == nil && update.Report.Cancelled == 0 && ctx.Err() == nil {
				previous := list[seriesKey]
				list[seriesKey] = delta.End
				if err := w.store.Save(maps.Clone(list)); err != nil {
					list[seriesKey] = previous
					update.Err = fmt.Errorf("failed to save watch list: %w", err)
				} else {
					update.Advanced = true
					w.logger.Info("watch bookmark advanced", "series", seriesKey, "chapter", delta.End)
				}
			}
			report.Updates = append(report.Updates, update)
			return nil
		})
	}
	g.Wait()

	sort.Slice(report.Updates, func(i, j int) bool {
		return report.Updates[i].SeriesKey < report.Updates[j].SeriesKey
	})
	return report, nil
}
