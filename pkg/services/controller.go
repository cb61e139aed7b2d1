package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/CknightX/CopyMangaDownloader/pkg/config"
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/integrations"
	"github.com/CknightX/CopyMangaDownloader/pkg/sources"
	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
	"github.com/google/uuid"
)

// FailureStore keeps ledger records between runs.
type FailureStore interface {
	Put(records []data.FailureRecord) error
	Take() ([]data.FailureRecord, error)
}

// HistoryRepository records finished runs.
type HistoryRepository interface {
	SaveRun(run *data.Run) error
	ListRuns(limit int) ([]*data.Run, error)
}

type ControllerConfig struct {
	Source     sources.Source
	Fetcher    Fetcher
	WatchStore WatchStore
	Failures   FailureStore      // optional
	History    HistoryRepository // optional
	Downloader DownloaderConfig
	RetryLimit int
	Logger     *slog.Logger
}

// MangaController wires the catalog, download engine, batch downloader and watcher together
// and owns the resources they share for the life of a run.
type MangaController struct {
	source     sources.Source
	catalog    *Catalog
	ledger     *Ledger
	engine     *Engine
	downloader *Downloader
	watcher    *Watcher
	watchStore WatchStore
	failures   FailureStore
	history    HistoryRepository
	logger     *slog.Logger
	closers    []io.Closer
}

func NewMangaControllerWithConfig(cfg ControllerConfig) *MangaController {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger := NewLedger()
	engine := NewEngine(cfg.Fetcher, ledger, cfg.RetryLimit, logger)
	catalog := NewCatalog(cfg.Source, logger)

	c := &MangaController{
		source:     cfg.Source,
		catalog:    catalog,
		ledger:     ledger,
		engine:     engine,
		downloader: NewDownloader(cfg.Source, engine, cfg.Downloader, logger),
		watchStore: cfg.WatchStore,
		failures:   cfg.Failures,
		history:    cfg.History,
		logger:     logger,
	}
	c.watcher = NewWatcher(catalog, cfg.WatchStore, c, logger)
	return c
}

// NewMangaController builds the production stack described by cfg: one HTTP client shared by
// every remote call, the bbolt failure store and the DuckDB run history.
func NewMangaController(cfg *config.Config, logger *slog.Logger) (*MangaController, error) {
	api := utils.NewAPI(cfg.Source.APIBaseURL,
		utils.WithClient(&http.Client{}),
		utils.WithTimeout(cfg.Source.Timeout),
		utils.WithUserAgent(cfg.Source.UserAgent),
		utils.WithRetries(cfg.Download.RetryLimit),
		utils.WithLogger(logger),
	)
	source := sources.NewCopyManga(api, cfg.Source.SiteBaseURL, cfg.Source.PageSize)

	failures, err := data.OpenFailureStore(cfg.Storage.LedgerDB)
	if err != nil {
		return nil, err
	}
	history, err := data.NewDuckDBRepository(cfg.Storage.HistoryDB)
	if err != nil {
		failures.Close()
		return nil, err
	}

	c := NewMangaControllerWithConfig(ControllerConfig{
		Source:     source,
		Fetcher:    api,
		WatchStore: data.NewWatchFile(cfg.Watch.File, logger),
		Failures:   failures,
		History:    history,
		Downloader: DownloaderConfig{
			DownloadDir: cfg.Download.Dir,
			Concurrency: cfg.Download.Concurrency,
			Extension:   cfg.Download.Extension,
		},
		RetryLimit: cfg.Download.RetryLimit,
		Logger:     logger,
	})
	c.closers = append(c.closers, failures, history)
	return c, nil
}

func (c *MangaController) Downloader() *Downloader {
	return c.downloader
}

func (c *MangaController) Ledger() *Ledger {
	return c.ledger
}

// Chapters returns the series catalog, fetched at most once per process.
func (c *MangaController) Chapters(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
	return c.catalog.Resolve(ctx, seriesKey)
}

// DisplayName returns explicit when set, otherwise the title scraped from the series page.
func (c *MangaController) DisplayName(ctx context.Context, seriesKey, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return c.source.GetTitle(ctx, seriesKey)
}

// DownloadRange downloads the chapters of seriesKey selected by expr. Title and catalog errors
// abort the series; anything below that is reported in the returned Report.
func (c *MangaController) DownloadRange(ctx context.Context, seriesKey string, expr data.RangeExpression, displayName string) (Report, error) {
	name, err := c.DisplayName(ctx, seriesKey, displayName)
	if err != nil {
		return Report{}, err
	}

	chapters, err := c.catalog.Resolve(ctx, seriesKey)
	if err != nil {
		return Report{}, err
	}

	selected := SelectRange(chapters, expr)
	if len(selected) == 0 {
		c.logger.Warn("range selected no chapters", "series", seriesKey, "range", expr.String())
		return Report{}, nil
	}

	c.logger.Info("start downloading", "series", seriesKey, "name", name, "range", expr.String(), "chapters", len(selected))
	return c.downloader.DownloadChapters(ctx, seriesKey, name, selected), nil
}

// Download parses expr and downloads the range, recording the run.
func (c *MangaController) Download(ctx context.Context, seriesKey, expr, displayName string) (Report, error) {
	rng, err := data.ParseRange(expr)
	if err != nil {
		return Report{}, err
	}

	started := time.Now()
	report, err := c.DownloadRange(ctx, seriesKey, rng, displayName)
	c.recordRun("download", seriesKey, started, report)
	return report, err
}

// Update reconciles the watch list, recording the run.
func (c *MangaController) Update(ctx context.Context) (WatchReport, error) {
	started := time.Now()
	report, err := c.watcher.Update(ctx)
	if err == nil {
		c.recordRun("watch", "", started, report.Totals())
	}
	return report, err
}

// RetryFailed re-submits every failed download, both from this process and from earlier runs.
// Downloads that fail again are left in the ledger.
func (c *MangaController) RetryFailed(ctx context.Context) (Report, error) {
	if c.failures != nil {
		stored, err := c.failures.Take()
		if err != nil {
			return Report{}, err
		}
		for _, rec := range stored {
			c.ledger.Append(rec)
		}
	}

	records := c.ledger.DrainAll()
	if len(records) == 0 {
		c.logger.Info("no failed downloads to retry")
		return Report{}, nil
	}

	started := time.Now()
	c.logger.Info("retrying failed downloads", "count", len(records))
	report := c.downloader.Resubmit(ctx, records)
	c.recordRun("retry", "", started, report)
	return report, nil
}

// Export packs the already downloaded chapters of seriesKey selected by expr into one file.
// Nothing is fetched apart from the title and the catalog.
func (c *MangaController) Export(ctx context.Context, seriesKey, expr, displayName string, exporter integrations.Exporter) (string, error) {
	rng, err := data.ParseRange(expr)
	if err != nil {
		return "", err
	}
	name, err := c.DisplayName(ctx, seriesKey, displayName)
	if err != nil {
		return "", err
	}
	chapters, err := c.catalog.Resolve(ctx, seriesKey)
	if err != nil {
		return "", err
	}

	selected := SelectRange(chapters, rng)
	folders := make([]integrations.ChapterFolder, len(selected))
	for i, ch := range selected {
		folders[i] = integrations.ChapterFolder{Name: ch.Name, Dir: c.downloader.ChapterDir(name, ch.Name)}
	}
	return exporter.Export(name, folders)
}

// Watchlist returns the persisted watch list.
func (c *MangaController) Watchlist() (data.WatchList, error) {
	return c.watchStore.Load()
}

// Watch starts tracking seriesKey from lastSeen, which must name a chapter in its catalog.
func (c *MangaController) Watch(ctx context.Context, seriesKey, lastSeen string) error {
	chapters, err := c.catalog.Resolve(ctx, seriesKey)
	if err != nil {
		return err
	}
	if _, ok := FindChapter(chapters, lastSeen); !ok {
		return fmt.Errorf("%w: %q in %s", data.ErrChapterNotFound, lastSeen, seriesKey)
	}

	list, err := c.watchStore.Load()
	if err != nil {
		return err
	}
	list[seriesKey] = lastSeen
	return c.watchStore.Save(list)
}

// Unwatch stops tracking seriesKey. It reports whether the series was tracked.
func (c *MangaController) Unwatch(seriesKey string) (bool, error) {
	list, err := c.watchStore.Load()
	if err != nil {
		return false, err
	}
	if _, ok := list[seriesKey]; !ok {
		return false, nil
	}
	delete(list, seriesKey)
	return true, c.watchStore.Save(list)
}

// History returns recorded runs, newest first.
func (c *MangaController) History(limit int) ([]*data.Run, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.ListRuns(limit)
}

func (c *MangaController) recordRun(kind, seriesKey string, started time.Time, report Report) {
	if c.history == nil {
		return
	}
	run := &data.Run{
		ID:         uuid.NewString(),
		Kind:       kind,
		SeriesKey:  seriesKey,
		Skipped:    report.Skipped,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Cancelled:  report.Cancelled,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := c.history.SaveRun(run); err != nil {
		c.logger.Warn("failed to record run", "kind", kind, "error", err)
	}
}

// PersistFailures moves the ledger's records into the failure store so a later run can retry them.
func (c *MangaController) PersistFailures() error {
	if c.failures == nil {
		return nil
	}
	records := c.ledger.DrainAll()
	if len(records) == 0 {
		return nil
	}
	if err := c.failures.Put(records); err != nil {
		for _, rec := range records {
			c.ledger.Append(rec)
		}
		return err
	}
	return nil
}

// Close persists outstanding failures and releases the controller's resources.
func (c *MangaController) Close() error {
	errs := []error{c.PersistFailures()}
	c.downloader.Close()
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
