package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/sources"
	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultConcurrency = 16
	DefaultExtension   = "jpg"
)

// DownloadProgress represents the progress of a chapter download
type DownloadProgress struct {
	SeriesKey   string
	ChapterName string
	Done        int // pages that reached a terminal outcome
	TotalPages  int
	Status      string // "listing", "downloading", "complete", "error"
	Error       error
}

// Report counts the outcomes of a batch. Pages equals Skipped+Succeeded+Failed+Cancelled.
type Report struct {
	Chapters      int
	Pages         int
	Skipped       int
	Succeeded     int
	Failed        int
	Cancelled     int
	ChapterErrors []error
}

// Err joins the errors of chapters that could not be downloaded at all.
func (r Report) Err() error {
	return errors.Join(r.ChapterErrors...)
}

func (r *Report) Merge(other Report) {
	r.Chapters += other.Chapters
	r.Pages += other.Pages
	r.Skipped += other.Skipped
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
	r.Cancelled += other.Cancelled
	r.ChapterErrors = append(r.ChapterErrors, other.ChapterErrors...)
}

type outcomeCounter struct {
	skipped, succeeded, failed, cancelled atomic.Int64
}

func (c *outcomeCounter) add(o Outcome) {
	switch o {
	case OutcomeSkipped:
		c.skipped.Add(1)
	case OutcomeSucceeded:
		c.succeeded.Add(1)
	case OutcomeFailed:
		c.failed.Add(1)
	case OutcomeCancelled:
		c.cancelled.Add(1)
	}
}

func (c *outcomeCounter) fill(r *Report) {
	r.Skipped = int(c.skipped.Load())
	r.Succeeded = int(c.succeeded.Load())
	r.Failed = int(c.failed.Load())
	r.Cancelled = int(c.cancelled.Load())
	r.Pages = r.Skipped + r.Succeeded + r.Failed + r.Cancelled
}

type DownloaderConfig struct {
	DownloadDir string
	Concurrency int    // page downloads in flight across every batch
	Extension   string // file extension for pages
}

// Downloader fans chapters and their pages out over a bounded pool of page downloads.
type Downloader struct {
	source       sources.Source
	engine       *Engine
	pool         *semaphore.Weighted
	downloadDir  string
	extension    string
	logger       *slog.Logger
	progressChan chan DownloadProgress
	closeOnce    sync.Once
}

// NewDownloader creates a new Downloader instance
func NewDownloader(source sources.Source, engine *Engine, cfg DownloaderConfig, logger *slog.Logger) *Downloader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		source:       source,
		engine:       engine,
		pool:         semaphore.NewWeighted(int64(cfg.Concurrency)),
		downloadDir:  cfg.DownloadDir,
		extension:    cfg.Extension,
		logger:       logger,
		progressChan: make(chan DownloadProgress, 100),
	}
}

// GetProgressChannel returns the channel for receiving download progress updates
func (d *Downloader) GetProgressChannel() <-chan DownloadProgress {
	return d.progressChan
}

// SeriesDir is the folder a series' chapters are written under.
func (d *Downloader) SeriesDir(displayName string) string {
	return filepath.Join(d.downloadDir, utils.SanitizeFilename(displayName))
}

// ChapterDir is the folder a chapter's pages are written to.
func (d *Downloader) ChapterDir(displayName, chapterName string) string {
	return filepath.Join(d.SeriesDir(displayName), utils.SanitizeFilename(chapterName))
}

// PagePath is the destination of the index-th (0-based) page of a chapter.
func (d *Downloader) PagePath(displayName, chapterName string, index int) string {
	return filepath.Join(d.ChapterDir(displayName, chapterName), fmt.Sprintf("%d.%s", index+1, d.extension))
}

// DownloadChapters downloads every page of every chapter concurrently and returns once each
// page has reached a terminal outcome. A chapter whose page list cannot be fetched is reported
// in Report.ChapterErrors without affecting the others; failed pages go to the ledger.
func (d *Downloader) DownloadChapters(ctx context.Context, seriesKey, displayName string, chapters []data.Chapter) Report {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		counter outcomeCounter
		errs    []error
	)

	d.logger.Info("downloading chapters", "series", seriesKey, "name", displayName, "chapters", len(chapters))

	for _, chapter := range chapters {
		wg.Add(1)
		go func(chapter data.Chapter) {
			defer wg.Done()
			if err := d.downloadChapter(ctx, seriesKey, displayName, chapter, &counter); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				d.logger.Error("chapter download failed", "series", seriesKey, "chapter", chapter.Name, "error", err)
				d.sendProgress(DownloadProgress{
					SeriesKey:   seriesKey,
					ChapterName: chapter.Name,
					Status:      "error",
					Error:       err,
				})
			}
		}(chapter)
	}

	wg.Wait()

	report := Report{Chapters: len(chapters), ChapterErrors: errs}
	counter.fill(&report)
	return report
}

func (d *Downloader) downloadChapter(ctx context.Context, seriesKey, displayName string, chapter data.Chapter, counter *outcomeCounter) error {
	d.sendProgress(DownloadProgress{
		SeriesKey:   seriesKey,
		ChapterName: chapter.Name,
		Status:      "listing",
	})

	pages, err := d.source.GetPages(ctx, seriesKey, chapter)
	if err != nil {
		return fmt.Errorf("chapter %s: %w", chapter.Name, err)
	}

	folder := d.ChapterDir(displayName, chapter.Name)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("chapter %s: failed to create directory: %w", chapter.Name, err)
	}

	d.logger.Info("downloading chapter", "series", seriesKey, "chapter", chapter.Name, "pages", len(pages))

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	for i, pageURL := range pages {
		task := data.DownloadTask{URL: pageURL, Path: d.PagePath(displayName, chapter.Name, i)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.add(d.fetch(ctx, task))
			d.sendProgress(DownloadProgress{
				SeriesKey:   seriesKey,
				ChapterName: chapter.Name,
				Done:        int(done.Add(1)),
				TotalPages:  len(pages),
				Status:      "downloading",
			})
		}()
	}
	wg.Wait()

	d.logger.Info("chapter downloaded", "series", seriesKey, "chapter", chapter.Name)
	d.sendProgress(DownloadProgress{
		SeriesKey:   seriesKey,
		ChapterName: chapter.Name,
		Done:        len(pages),
		TotalPages:  len(pages),
		Status:      "complete",
	})
	return nil
}

// Resubmit downloads previously failed records again through the shared pool.
// Records that fail again are appended to the ledger anew.
func (d *Downloader) Resubmit(ctx context.Context, records []data.FailureRecord) Report {
	var (
		wg      sync.WaitGroup
		counter outcomeCounter
	)
	for _, rec := range records {
		wg.Add(1)
		go func(task data.DownloadTask) {
			defer wg.Done()
			counter.add(d.fetch(ctx, task))
		}(rec.Task())
	}
	wg.Wait()

	var report Report
	counter.fill(&report)
	return report
}

// fetch runs one task once a pool slot is free. Tasks still waiting when ctx is cancelled are not started.
func (d *Downloader) fetch(ctx context.Context, task data.DownloadTask) Outcome {
	if err := d.pool.Acquire(ctx, 1); err != nil {
		return OutcomeCancelled
	}
	defer d.pool.Release(1)
	return d.engine.FetchToFile(ctx, task)
}

// sendProgress sends a progress update (non-blocking)
func (d *Downloader) sendProgress(progress DownloadProgress) {
	select {
	case d.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel. No download may be running.
func (d *Downloader) Close() {
	d.closeOnce.Do(func() {
		close(d.progressChan)
	})
}
