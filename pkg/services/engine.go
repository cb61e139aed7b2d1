package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
)

const DefaultRetryLimit = 3

// Fetcher opens a remote resource with a single request. A non-2xx status is an error.
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Outcome is the terminal state of one download task.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Engine downloads single files. Files already present are never fetched again, and a file
// only appears at its destination once it has been written in full.
type Engine struct {
	fetcher    Fetcher
	ledger     *Ledger
	retryLimit int
	logger     *slog.Logger
}

func NewEngine(fetcher Fetcher, ledger *Ledger, retryLimit int, logger *slog.Logger) *Engine {
	if retryLimit < 1 {
		retryLimit = DefaultRetryLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fetcher:    fetcher,
		ledger:     ledger,
		retryLimit: retryLimit,
		logger:     logger,
	}
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// FetchToFile ensures task.Path holds the bytes at task.URL. Exhausting every attempt
// records the task in the ledger and returns OutcomeFailed.
func (e *Engine) FetchToFile(ctx context.Context, task data.DownloadTask) Outcome {
	if _, err := os.Stat(task.Path); err == nil {
		e.logger.Debug("skip downloaded file", "path", task.Path)
		return OutcomeSkipped
	}

	for attempt := 1; attempt <= e.retryLimit; attempt++ {
		if ctx.Err() != nil {
			return OutcomeCancelled
		}

		err := e.attempt(ctx, task)
		if err == nil {
			e.logger.Info("downloaded file", "path", task.Path)
			return OutcomeSucceeded
		}
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		e.logger.Warn("download attempt failed", "path", task.Path, "url", task.URL, "attempt", attempt, "error", err)
	}

	e.ledger.Append(data.FailureRecord{URL: task.URL, Path: task.Path})
	e.logger.Error("download failed", "path", task.Path, "url", task.URL, "attempts", e.retryLimit)
	return OutcomeFailed
}

func (e *Engine) attempt(ctx context.Context, task data.DownloadTask) (err error) {
	body, err := e.fetcher.Open(ctx, task.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	dir := filepath.Dir(task.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(task.Path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return fmt.Errorf("failed to write %s: %w", task.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), task.Path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
