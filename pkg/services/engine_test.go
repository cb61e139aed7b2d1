package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_FetchToFile(t *testing.T) {
	t.Run("downloads then skips", func(t *testing.T) {
		server := newImageServer(t)
		ledger := NewLedger()
		engine := NewEngine(server.fetcher(), ledger, 3, quietLogger())

		task := data.DownloadTask{URL: server.URL + "/p1.jpg", Path: filepath.Join(t.TempDir(), "ch", "1.jpg")}

		assert.Equal(t, OutcomeSucceeded, engine.FetchToFile(context.Background(), task))
		content, err := os.ReadFile(task.Path)
		require.NoError(t, err)
		assert.Equal(t, "img-/p1.jpg", string(content))

		assert.Equal(t, OutcomeSkipped, engine.FetchToFile(context.Background(), task))
		assert.Equal(t, 1, server.hitsFor("/p1.jpg"), "second call must not touch the network")
		assert.Equal(t, 0, ledger.Len())
	})

	t.Run("existing file is never fetched", func(t *testing.T) {
		server := newImageServer(t)
		engine := NewEngine(server.fetcher(), NewLedger(), 3, quietLogger())

		path := filepath.Join(t.TempDir(), "1.jpg")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		outcome := engine.FetchToFile(context.Background(), data.DownloadTask{URL: server.URL + "/p1.jpg", Path: path})
		assert.Equal(t, OutcomeSkipped, outcome)
		assert.Equal(t, int64(0), server.total.Load())
	})

	t.Run("retry exhaustion", func(t *testing.T) {
		server := newImageServer(t)
		ledger := NewLedger()
		engine := NewEngine(server.fetcher(), ledger, 3, quietLogger())

		dir := t.TempDir()
		task := data.DownloadTask{URL: server.URL + "/broken.jpg", Path: filepath.Join(dir, "1.jpg")}

		assert.Equal(t, OutcomeFailed, engine.FetchToFile(context.Background(), task))
		assert.Equal(t, 3, server.hitsFor("/broken.jpg"))
		assert.Equal(t, []data.FailureRecord{{URL: task.URL, Path: task.Path}}, ledger.DrainAll())

		_, err := os.Stat(task.Path)
		assert.True(t, os.IsNotExist(err), "no file may be left at the destination")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "temporary files must be cleaned up")
	})

	t.Run("truncated body leaves no partial file", func(t *testing.T) {
		server := newImageServer(t)
		ledger := NewLedger()
		engine := NewEngine(server.fetcher(), ledger, 2, quietLogger())

		dir := t.TempDir()
		task := data.DownloadTask{URL: server.URL + "/truncated.jpg", Path: filepath.Join(dir, "1.jpg")}

		assert.Equal(t, OutcomeFailed, engine.FetchToFile(context.Background(), task))
		assert.Equal(t, 2, server.hitsFor("/truncated.jpg"))
		assert.Equal(t, []data.FailureRecord{{URL: task.URL, Path: task.Path}}, ledger.DrainAll())

		_, err := os.Stat(task.Path)
		assert.True(t, os.IsNotExist(err), "no file may be left at the destination")
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "temporary files must be cleaned up")
	})

	t.Run("cancelled before first attempt", func(t *testing.T) {
		server := newImageServer(t)
		ledger := NewLedger()
		engine := NewEngine(server.fetcher(), ledger, 3, quietLogger())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		task := data.DownloadTask{URL: server.URL + "/p1.jpg", Path: filepath.Join(t.TempDir(), "1.jpg")}
		assert.Equal(t, OutcomeCancelled, engine.FetchToFile(ctx, task))
		assert.Equal(t, int64(0), server.total.Load())
		assert.Equal(t, 0, ledger.Len())
	})

	t.Run("default retry limit", func(t *testing.T) {
		engine := NewEngine(nil, NewLedger(), 0, nil)
		assert.Equal(t, DefaultRetryLimit, engine.retryLimit)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "succeeded", OutcomeSucceeded.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
}
