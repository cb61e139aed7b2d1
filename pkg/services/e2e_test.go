package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/sources"
	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// E2E tests for the full pipeline against a fake CopyManga site

type fakeSite struct {
	*httptest.Server
	chapters   atomic.Int32 // chapters published
	brokenPage atomic.Bool  // page 1 of chapter 2 answers 500
}

func newFakeSite(t *testing.T, chapters int) *fakeSite {
	t.Helper()
	site := &fakeSite{}
	site.chapters.Store(int32(chapters))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/comic/series/group/default/chapters", func(w http.ResponseWriter, r *http.Request) {
		n := int(site.chapters.Load())
		var items []string
		for i := 1; i <= n; i++ {
			items = append(items, fmt.Sprintf(`{"name":"第%d话","uuid":"u%d"}`, i, i))
		}
		fmt.Fprintf(w, `{"code":200,"results":{"total":%d,"list":[%s]}}`, n, strings.Join(items, ","))
	})
	mux.HandleFunc("/api/v3/comic/series/chapter2/", func(w http.ResponseWriter, r *http.Request) {
		uuid := strings.TrimPrefix(r.URL.Path, "/api/v3/comic/series/chapter2/")
		var resp struct {
			Code    int `json:"code"`
			Results struct {
				Chapter struct {
					Contents []map[string]string `json:"contents"`
				} `json:"chapter"`
			} `json:"results"`
		}
		resp.Code = 200
		for i := 0; i < 2; i++ {
			resp.Results.Chapter.Contents = append(resp.Results.Chapter.Contents,
				map[string]string{"url": fmt.Sprintf("%s/img/%s/%d.jpg", site.URL, uuid, i)})
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img/u2/1.jpg" && site.brokenPage.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("jpeg " + r.URL.Path))
	})
	mux.HandleFunc("/comic/series", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>E2E Manga - 拷贝漫画</title></head><body></body></html>`)
	})

	site.Server = httptest.NewServer(mux)
	t.Cleanup(site.Close)
	return site
}

// newRun builds a controller the way a single CLI invocation does, sharing state through files in dir.
func newRun(t *testing.T, site *fakeSite, dir string) (*MangaController, func()) {
	t.Helper()
	api := utils.NewAPI(site.URL, utils.WithLogger(quietLogger()))
	failures, err := data.OpenFailureStore(filepath.Join(dir, "state", "ledger.db"))
	require.NoError(t, err)

	c := NewMangaControllerWithConfig(ControllerConfig{
		Source:     sources.NewCopyManga(api, site.URL, 0),
		Fetcher:    api,
		WatchStore: data.NewWatchFile(filepath.Join(dir, "state", "watching.json"), quietLogger()),
		Failures:   failures,
		Downloader: DownloaderConfig{DownloadDir: filepath.Join(dir, "downloads")},
		RetryLimit: 3,
		Logger:     quietLogger(),
	})
	return c, func() {
		require.NoError(t, c.Close())
		require.NoError(t, failures.Close())
	}
}

func TestE2E_DownloadRetryWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	site := newFakeSite(t, 3)
	dir := t.TempDir()
	ctx := context.Background()
	page := func(chapter string, n int) string {
		return filepath.Join(dir, "downloads", "E2E Manga", chapter, fmt.Sprintf("%d.jpg", n))
	}

	t.Run("download leaves one failure behind", func(t *testing.T) {
		site.brokenPage.Store(true)
		c, done := newRun(t, site, dir)
		defer done()

		report, err := c.Download(ctx, "series", "第1话-第3话", "")
		require.NoError(t, err)
		assert.Equal(t, 3, report.Chapters)
		assert.Equal(t, 6, report.Pages)
		assert.Equal(t, 5, report.Succeeded)
		assert.Equal(t, 1, report.Failed)

		content, err := os.ReadFile(page("第1话", 1))
		require.NoError(t, err)
		assert.Equal(t, "jpeg /img/u1/0.jpg", string(content))
		assert.NoFileExists(t, page("第2话", 2))
	})

	t.Run("retry in a later run", func(t *testing.T) {
		site.brokenPage.Store(false)
		c, done := newRun(t, site, dir)
		defer done()

		report, err := c.RetryFailed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Succeeded)
		assert.FileExists(t, page("第2话", 2))

		again, err := c.RetryFailed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Pages)
	})

	t.Run("watch picks up new chapters", func(t *testing.T) {
		c, done := newRun(t, site, dir)
		require.NoError(t, c.Watch(ctx, "series", "第3话"))
		done()

		site.chapters.Store(5)
		c, done = newRun(t, site, dir)
		defer done()

		report, err := c.Update(ctx)
		require.NoError(t, err)
		require.Len(t, report.Updates, 1)
		assert.True(t, report.Updates[0].Advanced)
		assert.Equal(t, data.RangeExpression{Start: "第4话", End: "第5话"}, report.Updates[0].Range)
		assert.FileExists(t, page("第5话", 2))

		raw, err := os.ReadFile(filepath.Join(dir, "state", "watching.json"))
		require.NoError(t, err)
		var list data.WatchList
		require.NoError(t, json.Unmarshal(raw, &list))
		assert.Equal(t, data.WatchList{"series": "第5话"}, list)
	})
}
