package services

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/CknightX/CopyMangaDownloader/pkg/utils"
)

// Mock implementations for testing

type mockSource struct {
	getChaptersFunc func(ctx context.Context, seriesKey string) ([]data.Chapter, error)
	getPagesFunc    func(ctx context.Context, seriesKey string, chapter data.Chapter) ([]string, error)
	getTitleFunc    func(ctx context.Context, seriesKey string) (string, error)
}

func (m *mockSource) GetChapters(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
	if m.getChaptersFunc != nil {
		return m.getChaptersFunc(ctx, seriesKey)
	}
	return nil, nil
}

func (m *mockSource) GetPages(ctx context.Context, seriesKey string, chapter data.Chapter) ([]string, error) {
	if m.getPagesFunc != nil {
		return m.getPagesFunc(ctx, seriesKey, chapter)
	}
	return nil, nil
}

func (m *mockSource) GetTitle(ctx context.Context, seriesKey string) (string, error) {
	if m.getTitleFunc != nil {
		return m.getTitleFunc(ctx, seriesKey)
	}
	return seriesKey, nil
}

type memoryWatchStore struct {
	mu    sync.Mutex
	list  data.WatchList
	saves int
}

func (s *memoryWatchStore) Load() (data.WatchList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.list == nil {
		return data.WatchList{}, nil
	}
	return maps.Clone(s.list), nil
}

func (s *memoryWatchStore) Save(list data.WatchList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = maps.Clone(list)
	s.saves++
	return nil
}

type memoryFailureStore struct {
	records []data.FailureRecord
}

func (s *memoryFailureStore) Put(records []data.FailureRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *memoryFailureStore) Take() ([]data.FailureRecord, error) {
	out := s.records
	s.records = nil
	return out, nil
}

type memoryHistory struct {
	mu   sync.Mutex
	runs []*data.Run
}

func (h *memoryHistory) SaveRun(run *data.Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, run)
	return nil
}

func (h *memoryHistory) ListRuns(limit int) ([]*data.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runs, nil
}

// Test helpers

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalogOf(names ...string) []data.Chapter {
	chapters := make([]data.Chapter, len(names))
	for i, name := range names {
		chapters[i] = data.Chapter{Name: name, ID: "id-" + name, Ordinal: i}
	}
	return chapters
}

// imageServer serves "img-<path>" for every path, except paths containing "broken" which
// always answer 500. It counts requests per path.
type imageServer struct {
	*httptest.Server
	mu    sync.Mutex
	hits  map[string]int
	total atomic.Int64
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.total.Add(1)
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		if strings.Contains(r.URL.Path, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		if strings.Contains(r.URL.Path, "truncated") {
			// Promise more than is sent; the client sees the connection drop mid-body.
			w.Header().Set("Content-Length", "1000")
			w.Write([]byte("img-"))
			return
		}
		w.Write([]byte("img-" + r.URL.Path))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *imageServer) hitsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *imageServer) fetcher() Fetcher {
	return utils.NewAPI(s.URL)
}
