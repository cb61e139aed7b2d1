package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// WatchFile persists a WatchList as a JSON object of series key to last-seen chapter name.
type WatchFile struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewWatchFile(path string, logger *slog.Logger) *WatchFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchFile{path: path, logger: logger}
}

func (w *WatchFile) Path() string {
	return w.path
}

// Load reads the watch list. A missing or malformed file yields an empty list.
func (w *WatchFile) Load() (WatchList, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return WatchList{}, nil
		}
		return nil, fmt.Errorf("failed to read watch list: %w", err)
	}

	list := WatchList{}
	if err := json.Unmarshal(raw, &list); err != nil {
		w.logger.Warn("watch list is malformed, treating as empty", "path", w.path, "error", err)
		return WatchList{}, nil
	}
	if list == nil {
		// a literal null decodes to a nil map
		return WatchList{}, nil
	}
	return list, nil
}

// Save rewrites the whole watch list.
func (w *WatchFile) Save(list WatchList) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode watch list: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watch list directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".watching-*.json")
	if err != nil {
		return fmt.Errorf("failed to write watch list: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write watch list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write watch list: %w", err)
	}
	return os.Rename(tmp.Name(), w.path)
}
