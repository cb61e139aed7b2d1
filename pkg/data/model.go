package data

import "time"

// Chapter is one entry of a series catalog. Ordinal is its position in catalog order.
type Chapter struct {
	Name    string
	ID      string
	Ordinal int
}

// DownloadTask is a single page to materialize on disk.
type DownloadTask struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// FailureRecord is a DownloadTask that exhausted its retries.
type FailureRecord struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

func (r FailureRecord) Task() DownloadTask {
	return DownloadTask{URL: r.URL, Path: r.Path}
}

// WatchList maps series key to the name of the last chapter already downloaded.
type WatchList map[string]string

// Run is one recorded download, watch or retry invocation.
type Run struct {
	ID         string
	Kind       string // "download", "watch", "retry"
	SeriesKey  string
	Skipped    int
	Succeeded  int
	Failed     int
	Cancelled  int
	StartedAt  time.Time
	FinishedAt time.Time
}
