package services

import (
	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/sahilm/fuzzy"
)

// SuggestChapters returns up to limit chapter names that best match name.
func SuggestChapters(chapters []data.Chapter, name string, limit int) []string {
	names := make([]string, len(chapters))
	for i, ch := range chapters {
		names[i] = ch.Name
	}

	matches := fuzzy.Find(name, names)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
