package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFileMissingIsEmpty(t *testing.T) {
	wf := NewWatchFile(filepath.Join(t.TempDir(), "watching.json"), nil)

	list, err := wf.Load()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWatchFileMalformedIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"broken json", "{not json"},
		{"null", "null"},
		{"wrong shape", `["第1话"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "watching.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			list, err := NewWatchFile(path, nil).Load()
			require.NoError(t, err)
			assert.Empty(t, list)
			require.NotNil(t, list)
			list["series"] = "第1话"
		})
	}
}

func TestWatchFileSaveRewritesWholeMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "watching.json")
	wf := NewWatchFile(path, nil)

	require.NoError(t, wf.Save(WatchList{"a": "第1话", "b": "第2话"}))
	require.NoError(t, wf.Save(WatchList{"a": "第3话"}))

	list, err := wf.Load()
	require.NoError(t, err)
	assert.Equal(t, WatchList{"a": "第3话"}, list)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "第3话", "non-ASCII names should be stored verbatim")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}
