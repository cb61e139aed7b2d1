package data

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewDuckDBRepository(filepath.Join(t.TempDir(), "history.duckdb"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndListRuns(t *testing.T) {
	repo := setupTestDB(t)

	runs, err := repo.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, kind := range []string{"download", "watch", "retry"} {
		err := repo.SaveRun(&Run{
			ID:         kind + "-run",
			Kind:       kind,
			SeriesKey:  "yaoshenji",
			Succeeded:  i + 1,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err = repo.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// newest first
	assert.Equal(t, "retry", runs[0].Kind)
	assert.Equal(t, 3, runs[0].Succeeded)
	assert.Equal(t, "yaoshenji", runs[0].SeriesKey)
	assert.Equal(t, "download", runs[2].Kind)

	limited, err := repo.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSaveRunReplacesExisting(t *testing.T) {
	repo := setupTestDB(t)

	run := &Run{ID: "run-1", Kind: "download", StartedAt: time.Now()}
	require.NoError(t, repo.SaveRun(run))

	run.Failed = 4
	require.NoError(t, repo.SaveRun(run))

	runs, err := repo.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].Failed)
}
