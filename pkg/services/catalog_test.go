package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CknightX/CopyMangaDownloader/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_ResolveCaches(t *testing.T) {
	var calls atomic.Int32
	source := &mockSource{
		getChaptersFunc: func(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
			calls.Add(1)
			return catalogOf("A", "B"), nil
		},
	}
	catalog := NewCatalog(source, quietLogger())

	first, err := catalog.Resolve(context.Background(), "series")
	require.NoError(t, err)
	second, err := catalog.Resolve(context.Background(), "series")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	_, err = catalog.Resolve(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCatalog_CoalescesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	source := &mockSource{
		getChaptersFunc: func(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
			calls.Add(1)
			<-release
			return catalogOf("A"), nil
		},
	}
	catalog := NewCatalog(source, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chapters, err := catalog.Resolve(context.Background(), "series")
			assert.NoError(t, err)
			assert.Len(t, chapters, 1)
		}()
	}

	// Let every goroutine reach the in-flight fetch before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCatalog_Errors(t *testing.T) {
	t.Run("malformed passes through", func(t *testing.T) {
		source := &mockSource{
			getChaptersFunc: func(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
				return nil, data.ErrCatalogMalformed
			},
		}
		_, err := NewCatalog(source, quietLogger()).Resolve(context.Background(), "series")
		assert.ErrorIs(t, err, data.ErrCatalogMalformed)
	})

	t.Run("other errors become unavailable and are not cached", func(t *testing.T) {
		var calls atomic.Int32
		source := &mockSource{
			getChaptersFunc: func(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
				if calls.Add(1) == 1 {
					return nil, errors.New("connection reset")
				}
				return catalogOf("A"), nil
			},
		}
		catalog := NewCatalog(source, quietLogger())

		_, err := catalog.Resolve(context.Background(), "series")
		assert.ErrorIs(t, err, data.ErrCatalogUnavailable)

		chapters, err := catalog.Resolve(context.Background(), "series")
		require.NoError(t, err)
		assert.Len(t, chapters, 1)
	})
}

func TestCatalog_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	source := &mockSource{
		getChaptersFunc: func(ctx context.Context, seriesKey string) ([]data.Chapter, error) {
			calls.Add(1)
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return catalogOf("A", "B"), nil
		},
	}
	catalog := NewCatalog(source, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := catalog.Resolve(ctx, "series")
		firstErr <- err
	}()
	<-started

	type result struct {
		chapters []data.Chapter
		err      error
	}
	second := make(chan result, 1)
	go func() {
		chapters, err := catalog.Resolve(context.Background(), "series")
		second <- result{chapters, err}
	}()
	// Let the second caller join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.chapters, 2)
	assert.Equal(t, int32(1), calls.Load())
}
