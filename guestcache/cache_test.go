package guestcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aufmass/go-aufmass/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProjectCachesResult(t *testing.T) {
	cache := NewCache(context.Background())
	defer cache.Close()

	var calls atomic.Int32
	fetch := func() (*database.Project, error) {
		calls.Add(1)
		return &database.Project{ID: "p1", Number: "WER-2024-001"}, nil
	}

	first, err := cache.FetchProject("p1", fetch)
	require.NoError(t, err)
	second, err := cache.FetchProject("p1", fetch)
	require.NoError(t, err)

	assert.Equal(t, "WER-2024-001", first.Number)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchProjectSingleflight(t *testing.T) {
	cache := NewCache(context.Background())
	defer cache.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func() (*database.Project, error) {
		calls.Add(1)
		<-release
		return &database.Project{ID: "p1"}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.FetchProject("p1", fetch)
			assert.NoError(t, err)
		}()
	}
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(), "concurrent callers share one fetch")
}

func TestInvalidateDropsProject(t *testing.T) {
	cache := NewCache(context.Background())
	defer cache.Close()

	var calls atomic.Int32
	fetch := func() (*database.Project, error) {
		calls.Add(1)
		return &database.Project{ID: "p1"}, nil
	}

	_, err := cache.FetchProject("p1", fetch)
	require.NoError(t, err)
	cache.Invalidate("p1")
	_, err = cache.FetchProject("p1", fetch)
	require.NoError(t, err)

	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchAuthProjection(t *testing.T) {
	cache := NewCache(context.Background())
	defer cache.Close()

	var calls atomic.Int32
	fetch := func() (database.ProjectAuth, error) {
		calls.Add(1)
		return database.ProjectAuth{ID: "p1", Number: "WER-2024-001"}, nil
	}

	auth, err := cache.FetchAuth("p1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "WER-2024-001", auth.Number)
	_, err = cache.FetchAuth("p1", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	cache.InvalidateAuth("p1")
	_, err = cache.FetchAuth("p1", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}
