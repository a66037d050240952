package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	lookups int
	saves   int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) LookupFingerprint(ctx context.Context, path string, size, mtime int64) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	fp, ok := c.entries[path]
	return fp, ok, nil
}

func (c *memCache) SaveFingerprint(ctx context.Context, path string, size, mtime int64, md5 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	c.entries[path] = md5
	return nil
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFingerprintIsContentAddressed(t *testing.T) {
	s := NewService(newMemCache())
	ctx := context.Background()

	// the well-known digest of "hello world"
	path := writeTempFile(t, "a.mp4", "hello world")
	fp, err := s.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", fp)

	// identical bytes under a different name hash identically
	other := writeTempFile(t, "b.mp4", "hello world")
	fp2, err := s.Fingerprint(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)

	// different bytes do not
	third := writeTempFile(t, "c.mp4", "hello worlds")
	fp3, err := s.Fingerprint(ctx, third)
	require.NoError(t, err)
	assert.NotEqual(t, fp, fp3)
}

func TestFingerprintMemoizesPerSession(t *testing.T) {
	cache := newMemCache()
	s := NewService(cache)
	ctx := context.Background()

	path := writeTempFile(t, "a.mp4", "some media bytes")

	_, ok := s.Known(path)
	assert.False(t, ok)

	fp, err := s.Fingerprint(ctx, path)
	require.NoError(t, err)

	known, ok := s.Known(path)
	require.True(t, ok)
	assert.Equal(t, fp, known)

	// second call is served from the memo, not the cache
	lookupsBefore := cache.lookups
	_, err = s.Fingerprint(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, lookupsBefore, cache.lookups)
}

func TestFingerprintUsesPersistentCache(t *testing.T) {
	cache := newMemCache()
	path := writeTempFile(t, "a.mp4", "some media bytes")

	first := NewService(cache)
	fp, err := first.Fingerprint(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.saves)

	// a fresh session finds the cached digest without rehashing
	second := NewService(cache)
	fp2, err := second.Fingerprint(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)
	assert.Equal(t, 1, cache.saves)
}

func TestFingerprintMissingFile(t *testing.T) {
	s := NewService(newMemCache())

	path := filepath.Join(t.TempDir(), "missing.mp4")
	_, err := s.Fingerprint(context.Background(), path)
	require.Error(t, err)

	_, ok := s.Known(path)
	assert.False(t, ok)
}

func TestForgetDropsMemo(t *testing.T) {
	s := NewService(newMemCache())
	path := writeTempFile(t, "a.mp4", "bytes")

	_, err := s.Fingerprint(context.Background(), path)
	require.NoError(t, err)

	s.Forget(path)
	_, ok := s.Known(path)
	assert.False(t, ok)
}

func TestConcurrentRequestsShareOneComputation(t *testing.T) {
	cache := newMemCache()
	s := NewService(cache)
	path := writeTempFile(t, "a.mp4", "shared media bytes")

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp, err := s.Fingerprint(context.Background(), path)
			assert.NoError(t, err)
			results[i] = fp
		}(i)
	}
	wg.Wait()

	for _, fp := range results {
		assert.Equal(t, results[0], fp)
	}
	assert.GreaterOrEqual(t, cache.saves, 1)
}

func TestServiceWithoutCache(t *testing.T) {
	s := NewService(nil)
	path := writeTempFile(t, "a.mp4", "hello world")

	fp, err := s.Fingerprint(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", fp)
}
