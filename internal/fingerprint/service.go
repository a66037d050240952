package fingerprint

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"eplayer/pkg/log"
)

// Cache persists computed fingerprints across sessions, keyed by
// path with size+mtime validation
type Cache interface {
	LookupFingerprint(ctx context.Context, path string, size, mtime int64) (string, bool, error)
	SaveFingerprint(ctx context.Context, path string, size, mtime int64, md5 string) error
}

// Service computes content fingerprints of media files.
// The fingerprint is the MD5 hex digest of the file bytes: identical
// bytes always produce the identical fingerprint regardless of path.
// It is a cache-addressing key only, never a security primitive.
//
// Concurrent requests for the same path share one computation;
// callers that need the fingerprint block until it is available
// instead of proceeding with an empty value.
type Service struct {
	cache Cache
	group singleflight.Group

	mu    sync.RWMutex
	known map[string]string // path -> fingerprint, session memo
}

func NewService(cache Cache) *Service {
	return &Service{
		cache: cache,
		known: make(map[string]string),
	}
}

// Fingerprint returns the content fingerprint for a file, computing
// it at most once per session. An unreadable file is a non-fatal
// error: nothing is memoized and the caller may retry.
func (s *Service) Fingerprint(ctx context.Context, path string) (string, error) {
	s.mu.RLock()
	if fp, ok := s.known[path]; ok {
		s.mu.RUnlock()
		return fp, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(path, func() (interface{}, error) {
		return s.compute(ctx, path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Known reports the fingerprint if it has already been computed this
// session, without triggering a computation
func (s *Service) Known(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fp, ok := s.known[path]
	return fp, ok
}

// Forget drops the session memo for a path, used on reset
func (s *Service) Forget(path string) {
	s.mu.Lock()
	delete(s.known, path)
	s.mu.Unlock()
}

func (s *Service) compute(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat media file: %w", err)
	}
	size := info.Size()
	mtime := info.ModTime().Unix()

	if s.cache != nil {
		if fp, ok, err := s.cache.LookupFingerprint(ctx, path, size, mtime); err != nil {
			log.Warn("Fingerprint cache lookup failed for %s: %v", path, err)
		} else if ok {
			s.memoize(path, fp)
			return fp, nil
		}
	}

	fp, err := hashFile(path)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.SaveFingerprint(ctx, path, size, mtime, fp); err != nil {
			log.Warn("Failed to cache fingerprint for %s: %v", path, err)
		}
	}

	s.memoize(path, fp)
	return fp, nil
}

func (s *Service) memoize(path, fp string) {
	s.mu.Lock()
	s.known[path] = fp
	s.mu.Unlock()
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to hash media file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
