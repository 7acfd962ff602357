package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"webring/pkg/logging"
)

// DefaultPath is where the cache file lives, relative to the working directory.
const DefaultPath = ".webringcache"

// Entry records the outcome of the last fetch of one feed URL.
//
// LastModified and ETag hold response header values reused verbatim as
// conditional request headers; ETag is stored in its quoted form. An empty
// string means the header was never seen. RetryAfter of zero means no
// rate-limit window is active. Body is nil when no payload has ever been
// retrieved for the URL; such entries are transient and are not persisted.
type Entry struct {
	Timestamp    time.Time     `json:"timestamp"`
	RetryAfter   time.Duration `json:"retry_after,omitempty"`
	LastModified string        `json:"last_modified,omitempty"`
	ETag         string        `json:"etag,omitempty"`
	Body         *string       `json:"body,omitempty"`
}

// RetryActive reports whether the entry's rate-limit window still covers now.
func (e *Entry) RetryActive(now time.Time) bool {
	return e.RetryAfter > 0 && e.Timestamp.Add(e.RetryAfter).After(now)
}

// SetBody replaces the entry's payload.
func (e *Entry) SetBody(body string) {
	e.Body = &body
}

// Store maps feed URLs to cache entries.
//
// The mutex guards the map structure only. Entry pointers handed out by Get
// and Upsert may be mutated without further locking because every concurrent
// fetch task owns exactly one URL: no two goroutines ever hold the same
// entry. That disjoint-key contract is a design assumption of the fetch
// orchestrator, not an accident.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Get returns the entry for url, if present.
func (s *Store) Get(url string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[url]
	return e, ok
}

// Upsert returns the entry for url, creating an empty one if absent. The
// caller can read and mutate the returned entry without a second lookup.
func (s *Store) Upsert(url string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[url]; ok {
		return e
	}
	e := &Entry{}
	s.entries[url] = e
	return e
}

// Put inserts or replaces the entry for url.
func (s *Store) Put(url string, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = e
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// URLs returns the cached URLs in no particular order.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.entries))
	for u := range s.entries {
		urls = append(urls, u)
	}
	return urls
}

// Save serializes the full mapping to path, overwriting any previous file.
// It writes to a temp file in the same directory and renames it into place
// so a crash mid-write cannot corrupt the previous cache. Entries without a
// body are skipped: they only exist transiently (e.g. a 429 with nothing
// cached) and must not be persisted as successful fetches.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	durable := make(map[string]*Entry, len(s.entries))
	for url, e := range s.entries {
		if e.Body != nil {
			durable[url] = e
		}
	}
	s.mu.RUnlock()

	data, err := json.Marshal(durable)
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Load deserializes the mapping at path and drops every entry whose age
// (now minus its timestamp) is maxAge or more. The filter runs per entry.
func Load(path string, maxAge time.Duration, now time.Time) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]*Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding cache: %w", err)
	}
	for url, e := range entries {
		if now.Sub(e.Timestamp) >= maxAge {
			delete(entries, url)
		}
	}
	return &Store{entries: entries}, nil
}

// Open loads the cache at path, absorbing every failure: a missing, corrupt
// or expired cache yields an empty store and at most a warning, never an
// error. Before parsing, the file's own modification time is checked against
// maxAge; a file that has not been written within maxAge cannot contain any
// surviving entry, so parsing is skipped outright. That check is only a fast
// negative: entries that do survive it still pass through Load's per-entry
// age filter.
func Open(path string, maxAge time.Duration) *Store {
	info, err := os.Stat(path)
	if err != nil {
		logging.L.Debugf("no feed cache at %s, starting cold", path)
		return New()
	}
	if age := time.Since(info.ModTime()); age >= maxAge {
		logging.L.Warnf("feed cache is too old (age %s, max %s), discarding", age.Round(time.Second), maxAge)
		return New()
	}

	store, err := Load(path, maxAge, time.Now())
	if err != nil {
		logging.L.Warnf("failed to load feed cache from %s: %v, starting cold", path, err)
		return New()
	}
	logging.L.Debugf("loaded %d cached feeds from %s", store.Len(), path)
	return store
}
