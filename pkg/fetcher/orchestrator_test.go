package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"webring/pkg/cache"
)

func TestFetchAllCollectsSuccessesAndFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"fresh"`)
		w.Write([]byte(testFeedXML))
	})
	mux.HandleFunc("/cached", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	okURL := server.URL + "/ok"
	cachedURL := server.URL + "/cached"
	brokenURL := server.URL + "/broken"

	store := cache.New()
	store.Put(cachedURL, &cache.Entry{
		Timestamp: time.Now().Add(-time.Hour),
		ETag:      `"seeded"`,
		Body:      strPtr(cachedFeedXML),
	})

	f := New(store)
	results, failures := f.FetchAll(context.Background(), []string{okURL, cachedURL, brokenURL})

	if len(results) != 2 {
		t.Fatalf("Expected 2 successful feeds, got %d", len(results))
	}
	if len(failures) != 1 {
		t.Fatalf("Expected 1 recorded failure, got %d", len(failures))
	}
	if failures[0].URL != brokenURL {
		t.Errorf("Expected the failure to carry %s, got %s", brokenURL, failures[0].URL)
	}
	var statusErr *UnexpectedStatusError
	if !errors.As(failures[0].Err, &statusErr) || statusErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected an UnexpectedStatusError with status 500, got %v", failures[0].Err)
	}

	titles := map[string]string{}
	for _, res := range results {
		titles[res.URL] = res.Feed.Title
	}
	if titles[okURL] != "Test Feed" {
		t.Errorf("Expected fresh feed from %s, got %q", okURL, titles[okURL])
	}
	if titles[cachedURL] != "Cached Feed" {
		t.Errorf("Expected cache-substituted feed from %s, got %q", cachedURL, titles[cachedURL])
	}

	// Persisting the store keeps exactly the two feeds that produced bodies.
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := store.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := cache.Load(path, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Expected 2 persisted entries, got %d", loaded.Len())
	}
	if _, ok := loaded.Get(brokenURL); ok {
		t.Error("The failing URL must not appear in the persisted cache")
	}
}

func TestFetchAllAllFailuresIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := New(cache.New())
	results, failures := f.FetchAll(context.Background(), []string{server.URL + "/a", server.URL + "/b"})
	if len(results) != 0 {
		t.Errorf("Expected no successes, got %d", len(results))
	}
	if len(failures) != 2 {
		t.Errorf("Expected every URL to be recorded as failed, got %d", len(failures))
	}
}

func TestFetchAllNoURLs(t *testing.T) {
	f := New(cache.New())
	results, failures := f.FetchAll(context.Background(), nil)
	if len(results) != 0 || len(failures) != 0 {
		t.Errorf("Expected empty outcome for an empty URL set, got %d results, %d failures", len(results), len(failures))
	}
}
