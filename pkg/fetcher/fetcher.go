package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"webring/pkg/cache"
	"webring/pkg/httpclient"
	"webring/pkg/logging"
)

// defaultRetryAfter is used when a 429 carries no parseable Retry-After header.
const defaultRetryAfter = 4 * time.Hour

// Result is one successfully fetched and parsed feed.
type Result struct {
	URL  string
	Feed *gofeed.Feed
	// FromCache is true when the body came from the cache without a network
	// round trip (an active rate-limit window) or via a 304 substitution.
	FromCache bool
}

// Failure records one URL that could not be turned into a feed.
type Failure struct {
	URL string
	Err error
}

// Fetcher runs the conditional fetch protocol against feed URLs, reading and
// updating the shared cache store. Each URL's cache entry is only ever
// touched by the one task fetching that URL.
type Fetcher struct {
	client *httpclient.Client
	store  *cache.Store
	now    func() time.Time
}

// New creates a fetcher backed by store.
func New(store *cache.Store) *Fetcher {
	return &Fetcher{
		client: httpclient.New(),
		store:  store,
		now:    time.Now,
	}
}

// Fetch retrieves and parses the feed at feedURL.
//
// If the cached entry for the URL is inside an active Retry-After window and
// holds a body, that body is served without any network request. Otherwise a
// GET is issued, conditional on the cached ETag / Last-Modified validators
// when present. 200 refreshes the entry, 304 substitutes the cached body,
// 429 records the new window and degrades to the cached body if one exists.
// Any other status, a transport failure, an unreadable body or unparseable
// feed markup fails this URL without touching the cached validators or body.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Result, error) {
	entry, cached := f.store.Get(feedURL)

	if cached && entry.RetryActive(f.now()) {
		if entry.Body != nil {
			logging.L.Debugf("%s: inside retry-after window, serving cached feed", feedURL)
			feed, err := parseFeed(feedURL, *entry.Body)
			if err != nil {
				return nil, err
			}
			return &Result{URL: feedURL, Feed: feed, FromCache: true}, nil
		}
		// Nothing useful to serve, so requesting anyway is the lesser evil.
		logging.L.Debugf("%s: inside retry-after window but nothing cached, fetching anyway", feedURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", feedURL, err)
	}
	if cached {
		if entry.LastModified != "" {
			req.Header.Set("If-Modified-Since", entry.LastModified)
		}
		if entry.ETag != "" {
			req.Header.Set("If-None-Match", entry.ETag)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if cached {
			entry.Timestamp = f.now()
		}
		return nil, fmt.Errorf("fetching %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotModified:
		body, fromCache, err := f.refreshEntry(feedURL, entry, cached, resp)
		if err != nil {
			return nil, err
		}
		feed, err := parseFeed(feedURL, body)
		if err != nil {
			// The bytes were fetched and cached fine; they just are not a feed.
			return nil, err
		}
		return &Result{URL: feedURL, Feed: feed, FromCache: fromCache}, nil

	case http.StatusTooManyRequests:
		return f.handleRateLimit(feedURL, entry, cached, resp)

	default:
		return nil, &UnexpectedStatusError{URL: feedURL, Status: resp.StatusCode}
	}
}

// refreshEntry updates the cache from a 200 or 304 response and returns the
// body to parse. On 304 the previously cached body is substituted and stored
// validators survive unless the response carries fresh ones; on 200 the
// validators and body are overwritten wholesale.
func (f *Fetcher) refreshEntry(feedURL string, entry *cache.Entry, cached bool, resp *http.Response) (body string, fromCache bool, err error) {
	etag := normalizeETag(resp.Header.Get("ETag"))
	lastModified := resp.Header.Get("Last-Modified")

	if resp.StatusCode == http.StatusNotModified {
		if !cached || entry.Body == nil {
			// A 304 we never asked for; there is nothing to substitute.
			return "", false, &EmptyBodyError{URL: feedURL}
		}
		logging.L.Debugf("%s: not modified, substituting cached body", feedURL)
		if etag != "" {
			entry.ETag = etag
		}
		if lastModified != "" {
			entry.LastModified = lastModified
		}
		entry.Timestamp = f.now()
		return *entry.Body, true, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.L.Warnf("%s: failed to read response body: %v", feedURL, err)
		return "", false, &EmptyBodyError{URL: feedURL}
	}
	e := f.store.Upsert(feedURL)
	e.ETag = etag
	e.LastModified = lastModified
	e.SetBody(string(raw))
	e.Timestamp = f.now()
	logging.L.Debugf("%s: fetched %d bytes", feedURL, len(raw))
	return string(raw), false, nil
}

// handleRateLimit records the Retry-After window from a 429 and degrades to
// the cached body when one exists. Without a cached body the URL fails for
// this run; no cache entry is created for it.
func (f *Fetcher) handleRateLimit(feedURL string, entry *cache.Entry, cached bool, resp *http.Response) (*Result, error) {
	if !cached {
		return nil, &RateLimitedError{URL: feedURL}
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	entry.Timestamp = f.now()
	entry.RetryAfter = retryAfter
	logging.L.Debugf("%s: rate limited, backing off %s", feedURL, retryAfter)

	if entry.Body == nil {
		return nil, &RateLimitedError{URL: feedURL}
	}
	feed, err := parseFeed(feedURL, *entry.Body)
	if err != nil {
		return nil, err
	}
	return &Result{URL: feedURL, Feed: feed, FromCache: true}, nil
}

// parseFeed hands the body to the feed parser.
func parseFeed(feedURL, body string) (*gofeed.Feed, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed at %s: %w", feedURL, err)
	}
	return feed, nil
}

// normalizeETag returns the header value in its quoted wire form. Origins
// sometimes emit bare tokens; conditional requests must echo the quotes, so
// a bare value is wrapped while already-quoted and weak (W/"...") values
// pass through untouched. A value that opens a quote is never wrapped again,
// even when the closing quote is missing.
func normalizeETag(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, `"`) || strings.HasPrefix(raw, `W/"`) {
		return raw
	}
	return `"` + raw + `"`
}

// parseRetryAfter interprets a Retry-After header as integer seconds,
// falling back to the default window when absent or malformed.
func parseRetryAfter(raw string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
