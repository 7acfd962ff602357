package articles

import (
	"net/url"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"webring/pkg/content"
	"webring/pkg/domain"
	"webring/pkg/fetcher"
	"webring/pkg/logging"
)

// maxSummaryRunes caps rendered summaries; blogroll fragments want a teaser,
// not the whole post.
const maxSummaryRunes = 600

// Options controls how articles are selected from the fetched feeds.
type Options struct {
	PerSource int       // most recent entries taken from each feed
	MaxTotal  int       // articles kept overall after sorting, 0 = no cap
	Before    time.Time // only include articles at or before this instant; zero = no cutoff
}

// FromFeeds flattens fetched feeds into a single article list, newest first.
// Entries missing a link, title or date are skipped with a log line rather
// than failing the feed. Relative links are resolved against the feed URL's
// origin.
func FromFeeds(results []fetcher.Result, opts Options) []domain.Article {
	var all []domain.Article
	for _, r := range results {
		all = append(all, fromFeed(r, opts)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if opts.MaxTotal > 0 && len(all) > opts.MaxTotal {
		all = all[:opts.MaxTotal]
	}
	return all
}

// fromFeed extracts up to opts.PerSource articles from one fetched feed.
func fromFeed(r fetcher.Result, opts Options) []domain.Article {
	base, err := url.Parse(r.URL)
	if err != nil {
		// The orchestrator fetched this URL, so it can't be unparseable.
		return nil
	}

	sourceTitle := r.Feed.Title
	if sourceTitle == "" {
		sourceTitle = base.Host
	}
	sourceLink := resolve(r.Feed.Link, base)
	if sourceLink == "" {
		// Feed without a site link; point at the origin rather than dropping
		// the whole source.
		sourceLink = base.Scheme + "://" + base.Host
		logging.L.Debugf("%s: feed has no site link, using origin", r.URL)
	}

	var picked []domain.Article
	for _, item := range r.Feed.Items {
		if opts.PerSource > 0 && len(picked) >= opts.PerSource {
			break
		}
		link := resolve(item.Link, base)
		ts := entryTime(item)
		if link == "" || item.Title == "" || ts == nil {
			logging.L.Warnf("%s: skipping entry %q: entries need a link, a title and a date", r.URL, item.Title)
			continue
		}
		if !opts.Before.IsZero() && ts.After(opts.Before) {
			continue
		}
		picked = append(picked, domain.Article{
			Link:        link,
			Title:       item.Title,
			Summary:     summarize(item),
			SourceLink:  sourceLink,
			SourceTitle: sourceTitle,
			Timestamp:   *ts,
		})
	}
	return picked
}

// summarize picks the entry's summary text, falling back to its content
// element, and sanitizes it to plain text. Entries that ship a whole HTML
// page as content go through readability instead of plain tag stripping.
func summarize(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	if raw == "" {
		return ""
	}
	text := content.Sanitize(raw)
	if text == "" && item.Content != "" {
		text = content.ExtractText(item.Content)
	}
	return content.Truncate(text, maxSummaryRunes)
}

// entryTime returns the published time, or the updated time when the feed
// has no published element.
func entryTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// resolve parses raw and resolves it against base when relative. Returns ""
// for empty or unparseable values.
func resolve(raw string, base *url.URL) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		u = base.ResolveReference(u)
	}
	return u.String()
}
