package domain

import "time"

// Article is one entry of the rendered ring: a single post from one of the
// aggregated feeds, with enough context to link back to its source blog.
type Article struct {
	Link        string
	Title       string
	Summary     string
	SourceLink  string
	SourceTitle string
	Timestamp   time.Time
}
