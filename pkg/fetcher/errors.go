package fetcher

import "fmt"

// EmptyBodyError reports a response that carried a usable status but no
// usable body, including a 304 with nothing cached to substitute.
type EmptyBodyError struct {
	URL string
}

func (e *EmptyBodyError) Error() string {
	return fmt.Sprintf("feed at %s returned no body", e.URL)
}

// RateLimitedError reports a 429 response with no cached body to fall back on.
type RateLimitedError struct {
	URL string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("feed at %s is rate limited (HTTP 429) and nothing is cached", e.URL)
}

// UnexpectedStatusError reports any response status outside {200, 304, 429}.
type UnexpectedStatusError struct {
	URL    string
	Status int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("feed at %s returned unexpected status HTTP %d", e.URL, e.Status)
}
