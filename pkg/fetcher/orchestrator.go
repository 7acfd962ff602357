package fetcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"webring/pkg/logging"
)

// maxConcurrentFetches bounds the number of in-flight requests. The design
// needs no cap, but an upper bound keeps file descriptors and sockets sane
// when someone feeds in a very large URL list.
const maxConcurrentFetches = 32

// outcome carries one finished unit of work from a fetch goroutine to the
// aggregating loop.
type outcome struct {
	result  *Result
	failure *Failure
}

// FetchAll runs the fetch protocol concurrently across urls, one unit of
// work per URL against the shared cache store. Every unit runs to
// completion: a failing or slow feed never aborts the batch, it is recorded
// and reported as the other units keep going. Progress is logged as units
// complete. Results arrive in completion order; ordering across URLs is
// meaningless here because articles are sorted by timestamp downstream.
//
// An empty result set is a valid outcome at this layer; callers check for
// "no URLs at all" before orchestration starts.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Result, []Failure) {
	outcomes := make(chan outcome, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			res, err := f.Fetch(ctx, u)
			if err != nil {
				outcomes <- outcome{failure: &Failure{URL: u, Err: err}}
				return nil
			}
			outcomes <- outcome{result: res}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(outcomes)
	}()

	var (
		results  []Result
		failures []Failure
	)
	total := len(urls)
	done := 0
	for o := range outcomes {
		done++
		switch {
		case o.failure != nil:
			failures = append(failures, *o.failure)
			logging.L.Warnf("[%d/%d] %s: %v", done, total, o.failure.URL, o.failure.Err)
		case o.result.FromCache:
			results = append(results, *o.result)
			logging.L.Infof("[%d/%d] %s: served from cache", done, total, o.result.URL)
		default:
			results = append(results, *o.result)
			logging.L.Infof("[%d/%d] %s: fetched", done, total, o.result.URL)
		}
	}
	return results, failures
}
