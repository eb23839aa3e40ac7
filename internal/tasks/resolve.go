package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/time/rate"
)

type resolveJob struct {
	index int
	query Query
}

// Resolve searches every query concurrently with rate limiting and progress tracking.
//
// The token is fetched once before the pool starts, so authorization or refresh
// happens on this goroutine only. Results keep input order regardless of completion order.
func (e *PlaylistEngine) Resolve(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	queries []Query,
	opts ResolveOpts,
) (*ResolveResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrInvalidArgument)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no tracks to resolve", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if e.tokens != nil {
		e.sendProgress(progress, authorizeUpdate())
		if _, err := e.tokens.CurrentToken(ctx); err != nil {
			return nil, err
		}
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan resolveJob, len(queries))
	results := make(chan Resolution, len(queries))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.resolveWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, q := range queries {
		jobs <- resolveJob{index: i, query: q}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &ResolveResult{Resolutions: make([]Resolution, len(queries))}
	completed := 0
	for res := range results {
		completed++
		result.Resolutions[res.Index] = res

		switch {
		case res.Err != nil:
			result.Failed++
		case res.Track == nil:
			result.Missed++
		default:
			result.Found++
		}
		e.sendProgress(progress, searchTracksUpdate(completed, len(queries), res))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// resolveWorker searches queries from the jobs channel until it closes or ctx ends.
func (e *PlaylistEngine) resolveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan resolveJob,
	results chan<- Resolution,
) {
	defer wg.Done()

	for job := range jobs {
		res := Resolution{Index: job.index, Query: job.query}

		if err := limiter.Wait(ctx); err != nil {
			res.Err = err
			results <- res
			continue
		}

		res.Track, res.Err = e.catalog.SearchTrack(ctx, job.query.Artist, job.query.Title)
		results <- res
	}
}
