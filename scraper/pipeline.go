package scraper

import (
	"context"
	"errors"
	"fmt"

	"auction-scraper/models"
	"auction-scraper/services"
	"auction-scraper/utils"
)

var (
	// ErrNavigationTimeout means every navigation attempt ran out of time.
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrNetwork covers every other fetch failure.
	ErrNetwork = errors.New("network error")
)

// PageFetcher returns the rendered HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ClassifyFetchError wraps err in ErrNavigationTimeout or ErrNetwork.
// Errors that are already classified are returned unchanged.
func ClassifyFetchError(err error) error {
	if err == nil || errors.Is(err, ErrNavigationTimeout) || errors.Is(err, ErrNetwork) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// Runner fetches and extracts one URL at a time and accumulates the results
// in input order.
type Runner struct {
	fetcher   PageFetcher
	extractor *services.Extractor
	pacer     *utils.Pacer
	logger    *utils.Logger

	results []*models.PageResult
}

// NewRunner creates a Runner. pacer may be nil to disable pacing.
func NewRunner(fetcher PageFetcher, extractor *services.Extractor, pacer *utils.Pacer, logger *utils.Logger) *Runner {
	return &Runner{
		fetcher:   fetcher,
		extractor: extractor,
		pacer:     pacer,
		logger:    logger,
		results:   make([]*models.PageResult, 0),
	}
}

// Process fetches url, extracts its fields and appends exactly one result.
// A fetch failure is recorded on the result, never returned: the row keeps
// only its SourceURL.
func (r *Runner) Process(ctx context.Context, url string) *models.PageResult {
	res := r.process(ctx, url)
	r.results = append(r.results, res)
	return res
}

func (r *Runner) process(ctx context.Context, url string) *models.PageResult {
	if r.pacer != nil {
		if err := r.pacer.Wait(ctx); err != nil {
			return failed(url, ClassifyFetchError(err))
		}
	}

	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		err = ClassifyFetchError(err)
		r.logger.Warn("[pipeline] %s: %v (row kept with empty fields)", url, err)
		return failed(url, err)
	}

	rec := r.extractor.Extract(html, url)
	status := models.StatusComplete
	for _, f := range models.Fields {
		if rec.Get(f) == "" {
			status = models.StatusPartial
			break
		}
	}
	r.logger.Debug("[pipeline] %s: %s (stock %q)", url, status, rec.StockNo)
	return &models.PageResult{Record: rec, Status: status}
}

func failed(url string, err error) *models.PageResult {
	return &models.PageResult{
		Record: &models.RawRecord{SourceURL: url},
		Status: models.StatusFailed,
		Err:    err,
	}
}

// Results returns the accumulated results in processing order.
func (r *Runner) Results() []*models.PageResult {
	return r.results
}

// Records returns the raw record of every result in processing order.
func (r *Runner) Records() []*models.RawRecord {
	out := make([]*models.RawRecord, len(r.results))
	for i, res := range r.results {
		out[i] = res.Record
	}
	return out
}
