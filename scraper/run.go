package scraper

import (
	"context"
	"fmt"

	"auction-scraper/config"
	"auction-scraper/models"
	"auction-scraper/services"
	"auction-scraper/storage"
	"auction-scraper/utils"
)

// RunResult is what a completed run produced.
type RunResult struct {
	URLs    []string
	Results []*models.PageResult
	Records []*models.AuctionRecord
}

// Run executes the whole pipeline: read the URL list, fetch and extract each
// page in order, finalize the rows and write the CSV. Only a missing URL
// list, a cancelled context or a failed write abort the run; in those cases
// the output file is left untouched.
func Run(ctx context.Context, cfg *config.Config, fetcher PageFetcher, logger *utils.Logger) (*RunResult, error) {
	urls, err := storage.ReadURLs(cfg.URLsPath)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		logger.Warn("[pipeline] %s contains no URLs, writing header only", cfg.URLsPath)
	}

	seen := utils.NewURLSet()
	for _, u := range urls {
		if !seen.Add(u) {
			logger.Warn("[pipeline] Duplicate URL in input, it will produce another row: %s", u)
		}
	}
	logger.Info("[pipeline] Loaded %d URLs (%d unique) from %s", len(urls), seen.Size(), cfg.URLsPath)

	runner := NewRunner(fetcher, services.NewExtractor(logger), utils.NewPacer(cfg.RateLimitMs), logger)
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled after %d of %d URLs: %w", i, len(urls), err)
		}
		res := runner.Process(ctx, u)
		logger.Info("[pipeline] %d/%d %s: %s", i+1, len(urls), res.Status, u)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	records := services.NewCleaner(logger).Clean(runner.Records())

	writer := storage.NewCSVWriter(cfg.OutputPath, cfg.OutputColumns)
	if err := writer.Write(records); err != nil {
		return nil, err
	}
	logger.Info("[pipeline] Wrote %d rows to %s", len(records), writer.Path())

	return &RunResult{URLs: urls, Results: runner.Results(), Records: records}, nil
}
