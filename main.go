package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"auction-scraper/config"
	"auction-scraper/models"
	"auction-scraper/scraper"
	"auction-scraper/scraper/iaai"
	"auction-scraper/services"
	"auction-scraper/storage"
	"auction-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetDebug(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Info("=== Auction Scraper starting ===")
	logger.Info("Config: urls=%s | output=%s | timeout=%dms | wait=%s | rate=%dms",
		cfg.URLsPath, cfg.OutputPath, cfg.TimeoutMs, cfg.WaitStrategy, cfg.RateLimitMs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := iaai.New(cfg, logger)
	result, err := scraper.Run(ctx, cfg, browser, logger)
	browser.Close()
	if err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			mirror(pgWriter, logger, result.Records)
			pgWriter.Close()
		}
	}

	summary := services.NewSummaryService(logger, os.Stdout)
	summary.Print(summary.Generate(result.Records, result.Results))

	fmt.Printf("  Done. %d rows → %s\n\n", len(result.Records), cfg.OutputPath)
}

// mirror stores the finalized records in the database. Failures are logged
// only: the CSV file is the record of the run.
func mirror(store storage.RecordStore, logger *utils.Logger, records []*models.AuctionRecord) {
	if err := store.Write(records); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return
	}

	stored, err := store.FetchAll()
	if err != nil {
		logger.Error("Failed to read back records from PostgreSQL: %v", err)
		return
	}
	logger.Info("%d records stored in PostgreSQL (table: auction_records)", len(stored))
}
