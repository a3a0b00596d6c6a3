package storage

import "auction-scraper/models"

// RecordWriter is the interface any storage backend for finalized records must satisfy.
type RecordWriter interface {
	Write(records []*models.AuctionRecord) error
}

// RecordStore is a backend that can also read records back for reporting.
type RecordStore interface {
	RecordWriter
	FetchAll() ([]*models.AuctionRecord, error)
	Close() error
}

var (
	_ RecordWriter = (*CSVWriter)(nil)
	_ RecordStore  = (*PostgresWriter)(nil)
)
