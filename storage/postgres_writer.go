package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"auction-scraper/models"
)

const insertColumns = 8

// sqlDB is the part of *sql.DB the writer uses.
type sqlDB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

// PostgresWriter mirrors the finalized records of the latest run into PostgreSQL.
type PostgresWriter struct {
	db sqlDB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS auction_records (
			id           SERIAL PRIMARY KEY,
			stock_no     TEXT          NOT NULL DEFAULT '',
			make         TEXT          NOT NULL DEFAULT '',
			model        TEXT          NOT NULL DEFAULT '',
			year         VARCHAR(16)   NOT NULL DEFAULT '',
			auction_date TEXT          NOT NULL DEFAULT '',
			source_url   TEXT          UNIQUE NOT NULL,
			acv_cost     NUMERIC(12,2),
			repair_cost  NUMERIC(12,2),
			created_at   TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_auction_records_stock_no ON auction_records(stock_no);
		CREATE INDEX IF NOT EXISTS idx_auction_records_make     ON auction_records(make);
	`)
	return err
}

// Clear deletes all existing records from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM auction_records")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the table contents with records, in batches. Records whose
// source_url was already inserted in this run are skipped.
func (pw *PostgresWriter) Write(records []*models.AuctionRecord) error {
	if err := pw.Clear(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := insertQuery(records[i:end])
		if _, err := pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

func insertQuery(batch []*models.AuctionRecord) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			r.StockNo, r.Make, r.Model, r.Year, r.AuctionDate, r.SourceURL, nullable(r.ACVCost), nullable(r.RepairCost))
	}

	query := fmt.Sprintf(`
		INSERT INTO auction_records (stock_no, make, model, year, auction_date, source_url, acv_cost, repair_cost)
		VALUES %s
		ON CONFLICT (source_url) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored records in insertion order.
func (pw *PostgresWriter) FetchAll() ([]*models.AuctionRecord, error) {
	rows, err := pw.db.Query(`
		SELECT id, stock_no, make, model, year, auction_date, source_url, acv_cost, repair_cost
		FROM auction_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.AuctionRecord
	for rows.Next() {
		r := &models.AuctionRecord{}
		var acv, repair sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &r.StockNo, &r.Make, &r.Model, &r.Year,
			&r.AuctionDate, &r.SourceURL, &acv, &repair,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if acv.Valid {
			r.ACVCost = &acv.Float64
		}
		if repair.Valid {
			r.RepairCost = &repair.Float64
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
