package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"auction-scraper/models"
)

// ErrOutputWrite is returned when the output file cannot be written.
var ErrOutputWrite = errors.New("output write failed")

// CSVWriter writes finalized auction records to a CSV file.
// The destination is only replaced once the whole file has been written.
type CSVWriter struct {
	path    string
	columns []string
}

// NewCSVWriter creates a writer for path using the given column order.
// An empty column list means models.Fields.
func NewCSVWriter(path string, columns []string) *CSVWriter {
	if len(columns) == 0 {
		columns = models.Fields
	}
	return &CSVWriter{path: path, columns: columns}
}

// Path returns the destination file.
func (c *CSVWriter) Path() string { return c.path }

// Write serialises records with a header row, overwriting any existing file.
// Intermediate directories are created automatically.
func (c *CSVWriter) Write(records []*models.AuctionRecord) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w: %w", ErrOutputWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("csv: create temp file in %q: %w: %w", dir, ErrOutputWrite, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(c.columns); err != nil {
		return fmt.Errorf("csv: write header: %w: %w", ErrOutputWrite, err)
	}

	row := make([]string, len(c.columns))
	for _, r := range records {
		for i, col := range c.columns {
			row[i] = r.Value(col)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w: %w", ErrOutputWrite, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w: %w", ErrOutputWrite, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fmt.Errorf("csv: chmod: %w: %w", ErrOutputWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close: %w: %w", ErrOutputWrite, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return fmt.Errorf("csv: replace %q: %w: %w", c.path, ErrOutputWrite, err)
	}
	committed = true
	return nil
}
