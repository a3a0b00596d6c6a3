package services

import (
	"testing"

	"auction-scraper/models"
)

func TestCleanerParseCost(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$12,345.67", 12345.67, true},
		{"12345.67", 12345.67, true},
		{"  $500 ", 500, true},
		{"1,200 CAD", 1200, true},
		{"USD 99.5", 99.5, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"call for price", 0, false},
		{"12-34", 0, false},
	}

	for _, tt := range tests {
		got := parseCost(tt.raw)
		if !tt.ok {
			if got != nil {
				t.Errorf("parseCost(%q) = %v; want nil", tt.raw, *got)
			}
			continue
		}
		if got == nil {
			t.Errorf("parseCost(%q) = nil; want %.2f", tt.raw, tt.want)
			continue
		}
		if *got != tt.want {
			t.Errorf("parseCost(%q) = %.2f; want %.2f", tt.raw, *got, tt.want)
		}
	}
}

func TestCleanerParseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2018", "2018"},
		{" Model year 1999 ", "1999"},
		{"12018", "12018"},
		{"unknown   year", "unknown year"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := parseYear(tt.raw); got != tt.want {
			t.Errorf("parseYear(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerKeepsCountAndOrder(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawRecord{
		{SourceURL: "https://example.com/b", StockNo: " 2 ", ACVCost: "N/A"},
		{SourceURL: "https://example.com/a", StockNo: "1"},
		{SourceURL: "https://example.com/a", StockNo: "1"},
		nil,
		{SourceURL: "https://example.com/c"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != len(raw) {
		t.Fatalf("expected %d records, got %d", len(raw), len(cleaned))
	}

	wantURLs := []string{"https://example.com/b", "https://example.com/a", "https://example.com/a", "", "https://example.com/c"}
	for i, rec := range cleaned {
		if rec.SourceURL != wantURLs[i] {
			t.Errorf("row %d: SourceURL %q; want %q", i, rec.SourceURL, wantURLs[i])
		}
	}
	if cleaned[0].StockNo != "2" {
		t.Errorf("StockNo not trimmed: %q", cleaned[0].StockNo)
	}
	if cleaned[0].ACVCost != nil {
		t.Errorf("unparseable ACV should be nil, got %v", *cleaned[0].ACVCost)
	}
}

func TestCleanerNormalisesText(t *testing.T) {
	c := NewCleaner(newTestLogger())
	cleaned := c.Clean([]*models.RawRecord{{
		Make:        "  HONDA ",
		Model:       "CIVIC\n\t LX",
		AuctionDate: " Tue  Oct 21 ",
		ACVCost:     "$12,345.67",
		RepairCost:  "4100.00",
	}})

	rec := cleaned[0]
	if rec.Make != "HONDA" || rec.Model != "CIVIC LX" || rec.AuctionDate != "Tue Oct 21" {
		t.Errorf("text not normalised: %+v", rec)
	}
	if got := rec.Value(models.FieldACVCost); got != "12345.67" {
		t.Errorf("ACV cell: got %q, want 12345.67", got)
	}
	if got := rec.Value(models.FieldRepairCost); got != "4100.00" {
		t.Errorf("Repair cell: got %q, want 4100.00", got)
	}
}
