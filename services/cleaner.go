package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"auction-scraper/models"
	"auction-scraper/utils"
)

// yearRegexp captures a plausible model year.
var yearRegexp = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// Cleaner turns raw extracted text into finalized AuctionRecords.
// It keeps one output record per input record, in the same order.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises every raw record. Cost fields become numeric when they
// parse and nil otherwise; no record is dropped or reordered.
func (c *Cleaner) Clean(raw []*models.RawRecord) []*models.AuctionRecord {
	result := make([]*models.AuctionRecord, 0, len(raw))
	unparsed := 0

	for _, r := range raw {
		if r == nil {
			r = &models.RawRecord{}
		}
		rec := &models.AuctionRecord{
			StockNo:     normaliseText(r.StockNo),
			Make:        normaliseText(r.Make),
			Model:       normaliseText(r.Model),
			Year:        parseYear(r.Year),
			AuctionDate: normaliseText(r.AuctionDate),
			SourceURL:   strings.TrimSpace(r.SourceURL),
			ACVCost:     parseCost(r.ACVCost),
			RepairCost:  parseCost(r.RepairCost),
		}
		if (rec.ACVCost == nil && strings.TrimSpace(r.ACVCost) != "") ||
			(rec.RepairCost == nil && strings.TrimSpace(r.RepairCost) != "") {
			unparsed++
			c.logger.Debug("[cleaner] Unparseable cost for %s: acv=%q repair=%q",
				rec.SourceURL, r.ACVCost, r.RepairCost)
		}
		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Finalized %d records (%d with unparseable costs left empty)",
		len(result), unparsed)
	return result
}

// parseCost strips currency symbols, codes and thousands separators and
// parses what is left. "$12,345.67" → 12345.67, "N/A" → nil.
func parseCost(raw string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimFunc(cleaned, unicode.IsLetter)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseYear reduces the text to a 4-digit year when one is present.
func parseYear(raw string) string {
	if m := yearRegexp.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return normaliseText(raw)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
