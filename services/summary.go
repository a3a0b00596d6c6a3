package services

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"auction-scraper/models"
	"auction-scraper/utils"
)

// SummaryService computes and prints run statistics.
type SummaryService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewSummaryService(logger *utils.Logger, out io.Writer) *SummaryService {
	return &SummaryService{logger: logger, out: out}
}

func (s *SummaryService) Generate(records []*models.AuctionRecord, results []*models.PageResult) *models.SummaryReport {
	report := &models.SummaryReport{
		FieldFill: make(map[string]int, len(models.Fields)),
	}
	report.TotalRows = len(records)

	for _, r := range results {
		switch r.Status {
		case models.StatusComplete:
			report.CompleteRows++
		case models.StatusPartial:
			report.PartialRows++
		case models.StatusFailed:
			report.FailedRows++
		}
	}

	var acv, repair []float64
	bestRatio := 0.0
	for _, rec := range records {
		for _, f := range models.Fields {
			if rec.Value(f) != "" {
				report.FieldFill[f]++
			}
		}
		if rec.ACVCost != nil {
			acv = append(acv, *rec.ACVCost)
		}
		if rec.RepairCost != nil {
			repair = append(repair, *rec.RepairCost)
		}
		if rec.ACVCost != nil && rec.RepairCost != nil && *rec.ACVCost > 0 {
			if ratio := *rec.RepairCost / *rec.ACVCost; ratio > bestRatio {
				bestRatio = ratio
				report.WorstRatio = rec
			}
		}
	}

	report.AverageACV, report.MinACV, report.MaxACV = stats(acv)
	report.AverageRepair, report.MinRepair, report.MaxRepair = stats(repair)

	s.logger.Debug("[summary] %d rows: %d complete, %d partial, %d failed",
		report.TotalRows, report.CompleteRows, report.PartialRows, report.FailedRows)
	return report
}

func (s *SummaryService) Print(r *models.SummaryReport) {
	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetTitle("Auction scrape summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Rows written", r.TotalRows},
		{"Complete pages", r.CompleteRows},
		{"Partial pages", r.PartialRows},
		{"Failed pages", r.FailedRows},
	})
	t.AppendSeparator()
	for _, f := range models.Fields {
		t.AppendRow(table.Row{"Filled " + f, fmt.Sprintf("%d/%d", r.FieldFill[f], r.TotalRows)})
	}
	t.AppendSeparator()
	if r.FieldFill[models.FieldACVCost] > 0 {
		t.AppendRow(table.Row{"ACV avg / min / max", fmt.Sprintf("$%.2f / $%.2f / $%.2f", r.AverageACV, r.MinACV, r.MaxACV)})
	} else {
		t.AppendRow(table.Row{"ACV avg / min / max", "no data"})
	}
	if r.FieldFill[models.FieldRepairCost] > 0 {
		t.AppendRow(table.Row{"Repair avg / min / max", fmt.Sprintf("$%.2f / $%.2f / $%.2f", r.AverageRepair, r.MinRepair, r.MaxRepair)})
	} else {
		t.AppendRow(table.Row{"Repair avg / min / max", "no data"})
	}
	if w := r.WorstRatio; w != nil {
		ratio := 100 * *w.RepairCost / *w.ACVCost
		label := truncate(w.StockNo+" "+w.Make+" "+w.Model, 40)
		t.AppendRow(table.Row{"Highest repair/ACV", fmt.Sprintf("%s (%.0f%%)", label, ratio)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func stats(vals []float64) (avg, lo, hi float64) {
	if len(vals) == 0 {
		return 0, 0, 0
	}
	lo, hi = vals[0], vals[0]
	var total float64
	for _, v := range vals {
		total += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return round2(total / float64(len(vals))), round2(lo), round2(hi)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
