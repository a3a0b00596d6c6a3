package models

import "strconv"

// RawRecord holds the text extracted from one vehicle detail page, before any
// normalisation. Every field except SourceURL may be empty.
type RawRecord struct {
	StockNo     string
	Make        string
	Model       string
	Year        string
	AuctionDate string
	SourceURL   string
	ACVCost     string
	RepairCost  string
}

// AuctionRecord is the finalized row written to CSV and PostgreSQL.
// Cost fields are nil when the page did not carry a parseable amount.
type AuctionRecord struct {
	ID          int64
	StockNo     string
	Make        string
	Model       string
	Year        string
	AuctionDate string
	SourceURL   string
	ACVCost     *float64
	RepairCost  *float64
}

// PageStatus describes how much of a page could be extracted.
type PageStatus string

const (
	StatusComplete PageStatus = "complete"
	StatusPartial  PageStatus = "partial"
	StatusFailed   PageStatus = "failed"
)

// PageResult is the outcome of processing one input URL.
// Record is never nil: a failed fetch still carries SourceURL.
type PageResult struct {
	Record *RawRecord
	Status PageStatus
	Err    error
}

// SummaryReport holds the statistics printed at the end of a run.
type SummaryReport struct {
	TotalRows     int
	CompleteRows  int
	PartialRows   int
	FailedRows    int
	FieldFill     map[string]int
	AverageACV    float64
	MinACV        float64
	MaxACV        float64
	AverageRepair float64
	MinRepair     float64
	MaxRepair     float64
	WorstRatio    *AuctionRecord
}

// Field names, also used as CSV column headers.
const (
	FieldStockNo     = "stock_no"
	FieldMake        = "make"
	FieldModel       = "model"
	FieldYear        = "year"
	FieldAuctionDate = "auction_date"
	FieldSourceURL   = "source_url"
	FieldACVCost     = "acv_cost"
	FieldRepairCost  = "repair_cost"
)

// Fields is the declared column order.
var Fields = []string{
	FieldStockNo, FieldMake, FieldModel, FieldYear, FieldAuctionDate, FieldSourceURL, FieldACVCost, FieldRepairCost,
}

// Get returns the raw value of a named field, or "" for unknown names.
func (r *RawRecord) Get(field string) string {
	switch field {
	case FieldStockNo:
		return r.StockNo
	case FieldMake:
		return r.Make
	case FieldModel:
		return r.Model
	case FieldYear:
		return r.Year
	case FieldAuctionDate:
		return r.AuctionDate
	case FieldSourceURL:
		return r.SourceURL
	case FieldACVCost:
		return r.ACVCost
	case FieldRepairCost:
		return r.RepairCost
	}
	return ""
}

// Set assigns a named field. Unknown names are ignored.
func (r *RawRecord) Set(field, value string) {
	switch field {
	case FieldStockNo:
		r.StockNo = value
	case FieldMake:
		r.Make = value
	case FieldModel:
		r.Model = value
	case FieldYear:
		r.Year = value
	case FieldAuctionDate:
		r.AuctionDate = value
	case FieldSourceURL:
		r.SourceURL = value
	case FieldACVCost:
		r.ACVCost = value
	case FieldRepairCost:
		r.RepairCost = value
	}
}

// Value renders a named field as CSV cell text. Costs use two decimals and
// are empty when nil.
func (r *AuctionRecord) Value(field string) string {
	switch field {
	case FieldStockNo:
		return r.StockNo
	case FieldMake:
		return r.Make
	case FieldModel:
		return r.Model
	case FieldYear:
		return r.Year
	case FieldAuctionDate:
		return r.AuctionDate
	case FieldSourceURL:
		return r.SourceURL
	case FieldACVCost:
		return formatCost(r.ACVCost)
	case FieldRepairCost:
		return formatCost(r.RepairCost)
	}
	return ""
}

func formatCost(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
