package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type ReportKind string

const (
	ReportFastMoving    ReportKind = "fast-moving"
	ReportSlowMoving    ReportKind = "slow-moving"
	ReportContribution  ReportKind = "contribution"
	ReportProfitability ReportKind = "profitability"
	ReportPriceVsSales  ReportKind = "price-vs-sales"
)

// DefaultReportItems is the item count used by the mover reports when the
// caller does not supply one.
const DefaultReportItems = 10

func ParseReportKind(s string) (ReportKind, error) {
	kind := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case ReportFastMoving, ReportSlowMoving, ReportContribution, ReportProfitability, ReportPriceVsSales:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportKind, s)
}

// RequiresCost reports whether the kind needs a cost-mapped batch.
func (k ReportKind) RequiresCost() bool {
	return k == ReportProfitability || k == ReportPriceVsSales
}

type ReportParams struct {
	// ItemCount limits the mover reports. Zero means DefaultReportItems
	// (clamped to the aggregate count); an explicit out-of-range value is
	// rejected.
	ItemCount int
}

// ReportRecord is one display-ready report row. Derived fields are set
// only when the report kind defines them.
type ReportRecord struct {
	Description         string           `json:"description"`
	Quantity            decimal.Decimal  `json:"quantity"`
	TotalSales          decimal.Decimal  `json:"totalSales"`
	TotalCost           *decimal.Decimal `json:"totalCost,omitempty"`
	Profit              *decimal.Decimal `json:"profit,omitempty"`
	ProfitMargin        *decimal.Decimal `json:"profitMarginPercent,omitempty"`
	ContributionPercent *decimal.Decimal `json:"contributionPercent,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unitPrice,omitempty"`
}

// Report is an ordered, metric-annotated record set for one report run.
type Report struct {
	Kind    ReportKind     `json:"kind"`
	Columns []string       `json:"columns"`
	Records []ReportRecord `json:"records"`
}

// RunReport derives a report from an aggregate set. It is a pure function
// of its inputs: the set is never modified and repeated runs with the same
// inputs yield identical output.
func RunReport(set *AggregateSet, kind ReportKind, params ReportParams) (*Report, error) {
	if kind.RequiresCost() && !set.CostMapped() {
		return nil, ErrMissingCostMapping
	}

	items := set.Items()
	columns := []string{"Description", "Quantity", "Total Sales"}
	var records []ReportRecord

	switch kind {
	case ReportFastMoving, ReportSlowMoving:
		n, err := resolveItemCount(params.ItemCount, len(items))
		if err != nil {
			return nil, err
		}
		records = baseRecords(items)
		asc := kind == ReportSlowMoving
		sort.SliceStable(records, func(i, j int) bool {
			if asc {
				return records[i].Quantity.Cmp(records[j].Quantity) < 0
			}
			return records[i].Quantity.Cmp(records[j].Quantity) > 0
		})
		records = records[:n]

	case ReportContribution:
		total := decimal.Zero
		for _, a := range items {
			total = total.Add(a.TotalSales)
		}
		records = baseRecords(items)
		for i, a := range items {
			percent := decimal.Zero
			if !total.IsZero() {
				percent = a.TotalSales.Mul(decimal.NewFromInt(100)).Div(total)
			}
			records[i].ContributionPercent = dptr(percent)
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ContributionPercent.Cmp(*records[j].ContributionPercent) > 0
		})
		columns = append(columns, "Contribution %")

	case ReportProfitability:
		records = baseRecords(items)
		for i, a := range items {
			records[i].TotalCost = dptr(a.TotalCost)
			records[i].Profit = dptr(a.Profit())
			records[i].ProfitMargin = dptr(a.ProfitMargin())
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Profit.Cmp(*records[j].Profit) > 0
		})
		columns = append(columns, "Total Cost", "Profit", "Profit Margin %")

	case ReportPriceVsSales:
		records = baseRecords(items)
		for i, a := range items {
			records[i].UnitPrice = dptr(a.UnitPrice())
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].TotalSales.Cmp(records[j].TotalSales) > 0
		})
		columns = append(columns, "Unit Price")

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportKind, kind)
	}

	return &Report{Kind: kind, Columns: columns, Records: records}, nil
}

func resolveItemCount(requested, total int) (int, error) {
	if requested == 0 {
		n := DefaultReportItems
		if n > total {
			n = total
		}
		return n, nil
	}
	if requested < 1 || requested > total {
		return 0, fmt.Errorf("%w: item count must be between 1 and %d", ErrInvalidParameter, total)
	}
	return requested, nil
}

func baseRecords(items []*ProductAggregate) []ReportRecord {
	records := make([]ReportRecord, len(items))
	for i, a := range items {
		records[i] = ReportRecord{
			Description: a.Description,
			Quantity:    a.Quantity,
			TotalSales:  a.TotalSales,
		}
	}
	return records
}

func dptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
