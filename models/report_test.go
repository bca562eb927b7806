package models

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

// fourProducts builds a set with quantities [5,20,1,8], sales
// [100,300,50,200] and, when withCost is set, unit costs [10,5,20,10].
func fourProducts(t *testing.T, withCost bool) *AggregateSet {
	t.Helper()
	rows := makeRows([][]string{
		{"alpha", "5", "100", "10"},
		{"bravo", "20", "300", "5"},
		{"charlie", "1", "50", "20"},
		{"delta", "8", "200", "10"},
	})
	set, err := Aggregate(testHeaders, rows, testMapping(withCost))
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	if set.Len() != 4 {
		t.Fatalf("fixture expected 4 aggregates, got %d", set.Len())
	}
	return set
}

func TestRunReport_FastMoving(t *testing.T) {
	set := fourProducts(t, false)
	report, err := RunReport(set, ReportFastMoving, ReportParams{ItemCount: 2})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	if len(report.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(report.Records))
	}
	if !report.Records[0].Quantity.Equal(decimal.NewFromInt(20)) ||
		!report.Records[1].Quantity.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected quantities [20 8], got [%s %s]",
			report.Records[0].Quantity, report.Records[1].Quantity)
	}
}

func TestRunReport_SlowMoving(t *testing.T) {
	set := fourProducts(t, false)
	report, err := RunReport(set, ReportSlowMoving, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	// Default item count clamps to the aggregate count.
	if len(report.Records) != 4 {
		t.Fatalf("expected all 4 records, got %d", len(report.Records))
	}
	if !report.Records[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected slowest mover first (quantity 1), got %s", report.Records[0].Quantity)
	}
}

func TestRunReport_InvalidItemCount(t *testing.T) {
	set := fourProducts(t, false)
	for _, items := range []int{-1, 5, 100} {
		_, err := RunReport(set, ReportFastMoving, ReportParams{ItemCount: items})
		if !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("items=%d: expected ErrInvalidParameter, got %v", items, err)
		}
	}
}

func TestRunReport_Contribution(t *testing.T) {
	rows := makeRows([][]string{
		{"alpha", "1", "100"},
		{"bravo", "1", "300"},
	})
	set, err := Aggregate(testHeaders, rows, testMapping(false))
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	report, err := RunReport(set, ReportContribution, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	first := report.Records[0].ContributionPercent
	second := report.Records[1].ContributionPercent
	if first == nil || second == nil {
		t.Fatal("expected contribution percent on every record")
	}
	if !first.Equal(decimal.NewFromInt(75)) || !second.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected contributions [75 25], got [%s %s]", first, second)
	}
	if !first.Add(*second).Equal(decimal.NewFromInt(100)) {
		t.Fatalf("contributions should sum to 100, got %s", first.Add(*second))
	}
}

func TestRunReport_ContributionZeroSales(t *testing.T) {
	rows := makeRows([][]string{
		{"alpha", "1", "0"},
		{"bravo", "1", "0"},
	})
	set, err := Aggregate(testHeaders, rows, testMapping(false))
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}
	report, err := RunReport(set, ReportContribution, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	for _, rec := range report.Records {
		if !rec.ContributionPercent.IsZero() {
			t.Fatalf("expected 0%% contribution with zero total sales, got %s", rec.ContributionPercent)
		}
	}
}

func TestRunReport_ProfitabilityRequiresCost(t *testing.T) {
	set := fourProducts(t, false)
	if _, err := RunReport(set, ReportProfitability, ReportParams{}); !errors.Is(err, ErrMissingCostMapping) {
		t.Fatalf("expected ErrMissingCostMapping, got %v", err)
	}
	if _, err := RunReport(set, ReportPriceVsSales, ReportParams{}); !errors.Is(err, ErrMissingCostMapping) {
		t.Fatalf("expected ErrMissingCostMapping for price-vs-sales, got %v", err)
	}
}

func TestRunReport_Profitability(t *testing.T) {
	set := fourProducts(t, true)
	report, err := RunReport(set, ReportProfitability, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	// Profits: alpha 100-50=50, bravo 300-100=200, charlie 50-20=30, delta 200-80=120.
	if report.Records[0].Description != "Bravo" {
		t.Fatalf("expected most profitable product first, got %q", report.Records[0].Description)
	}
	if !report.Records[0].Profit.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected profit 200, got %s", report.Records[0].Profit)
	}
	expectedMargin := decimal.NewFromInt(200).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(300))
	if !report.Records[0].ProfitMargin.Equal(expectedMargin) {
		t.Fatalf("expected margin %s, got %s", expectedMargin, report.Records[0].ProfitMargin)
	}
}

func TestRunReport_PriceVsSales(t *testing.T) {
	set := fourProducts(t, true)
	report, err := RunReport(set, ReportPriceVsSales, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	if report.Records[0].Description != "Bravo" {
		t.Fatalf("expected highest-sales product first, got %q", report.Records[0].Description)
	}
	if !report.Records[0].UnitPrice.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected unit price 300/20=15, got %s", report.Records[0].UnitPrice)
	}
}

func TestRunReport_Idempotent(t *testing.T) {
	set := fourProducts(t, true)
	first, err := RunReport(set, ReportProfitability, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	second, err := RunReport(set, ReportProfitability, ReportParams{})
	if err != nil {
		t.Fatalf("RunReport error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated RunReport calls with identical inputs should yield identical reports")
	}
}

func TestParseReportKind(t *testing.T) {
	for _, valid := range []string{"fast-moving", "Slow-Moving", " contribution ", "profitability", "price-vs-sales"} {
		if _, err := ParseReportKind(valid); err != nil {
			t.Fatalf("ParseReportKind(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "growth-rate", "unknown"} {
		if _, err := ParseReportKind(invalid); !errors.Is(err, ErrUnknownReportKind) {
			t.Fatalf("ParseReportKind(%q) expected ErrUnknownReportKind, got %v", invalid, err)
		}
	}
}
