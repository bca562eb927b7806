package models

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/salesinsight_backend/utils"
)

// Two product keys closer than this similarity are treated as the same
// product (spelling variants like "widget a" / "widgett a").
const mergeSimilarityThreshold = 0.8

// ProductAggregate is the merged, summed record for one distinct product
// across all rows of a batch.
type ProductAggregate struct {
	// Key is the normalized lower-case description used only for merge
	// matching.
	Key         string          `json:"-"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalCost   decimal.Decimal `json:"totalCost"`
}

func (a *ProductAggregate) Profit() decimal.Decimal {
	return a.TotalSales.Sub(a.TotalCost)
}

func (a *ProductAggregate) UnitPrice() decimal.Decimal {
	if a.Quantity.IsZero() {
		return decimal.Zero
	}
	return a.TotalSales.Div(a.Quantity)
}

func (a *ProductAggregate) UnitCostAvg() decimal.Decimal {
	if a.Quantity.IsZero() {
		return decimal.Zero
	}
	return a.TotalCost.Div(a.Quantity)
}

func (a *ProductAggregate) ProfitMargin() decimal.Decimal {
	if a.TotalSales.IsZero() {
		return decimal.Zero
	}
	return a.Profit().Mul(decimal.NewFromInt(100)).Div(a.TotalSales)
}

// AggregateSet is the insertion-ordered result of one aggregation pass.
// It is immutable once Aggregate returns it.
type AggregateSet struct {
	items      []*ProductAggregate
	costMapped bool
}

func (s *AggregateSet) Len() int {
	return len(s.items)
}

// CostMapped reports whether the batch was aggregated with a cost column;
// cost-derived reports require it.
func (s *AggregateSet) CostMapped() bool {
	return s.costMapped
}

// Items returns the aggregates in insertion order. The slice is a copy;
// the records themselves are shared and must not be mutated.
func (s *AggregateSet) Items() []*ProductAggregate {
	out := make([]*ProductAggregate, len(s.items))
	copy(out, s.items)
	return out
}

// Aggregate runs one pass over rows, merging near-duplicate product names
// into per-product sums. Quantity and sales cells that fail numeric
// parsing contribute zero. When a cost column is mapped, a row's cost
// contribution is unit cost times row quantity.
//
// Merging picks the FIRST existing key whose similarity to the row's key
// exceeds the merge threshold, in insertion order, not the best one. That
// keeps the pass a simple linear scan and makes the outcome deterministic.
func Aggregate(headers []string, rows []Row, mapping ColumnMapping) (*AggregateSet, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	indexes, err := mapping.columnIndexes(headers)
	if err != nil {
		return nil, err
	}
	costIdx, costMapped := indexes[FieldCost]

	set := &AggregateSet{costMapped: costMapped}
	for _, row := range rows {
		desc := strings.TrimSpace(cellAt(row, indexes[FieldDescription]).String())
		if desc == "" {
			continue
		}
		key := strings.ToLower(desc)
		quantity := cellAt(row, indexes[FieldQuantity]).Decimal()
		sales := cellAt(row, indexes[FieldSales]).Decimal()
		rowCost := decimal.Zero
		if costMapped {
			rowCost = cellAt(row, costIdx).Decimal().Mul(quantity)
		}

		target := set.firstMatch(key)
		if target == nil {
			set.items = append(set.items, &ProductAggregate{
				Key:         key,
				Description: capitalizeFirst(key),
				Quantity:    quantity,
				TotalSales:  sales,
				TotalCost:   rowCost,
			})
			continue
		}
		target.Quantity = target.Quantity.Add(quantity)
		target.TotalSales = target.TotalSales.Add(sales)
		target.TotalCost = target.TotalCost.Add(rowCost)
	}

	if len(set.items) == 0 {
		return nil, ErrEmptyDataset
	}
	return set, nil
}

func (s *AggregateSet) firstMatch(key string) *ProductAggregate {
	for _, existing := range s.items {
		if utils.Similarity(key, existing.Key) > mergeSimilarityThreshold {
			return existing
		}
	}
	return nil
}

func cellAt(row Row, i int) Cell {
	if i < 0 || i >= len(row) {
		return EmptyCell()
	}
	return row[i]
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
