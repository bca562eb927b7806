package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one of the canonical semantic roles spreadsheet columns are
// mapped onto.
type Field string

const (
	FieldDescription Field = "description"
	FieldQuantity    Field = "quantity"
	FieldSales       Field = "sales"
	FieldCost        Field = "cost"
)

// RequiredFields returns the fields a mapping cannot do without. Cost is
// optional; leaving it unmapped only disables cost-derived reports.
func RequiredFields() []Field {
	return []Field{FieldDescription, FieldQuantity, FieldSales}
}

func AllFields() []Field {
	return []Field{FieldDescription, FieldQuantity, FieldSales, FieldCost}
}

// fieldSynonyms lists, per field, the header phrases seen across customer
// spreadsheets. The field's own name is always a candidate too.
var fieldSynonyms = map[Field][]string{
	FieldDescription: {"description", "item", "product", "product description", "item name", "name"},
	FieldQuantity:    {"qty", "quantity", "quantity sold", "number sold", "units sold", "sold quantity", "sales quantity"},
	FieldSales:       {"total sales", "net sales", "revenue", "revenue sales", "sales total", "total revenue", "value"},
	FieldCost:        {"cost per unit", "unit cost", "cogs", "cost of goods", "cost price", "price per unit"},
}

func synonymsFor(field Field) []string {
	terms := []string{string(field)}
	return append(terms, fieldSynonyms[field]...)
}

type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a tagged spreadsheet cell value. Readers classify raw cell text
// once at the boundary; everything downstream switches on Kind instead of
// re-guessing.
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
}

func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

func NumberCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Number: d}
}

// ParseCell classifies a raw cell string. Blank cells become empty cells,
// numeric-looking cells (thousands separators tolerated) become numbers,
// everything else stays text.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyCell()
	}
	if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "")); err == nil {
		return NumberCell(d)
	}
	return TextCell(s)
}

func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	default:
		return ""
	}
}

// Decimal coerces the cell to a number. Non-numeric and empty cells coerce
// to zero; bad data degrades silently rather than failing a whole batch.
func (c Cell) Decimal() decimal.Decimal {
	switch c.Kind {
	case CellNumber:
		return c.Number
	case CellText:
		if d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(c.Text), ",", "")); err == nil {
			return d
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// Row is one spreadsheet row, aligned to the batch's header positions.
type Row []Cell
