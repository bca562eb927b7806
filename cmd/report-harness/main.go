package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/salesinsight_backend/models"
	"bitbucket.org/mmdatafocus/salesinsight_backend/utils"
)

// report-harness runs the mapping/aggregation/report pipeline against a
// local spreadsheet without the HTTP server.
//
// Example:
//   go run ./cmd/report-harness --file=sales.xlsx --kind=contribution
//   go run ./cmd/report-harness --file=sales.xlsx --kind=fast-moving --items=5 \
//     --desc_col="Item Name" --qty_col="Qty Sold" --sales_col="Revenue"
func main() {
	var (
		file     = flag.String("file", "", "path to .xlsx file (required)")
		sheet    = flag.String("sheet", "", "sheet name (default: first sheet)")
		kind     = flag.String("kind", string(models.ReportContribution), "report kind")
		items    = flag.Int("items", 0, "item count for mover reports (0 = default)")
		descCol  = flag.String("desc_col", "", "manual description column (overrides inference)")
		qtyCol   = flag.String("qty_col", "", "manual quantity column")
		salesCol = flag.String("sales_col", "", "manual sales column")
		costCol  = flag.String("cost_col", "", "manual cost column")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: --file")
		flag.Usage()
		os.Exit(2)
	}

	f, err := excelize.OpenFile(*file)
	if err != nil {
		fatal("open spreadsheet: %v", err)
	}
	defer f.Close()

	sheetName := *sheet
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			fatal("workbook has no sheets")
		}
		sheetName = sheets[0]
	}
	raw, err := f.GetRows(sheetName)
	if err != nil {
		fatal("read sheet %q: %v", sheetName, err)
	}
	if len(raw) == 0 {
		fatal("sheet %q is empty", sheetName)
	}

	// Blank headers stay in place so data cells keep their column positions;
	// they are simply never mappable.
	headers := make([]string, len(raw[0]))
	usable := 0
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			usable++
		}
	}
	if usable == 0 {
		fatal("%v", models.ErrNoHeadersFound)
	}

	bar := progressbar.Default(int64(len(raw)-1), "reading rows")
	rows := make([]models.Row, 0, len(raw)-1)
	for _, record := range raw[1:] {
		row := make(models.Row, len(headers))
		for i := range row {
			if i < len(record) {
				row[i] = models.ParseCell(record[i])
			} else {
				row[i] = models.EmptyCell()
			}
		}
		rows = append(rows, row)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	mapping, err := models.InferColumnMapping(headers, utils.DefaultThresholdPolicy())
	if *descCol != "" {
		mapping[models.FieldDescription] = *descCol
	}
	if *qtyCol != "" {
		mapping[models.FieldQuantity] = *qtyCol
	}
	if *salesCol != "" {
		mapping[models.FieldSales] = *salesCol
	}
	if *costCol != "" {
		mapping[models.FieldCost] = *costCol
	}
	if err != nil && len(mapping.MissingRequired()) > 0 {
		fatal("%v; supply --desc_col/--qty_col/--sales_col to map manually", err)
	}

	set, err := models.Aggregate(headers, rows, mapping)
	if err != nil {
		fatal("aggregate: %v", err)
	}

	reportKind, err := models.ParseReportKind(*kind)
	if err != nil {
		fatal("%v", err)
	}
	report, err := models.RunReport(set, reportKind, models.ReportParams{ItemCount: *items})
	if err != nil {
		fatal("run report: %v", err)
	}

	fmt.Printf("\n%s (%d products, %d records)\n\n", report.Kind, set.Len(), len(report.Records))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(report.Columns, "\t"))
	for _, rec := range report.Records {
		fmt.Fprintln(w, strings.Join(formatRecord(report, rec), "\t"))
	}
	_ = w.Flush()
}

func formatRecord(r *models.Report, rec models.ReportRecord) []string {
	opt := func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return d.StringFixed(2)
	}
	cells := make([]string, 0, len(r.Columns))
	for _, column := range r.Columns {
		switch column {
		case "Description":
			cells = append(cells, rec.Description)
		case "Quantity":
			cells = append(cells, rec.Quantity.StringFixed(2))
		case "Total Sales":
			cells = append(cells, rec.TotalSales.StringFixed(2))
		case "Total Cost":
			cells = append(cells, opt(rec.TotalCost))
		case "Profit":
			cells = append(cells, opt(rec.Profit))
		case "Profit Margin %":
			cells = append(cells, opt(rec.ProfitMargin))
		case "Contribution %":
			cells = append(cells, opt(rec.ContributionPercent))
		case "Unit Price":
			cells = append(cells, opt(rec.UnitPrice))
		}
	}
	return cells
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
