package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/salesinsight_backend/config"
	"bitbucket.org/mmdatafocus/salesinsight_backend/models"
	"bitbucket.org/mmdatafocus/salesinsight_backend/utils"
)

type runReportRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Items int    `json:"items"`
}

// chartPayload is the chart-ready projection of a report: one label and
// one value per record, plus the dataset caption.
type chartPayload struct {
	Dataset string            `json:"dataset"`
	Labels  []string          `json:"labels"`
	Values  []decimal.Decimal `json:"values"`
}

func runReportHandler(store *batchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		b, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found or superseded by a newer upload"})
			return
		}

		var req runReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "report kind is required"})
			return
		}

		report, err := deriveReport(b, req.Kind, req.Items)
		if err != nil {
			config.LogError(logger, "reports.go", "runReportHandler", "deriveReport:"+req.Kind, nil, err)
			c.JSON(reportErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		logger.WithFields(logrus.Fields{
			"batch_id": b.ID,
			"kind":     report.Kind,
			"records":  len(report.Records),
		}).Info("[report.run]")

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"report": report,
			"chart":  chartFromReport(report),
		}})
	}
}

type exportQuery struct {
	Kind   string `form:"kind" validate:"required"`
	Format string `form:"format" validate:"omitempty,oneof=csv xlsx"`
	Items  int    `form:"items" validate:"omitempty,min=1"`
}

func exportReportHandler(store *batchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		b, ok := store.get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "batch not found or superseded by a newer upload"})
			return
		}

		var q exportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return
		}
		if err := utils.ValidateStruct(q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required; format must be csv or xlsx"})
			return
		}

		report, err := deriveReport(b, q.Kind, q.Items)
		if err != nil {
			config.LogError(logger, "reports.go", "exportReportHandler", "deriveReport:"+q.Kind, nil, err)
			c.JSON(reportErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("%s-report", report.Kind)
		switch q.Format {
		case "", "csv":
			c.Header("Content-Type", "text/csv")
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
			c.Status(http.StatusOK)
			if err := writeReportCSV(c.Writer, report); err != nil {
				config.LogError(logger, "reports.go", "exportReportHandler", "writeReportCSV", nil, err)
			}
		case "xlsx":
			c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))
			c.Status(http.StatusOK)
			if err := writeReportXlsx(c.Writer, report); err != nil {
				config.LogError(logger, "reports.go", "exportReportHandler", "writeReportXlsx", nil, err)
			}
		}
	}
}

func deriveReport(b *batch, rawKind string, items int) (*models.Report, error) {
	_, set := b.state()
	if set == nil {
		return nil, errMappingNotConfirmed
	}
	kind, err := models.ParseReportKind(rawKind)
	if err != nil {
		return nil, err
	}
	return models.RunReport(set, kind, models.ReportParams{ItemCount: items})
}

var errMappingNotConfirmed = errors.New("column mapping has not been confirmed for this batch")

func reportErrorStatus(err error) int {
	switch {
	case errors.Is(err, errMappingNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, models.ErrMissingCostMapping):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidParameter), errors.Is(err, models.ErrUnknownReportKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// chartFromReport picks the value series the charts plot for each kind:
// movers plot quantity, contribution its percentage, profitability the
// profit and price-vs-sales the total sales.
func chartFromReport(r *models.Report) chartPayload {
	payload := chartPayload{
		Labels: make([]string, len(r.Records)),
		Values: make([]decimal.Decimal, len(r.Records)),
	}
	for i, rec := range r.Records {
		payload.Labels[i] = rec.Description
		switch r.Kind {
		case models.ReportContribution:
			payload.Values[i] = derefOrZero(rec.ContributionPercent)
		case models.ReportProfitability:
			payload.Values[i] = derefOrZero(rec.Profit)
		case models.ReportPriceVsSales:
			payload.Values[i] = rec.TotalSales
		default:
			payload.Values[i] = rec.Quantity
		}
	}
	switch r.Kind {
	case models.ReportContribution:
		payload.Dataset = "Sales Contribution (%)"
	case models.ReportProfitability:
		payload.Dataset = "Profit"
	case models.ReportPriceVsSales:
		payload.Dataset = "Total Sales"
	default:
		payload.Dataset = "Quantity Sold"
	}
	return payload
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// recordCells flattens a record into the report's column order.
func recordCells(r *models.Report, rec models.ReportRecord) []string {
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
			cells = append(cells, derefOrZero(rec.TotalCost).StringFixed(2))
		case "Profit":
			cells = append(cells, derefOrZero(rec.Profit).StringFixed(2))
		case "Profit Margin %":
			cells = append(cells, derefOrZero(rec.ProfitMargin).StringFixed(2))
		case "Contribution %":
			cells = append(cells, derefOrZero(rec.ContributionPercent).StringFixed(2))
		case "Unit Price":
			cells = append(cells, derefOrZero(rec.UnitPrice).StringFixed(2))
		}
	}
	return cells
}

func writeReportCSV(w io.Writer, r *models.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(r.Columns); err != nil {
		return err
	}
	for _, rec := range r.Records {
		if err := writer.Write(recordCells(r, rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeReportXlsx(w io.Writer, r *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for col, heading := range r.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, heading); err != nil {
			return err
		}
	}
	for rowNo, rec := range r.Records {
		for col, value := range recordCells(r, rec) {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNo+2)
			if err != nil {
				return err
			}
			// Numeric columns export as numbers so spreadsheets can sum them.
			if col == 0 {
				err = f.SetCellValue(sheet, cell, value)
			} else if n, convErr := decimal.NewFromString(strings.ReplaceAll(value, ",", "")); convErr == nil {
				err = f.SetCellValue(sheet, cell, n.InexactFloat64())
			} else {
				err = f.SetCellValue(sheet, cell, value)
			}
			if err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
