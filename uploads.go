package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/salesinsight_backend/config"
	"bitbucket.org/mmdatafocus/salesinsight_backend/models"
	"bitbucket.org/mmdatafocus/salesinsight_backend/utils"
)

const uploadFormField = "files"

// fileTable is one sheet's worth of raw data: its own header row plus the
// data rows beneath it.
type fileTable struct {
	headers []string
	rows    [][]string
}

type fileResult struct {
	name   string
	tables []fileTable
	err    error
}

type uploadFileStatus struct {
	FileName string `json:"fileName"`
	Sheets   int    `json:"sheets"`
	Rows     int    `json:"rows"`
	Error    string `json:"error,omitempty"`
}

type uploadResponse struct {
	BatchID          string             `json:"batchId"`
	Headers          []string           `json:"headers"`
	RowCount         int                `json:"rowCount"`
	SuggestedMapping map[string]string  `json:"suggestedMapping"`
	MappingComplete  bool               `json:"mappingComplete"`
	MissingFields    []string           `json:"missingFields,omitempty"`
	Files            []uploadFileStatus `json:"files"`
}

// uploadHandler ingests one or more spreadsheet files, reads them
// concurrently, unions their headers in submission order and suggests a
// column mapping. A failing file drops out of the batch on its own; the
// batch fails only when no file yields usable headers.
func uploadHandler(store *batchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart request"})
			return
		}
		files := form.File[uploadFormField]
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
			return
		}

		maxSize := config.MaxUploadBytes()
		results := make([]fileResult, len(files))
		var wg sync.WaitGroup
		for i, fh := range files {
			wg.Add(1)
			go func(i int, fh *multipart.FileHeader) {
				defer wg.Done()
				results[i] = readUploadedFile(fh, maxSize)
			}(i, fh)
		}
		wg.Wait()

		for _, res := range results {
			if res.err != nil {
				config.LogError(logger, "uploads.go", "uploadHandler", "readUploadedFile:"+res.name, nil, res.err)
			}
		}

		headers := unionHeaders(results)
		if len(headers) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrNoHeadersFound.Error(),
				"files": fileStatuses(results),
			})
			return
		}

		rows := alignRows(results, headers)
		suggested, mapErr := models.InferColumnMapping(headers, utils.DefaultThresholdPolicy())

		b := newBatch(headers, rows, suggested)
		store.replace(b)

		resp := uploadResponse{
			BatchID:          b.ID,
			Headers:          headers,
			RowCount:         len(rows),
			SuggestedMapping: mappingToResponse(suggested),
			MappingComplete:  mapErr == nil,
			Files:            fileStatuses(results),
		}
		if mapErr != nil {
			for _, field := range suggested.MissingRequired() {
				resp.MissingFields = append(resp.MissingFields, string(field))
			}
		}

		logger.WithFields(logrus.Fields{
			"batch_id": b.ID,
			"files":    len(files),
			"headers":  len(headers),
			"rows":     len(rows),
			"complete": mapErr == nil,
		}).Info("[upload.batch]")

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func readUploadedFile(fh *multipart.FileHeader, maxSize int64) fileResult {
	res := fileResult{name: fh.Filename}
	if fh.Size > maxSize {
		res.err = fmt.Errorf("file size exceeds %dMB limit", maxSize/(1024*1024))
		return res
	}

	f, err := fh.Open()
	if err != nil {
		res.err = fmt.Errorf("failed to open file: %v", err)
		return res
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(fh.Filename)); ext {
	case ".xlsx", ".xlsm":
		res.tables, res.err = readWorkbook(f)
	case ".csv":
		table, err := readCSV(f)
		if err != nil {
			res.err = err
			return res
		}
		res.tables = []fileTable{table}
	default:
		res.err = fmt.Errorf("unsupported file type %q: only .xlsx, .xlsm and .csv are allowed", ext)
	}
	return res
}

// readWorkbook reads every sheet of a workbook as its own table, the way
// users actually ship data (one sheet per month, per branch, ...).
func readWorkbook(r io.Reader) ([]fileTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %v", err)
	}
	defer f.Close()

	var tables []fileTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("unable to read sheet %q: %v", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		tables = append(tables, fileTable{headers: rows[0], rows: rows[1:]})
	}
	return tables, nil
}

func readCSV(r io.Reader) (fileTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fileTable{}, fmt.Errorf("failed to read csv: %v", err)
	}
	if len(records) == 0 {
		return fileTable{}, nil
	}
	return fileTable{headers: records[0], rows: records[1:]}, nil
}

// unionHeaders merges every readable table's headers into one list,
// first-seen order, blanks skipped.
func unionHeaders(results []fileResult) []string {
	var headers []string
	seen := map[string]bool{}
	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, t := range res.tables {
			for _, h := range t.headers {
				h = strings.TrimSpace(h)
				if h == "" || seen[h] {
					continue
				}
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	return headers
}

// alignRows re-keys each table's rows onto the union header positions so
// files with different column orders land in one coherent row set. Rows
// are concatenated in file-submission order.
func alignRows(results []fileResult, headers []string) []models.Row {
	position := make(map[string]int, len(headers))
	for i, h := range headers {
		position[h] = i
	}

	var rows []models.Row
	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, t := range res.tables {
			targets := make([]int, len(t.headers))
			for j, h := range t.headers {
				if i, ok := position[strings.TrimSpace(h)]; ok {
					targets[j] = i
				} else {
					targets[j] = -1
				}
			}
			for _, raw := range t.rows {
				row := make(models.Row, len(headers))
				for i := range row {
					row[i] = models.EmptyCell()
				}
				for j, value := range raw {
					if j >= len(targets) || targets[j] < 0 {
						continue
					}
					row[targets[j]] = models.ParseCell(value)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func fileStatuses(results []fileResult) []uploadFileStatus {
	statuses := make([]uploadFileStatus, len(results))
	for i, res := range results {
		status := uploadFileStatus{FileName: res.name, Sheets: len(res.tables)}
		for _, t := range res.tables {
			status.Rows += len(t.rows)
		}
		if res.err != nil {
			status.Error = res.err.Error()
		}
		statuses[i] = status
	}
	return statuses
}
