package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aigate/domain/dataset"
	"aigate/internal/extract"

	"github.com/xuri/excelize/v2"
)

// SeriesReader reads a labelled numeric series from an Excel or CSV file
type SeriesReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewSeriesReader creates a reader that handles both Excel and CSV files
func NewSeriesReader(filePath string) *SeriesReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &SeriesReader{filePath: filePath, fileType: fileType}
}

// ReadSheet reads the first sheet (or the CSV file) into header-keyed rows
func (r *SeriesReader) ReadSheet() (*SheetData, error) {
	log.Printf("[SeriesReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}
	return processRows(rows), nil
}

// ReadSeries reads cols from the sheet into a dataset. Cell text is parsed with the same
// number rules as model output, so "Rp 1.500.000" and "2,5 jt" are understood.
func (r *SeriesReader) ReadSeries(cols SeriesColumns) (dataset.Dataset, error) {
	sheet, err := r.ReadSheet()
	if err != nil {
		return dataset.Dataset{}, err
	}

	labelCol, valueCol, err := resolveColumns(sheet, cols)
	if err != nil {
		return dataset.Dataset{}, err
	}

	var labels, values []string
	for _, row := range sheet.Rows {
		value := row[valueCol]
		if value == "" {
			continue
		}
		labels = append(labels, row[labelCol])
		values = append(values, value)
	}

	log.Printf("[SeriesReader] Read %d points from columns %q/%q", len(values), labelCol, valueCol)
	return extract.FromStrings(labels, values), nil
}

// readExcelRows reads the first sheet of the workbook
func (r *SeriesReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	log.Printf("[SeriesReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads the CSV file
func (r *SeriesReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into SheetData
func processRows(rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}
	return &SheetData{Headers: headers, Rows: dataRows}
}

func resolveColumns(sheet *SheetData, cols SeriesColumns) (label, value string, err error) {
	find := func(name string) (string, bool) {
		for _, h := range sheet.Headers {
			if strings.EqualFold(h, strings.TrimSpace(name)) {
				return h, true
			}
		}
		return "", false
	}

	if cols.Label != "" {
		if label, ok := find(cols.Label); ok {
			cols.Label = label
		} else {
			return "", "", fmt.Errorf("label column %q not found (have %s)", cols.Label, strings.Join(sheet.Headers, ", "))
		}
	} else {
		cols.Label = sheet.Headers[0]
	}

	if cols.Value != "" {
		if value, ok := find(cols.Value); ok {
			return cols.Label, value, nil
		}
		return "", "", fmt.Errorf("value column %q not found (have %s)", cols.Value, strings.Join(sheet.Headers, ", "))
	}

	for _, h := range sheet.Headers {
		if h != cols.Label && isNumericColumn(sheet, h) {
			return cols.Label, h, nil
		}
	}
	return "", "", fmt.Errorf("no numeric column found")
}

func isNumericColumn(sheet *SheetData, header string) bool {
	seen := 0
	for _, row := range sheet.Rows {
		cell := row[header]
		if cell == "" {
			continue
		}
		if _, _, ok := extract.ParseNumber(cell); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}
