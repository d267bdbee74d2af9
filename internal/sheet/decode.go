package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile is returned when an upload has no header row.
var ErrEmptyFile = errors.New("empty file")

// ErrUnsupportedFormat is returned for file extensions other than .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// MaxHeaderSearchRows is how many leading rows are scanned for the header.
var MaxHeaderSearchRows = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies an upload's encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the decoder from a file name's extension.
func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// Decode reads an uploaded file into a Table, choosing CSV or XLSX from the
// file name. name is kept on the table for error reporting.
func Decode(name string, r io.Reader) (*Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(name, r)
	default:
		return ReadCSV(name, r)
	}
}

// ReadCSV decodes a comma-separated file. A UTF-8 BOM is skipped and invalid
// UTF-8 is replaced so hand-exported Windows files still parse.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv %s: %w", name, err)
	}

	return buildTable(name, records)
}

// ReadXLSX decodes the first worksheet of an .xlsx workbook.
func ReadXLSX(name string, r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet %s: %w", name, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet %s: read sheet %q: %w", name, sheetName, err)
	}

	return buildTable(name, rows)
}

// buildTable locates the header (first non-blank row within
// MaxHeaderSearchRows), trims header names and drops fully blank data rows.
func buildTable(name string, records [][]string) (*Table, error) {
	headerIdx := findHeaderRow(records)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-headerIdx-1)
	for _, row := range records[headerIdx+1:] {
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	return NewTable(name, header, rows), nil
}

func findHeaderRow(records [][]string) int {
	limit := MaxHeaderSearchRows
	if len(records) < limit {
		limit = len(records)
	}
	for i := 0; i < limit; i++ {
		if !isEmptyRow(records[i]) {
			return i
		}
	}
	return -1
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return bytes.ToValidUTF8(data, []byte("�"))
}
