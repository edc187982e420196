// Package xlsx reads service-hour import sheets and produces the blank
// template operators fill in. The sheet format is three columns with a
// header row: student id, hours, remarks.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const templateSheet = "service hours"

var headerRow = []string{"student id", "hours", "remarks"}

// Row is one parsed data row. Line is the 1-indexed sheet row number, so the
// first data row is line 2. A malformed row carries Err instead of values;
// the importer reports it without aborting the batch.
type Row struct {
	Line      int
	StudentID string
	Hours     decimal.Decimal
	Remarks   string
	Err       error
}

// ReadRows parses an uploaded xlsx workbook. Only sheet-level problems (a
// workbook that cannot be opened, an empty workbook) are returned as errors;
// cell-level problems stay on the row.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var rows []Row
	for i, cols := range cells {
		if i == 0 {
			continue // header
		}
		line := i + 1
		if blank(cols) {
			continue
		}
		rows = append(rows, parseRow(line, cols))
	}
	return rows, nil
}

func parseRow(line int, cols []string) Row {
	row := Row{Line: line}

	if len(cols) < 1 || strings.TrimSpace(cols[0]) == "" {
		row.Err = errors.New("student id is empty")
		return row
	}
	row.StudentID = strings.TrimSpace(cols[0])

	if len(cols) < 2 || strings.TrimSpace(cols[1]) == "" {
		row.Err = errors.New("hours is empty")
		return row
	}
	hours, err := decimal.NewFromString(strings.TrimSpace(cols[1]))
	if err != nil {
		row.Err = fmt.Errorf("hours %q is not a number", strings.TrimSpace(cols[1]))
		return row
	}
	if hours.IsNegative() {
		row.Err = fmt.Errorf("hours %s is negative", hours)
		return row
	}
	row.Hours = hours

	if len(cols) > 2 {
		row.Remarks = strings.TrimSpace(cols[2])
	}
	return row
}

func blank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Template builds the downloadable import template: the header row plus one
// example row.
func Template() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(templateSheet, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	example := []any{"20230001", 2.5, "example row, delete before importing"}
	if err := f.SetSheetRow(templateSheet, "A2", &example); err != nil {
		return nil, fmt.Errorf("write example row: %w", err)
	}

	return f.WriteToBuffer()
}
