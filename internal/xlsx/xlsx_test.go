package xlsx

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildSheet(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	header := []any{"student id", "hours", "remarks"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadRows(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"20230001", "2.5", "setup crew"},
		{"20230002", "4"},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, 2, rows[0].Line)
	require.Equal(t, "20230001", rows[0].StudentID)
	require.True(t, rows[0].Hours.Equal(decimal.NewFromFloat(2.5)))
	require.Equal(t, "setup crew", rows[0].Remarks)
	require.NoError(t, rows[0].Err)

	require.Equal(t, 3, rows[1].Line)
	require.Equal(t, "", rows[1].Remarks)
}

func TestReadRowsMalformed(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"", "2"},
		{"20230003", "abc"},
		{"20230004", "-1"},
		{"20230005", ""},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for i, row := range rows {
		require.Error(t, row.Err, "row %d", i)
	}
	require.Contains(t, rows[0].Err.Error(), "student id is empty")
	require.Contains(t, rows[1].Err.Error(), "not a number")
	require.Contains(t, rows[2].Err.Error(), "negative")
	require.Contains(t, rows[3].Err.Error(), "hours is empty")
}

func TestReadRowsSkipsBlankRows(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"20230006", "1"},
		{"", "", ""},
		{"20230007", "2"},
	})

	rows, err := ReadRows(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 2, rows[0].Line)
	require.Equal(t, 4, rows[1].Line)
}

func TestReadRowsNotAWorkbook(t *testing.T) {
	_, err := ReadRows(bytes.NewBufferString("definitely not xlsx"))
	require.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	buf, err := Template()
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "20230001", rows[0].StudentID)
	require.True(t, rows[0].Hours.Equal(decimal.NewFromFloat(2.5)))
	require.NoError(t, rows[0].Err)
}
