// Package workbooktest builds in-memory .xlsx fixtures for tests.
package workbooktest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// Sheet describes one worksheet of a fixture. Row values may be string,
// float64, int, time.Time or nil (an empty cell).
type Sheet struct {
	Name string
	Rows [][]any
}

// Build writes the sheets, in order, to an .xlsx byte slice.
func Build(t *testing.T, sheets ...Sheet) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.Name)
		require.NoError(t, err)
		for _, values := range s.Rows {
			row := sheet.AddRow()
			for _, v := range values {
				cell := row.AddCell()
				switch tv := v.(type) {
				case nil:
				case string:
					cell.SetString(tv)
				case float64:
					cell.SetFloat(tv)
				case int:
					cell.SetInt(tv)
				case time.Time:
					cell.SetDate(tv)
				default:
					t.Fatalf("workbooktest: unsupported cell value %T", v)
				}
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// Filler returns n placeholder rows used to push a header down to a fixed
// offset.
func Filler(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{"-"}
	}
	return rows
}
