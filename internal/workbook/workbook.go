// Package workbook reads uploaded .xlsx/.xlsm bytes into typed cell grids.
package workbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Workbook is an opened spreadsheet file.
type Workbook struct {
	file *xlsx.File
}

// Sheet is one worksheet as a grid of cell values. Each value is nil,
// string, float64, bool or time.Time.
type Sheet struct {
	Name string
	rows [][]any
	cols int
}

// Open parses spreadsheet bytes.
func Open(data []byte) (*Workbook, error) {
	if len(data) == 0 {
		return nil, eris.New("workbook: empty file")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open")
	}
	return &Workbook{file: f}, nil
}

// SheetNames lists the worksheets in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.file.Sheets))
	for _, s := range w.file.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// First returns the first worksheet.
func (w *Workbook) First() (*Sheet, error) {
	if len(w.file.Sheets) == 0 {
		return nil, eris.New("workbook: file has no sheets")
	}
	return w.load(w.file.Sheets[0]), nil
}

// Sheet returns the worksheet with exactly the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.file.Sheet[name]
	if !ok {
		return nil, false
	}
	return w.load(s), true
}

// FindSheet returns the first worksheet whose lower-cased name satisfies
// match.
func (w *Workbook) FindSheet(match func(lowerName string) bool) (*Sheet, bool) {
	for _, s := range w.file.Sheets {
		if match(strings.ToLower(s.Name)) {
			return w.load(s), true
		}
	}
	return nil, false
}

func (w *Workbook) load(s *xlsx.Sheet) *Sheet {
	out := &Sheet{Name: s.Name, rows: make([][]any, len(s.Rows))}
	for i, row := range s.Rows {
		if row == nil {
			continue
		}
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellValue(cell, w.file.Date1904)
		}
		out.rows[i] = cells
		if len(cells) > out.cols {
			out.cols = len(cells)
		}
	}
	return out
}

// Rows is the number of rows in the used range.
func (s *Sheet) Rows() int { return len(s.rows) }

// Cols is the widest row in the used range.
func (s *Sheet) Cols() int { return s.cols }

// Cell returns the value at the zero-based position, or nil outside the
// used range.
func (s *Sheet) Cell(row, col int) any {
	if row < 0 || row >= len(s.rows) || col < 0 {
		return nil
	}
	r := s.rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

// Row returns the values of a row between columns first and last inclusive,
// padded with nils.
func (s *Sheet) Row(row, first, last int) []any {
	if last < first {
		return nil
	}
	out := make([]any, last-first+1)
	for c := first; c <= last; c++ {
		out[c-first] = s.Cell(row, c)
	}
	return out
}

func cellValue(cell *xlsx.Cell, date1904 bool) any {
	if cell == nil || cell.Value == "" {
		return nil
	}
	switch cell.Type() {
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if cell.IsTime() {
			if t, err := cell.GetTime(date1904); err == nil {
				return t
			}
		}
		if f, err := cell.Float(); err == nil {
			return f
		}
		return cell.Value
	case xlsx.CellTypeBool:
		return cell.Bool()
	case xlsx.CellTypeError:
		return nil
	default:
		s := cell.String()
		if s == "" {
			return nil
		}
		return s
	}
}

// Text renders a cell value as the string a user would read in it.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return ""
	}
}

// Blank reports whether a cell counts as empty: nil, an empty string or a
// numeric zero.
func Blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}
