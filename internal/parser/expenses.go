package parser

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/workbook"
)

// ExpenseSheet is the worksheet the costs workbook keeps its ledger in.
const ExpenseSheet = "input_costos"

// HeaderScanRows bounds how far down the costs sheet the header row may sit.
const HeaderScanRows = 20

// ExpectedExpenseColumns is quoted back to the user when no header is found.
var ExpectedExpenseColumns = []string{"ITEM", "FECHA", "CATEGORIA", "DETALLE", "MONTO", "KM"}

// PayrollKeywords mark salary rows; payroll is booked elsewhere, so these
// rows are dropped to avoid counting it twice.
var PayrollKeywords = []string{"SUELDO", "IMPOSICIONES", "PREVIRED"}

type expenseColumns struct {
	fecha, categoria, detalle, monto, contenedor int
}

// ParseExpenses reads the costs workbook into parsed expenses.
func ParseExpenses(data []byte) ([]model.ParsedExpense, error) {
	wb, err := workbook.Open(data)
	if err != nil {
		return nil, &MalformedInputError{Reason: "file is not a readable spreadsheet", Err: err}
	}

	sheet, ok := findExpenseSheet(wb)
	if !ok {
		return nil, &SheetNotFoundError{Wanted: ExpenseSheet, Available: wb.SheetNames()}
	}

	headerRow, cols, ok := findExpenseHeader(sheet)
	if !ok {
		return nil, &HeaderNotFoundError{Sheet: sheet.Name, Window: HeaderScanRows, Expected: ExpectedExpenseColumns}
	}

	var (
		expenses []model.ParsedExpense
		dropped  = map[string]int{}
	)
	for i := headerRow + 1; i < sheet.Rows(); i++ {
		fechaCell := sheet.Cell(i, cols.fecha)
		montoCell := sheet.Cell(i, cols.monto)
		if workbook.Blank(fechaCell) && workbook.Blank(montoCell) {
			continue
		}

		fecha := normalize.ParseDate(fechaCell)
		if fecha == "" {
			dropped["date"]++
			continue
		}
		monto := normalize.ParseAmount(montoCell)
		if monto <= 0 {
			dropped["amount"]++
			continue
		}

		detalle := strings.TrimSpace(cellText(sheet.Cell(i, cols.detalle)))
		if isPayroll(detalle) {
			dropped["payroll"]++
			continue
		}

		categoria := model.ExpenseCategoryDefault
		if c := sheet.Cell(i, cols.categoria); !workbook.Blank(c) {
			categoria = strings.TrimSpace(workbook.Text(c))
		}

		var contenedor string
		if cols.contenedor >= 0 {
			contenedor = strings.TrimSpace(cellText(sheet.Cell(i, cols.contenedor)))
		}

		tipo := categoria
		if tipo == "" {
			tipo = model.ExpenseTypeDefault
		}
		descripcion := detalle
		if descripcion == "" {
			descripcion = categoria
		}

		expenses = append(expenses, model.ParsedExpense{
			Date:        fecha,
			Type:        tipo,
			Description: descripcion,
			Amount:      monto,
			Provider:    descripcion,
			Container:   contenedor,
		})
	}

	zap.L().Debug("parsed expense sheet",
		zap.String("sheet", sheet.Name),
		zap.Int("header_row", headerRow+1),
		zap.Int("expenses", len(expenses)),
		zap.Any("dropped", dropped),
	)
	return expenses, nil
}

func findExpenseSheet(wb *workbook.Workbook) (*workbook.Sheet, bool) {
	if s, ok := wb.Sheet(ExpenseSheet); ok {
		return s, true
	}
	return wb.FindSheet(func(name string) bool {
		return name == ExpenseSheet || strings.Contains(name, "costos") || strings.Contains(name, "input")
	})
}

// findExpenseHeader scans the first HeaderScanRows rows for one carrying both
// FECHA and MONTO labels. Missing optional columns are -1.
func findExpenseHeader(sheet *workbook.Sheet) (int, expenseColumns, bool) {
	limit := min(HeaderScanRows, sheet.Rows())
	for i := 0; i < limit; i++ {
		cols := expenseColumns{fecha: -1, categoria: -1, detalle: -1, monto: -1, contenedor: -1}
		for j := 0; j < sheet.Cols(); j++ {
			label := normalize.FoldLabel(cellText(sheet.Cell(i, j)))
			switch label {
			case "FECHA":
				cols.fecha = j
			case "CATEGORIA":
				cols.categoria = j
			case "DETALLE":
				cols.detalle = j
			case "MONTO":
				cols.monto = j
			}
			if strings.Contains(label, "CONTENEDOR") {
				cols.contenedor = j
			}
		}
		if cols.fecha >= 0 && cols.monto >= 0 {
			return i, cols, true
		}
	}
	return -1, expenseColumns{}, false
}

func isPayroll(detail string) bool {
	upper := strings.ToUpper(detail)
	for _, kw := range PayrollKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
