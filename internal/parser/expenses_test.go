package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/workbook/workbooktest"
)

var costHeader = []any{"ITEM", "FECHA", "CATEGORÍA", "DETALLE", "MONTO", "KM", "N° CONTENEDOR"}

func costsFixture(t *testing.T, sheetName string, rows ...[]any) []byte {
	t.Helper()
	all := [][]any{
		{"PLANILLA DE COSTOS"},
		{"Empresa", "Transportes"},
		costHeader,
	}
	all = append(all, rows...)
	return workbooktest.Build(t,
		workbooktest.Sheet{Name: "Resumen", Rows: [][]any{{"total"}}},
		workbooktest.Sheet{Name: sheetName, Rows: all},
	)
}

func TestParseExpenses_Rows(t *testing.T) {
	data := costsFixture(t, "input_costos",
		[]any{1, "15/03/2024", "PEAJES", "Peaje Lo Prado", "$3.200", 120, "abc 123456"},
		[]any{2, 45366.0, nil, "Lavado camión", 15000.0, nil, nil},
		[]any{3, "16/03/2024", "COMBUSTIBLE", nil, "$120.000,50"},
	)

	expenses, err := ParseExpenses(data)
	require.NoError(t, err)
	require.Len(t, expenses, 3)

	assert.Equal(t, model.ParsedExpense{
		Date:        "2024-03-15",
		Type:        "PEAJES",
		Description: "Peaje Lo Prado",
		Amount:      3200,
		Provider:    "Peaje Lo Prado",
		Container:   "abc 123456",
	}, expenses[0])

	assert.Equal(t, "2024-03-15", expenses[1].Date)
	assert.Equal(t, model.ExpenseCategoryDefault, expenses[1].Type)
	assert.Equal(t, "Lavado camión", expenses[1].Description)
	assert.Empty(t, expenses[1].Container)

	assert.Equal(t, "COMBUSTIBLE", expenses[2].Description, "description falls back to category")
	assert.Equal(t, "COMBUSTIBLE", expenses[2].Provider)
	assert.Equal(t, float64(120000), expenses[2].Amount)
}

func TestParseExpenses_DropsRows(t *testing.T) {
	data := costsFixture(t, "input_costos",
		[]any{1, nil, "PEAJES", "vacía", nil},
		[]any{2, "no es fecha", "PEAJES", "x", 1000},
		[]any{3, "15/03/2024", "PEAJES", "cero", 0},
		[]any{4, "15/03/2024", "PEAJES", "negativo", "-500"},
		[]any{5, "15/03/2024", "REMUNERACIONES", "SUELDO CONDUCTOR MARZO", "$900.000"},
		[]any{6, "15/03/2024", "LEYES SOCIALES", "pago imposiciones", 50000},
		[]any{7, "15/03/2024", "LEYES SOCIALES", "Previred marzo", 50000},
		[]any{8, "15/03/2024", "PEAJES", "ok", 1000},
	)

	expenses, err := ParseExpenses(data)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "ok", expenses[0].Description)
}

func TestParseExpenses_PayrollDroppedRegardlessOfAmountOrCategory(t *testing.T) {
	for _, row := range [][]any{
		{1, "15/03/2024", "PEAJES", "SUELDO CONDUCTOR MARZO", 1},
		{1, "15/03/2024", nil, "SUELDO CONDUCTOR MARZO", "$10.000.000"},
		{1, "15/03/2024", "VARIABLE", "SUELDO CONDUCTOR MARZO", 42.0},
	} {
		expenses, err := ParseExpenses(costsFixture(t, "input_costos", row))
		require.NoError(t, err)
		assert.Empty(t, expenses)
	}
}

func TestParseExpenses_BlankCategoryBecomesVariable(t *testing.T) {
	expenses, err := ParseExpenses(costsFixture(t, "input_costos",
		[]any{1, "15/03/2024", "   ", "peaje", 1000},
	))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, model.ExpenseTypeDefault, expenses[0].Type)
}

func TestParseExpenses_SheetFallback(t *testing.T) {
	for _, name := range []string{"INPUT_COSTOS", "Costos Marzo", "input datos"} {
		expenses, err := ParseExpenses(costsFixture(t, name, []any{1, "15/03/2024", "PEAJES", "x", 1000}))
		require.NoError(t, err, name)
		assert.Len(t, expenses, 1, name)
	}
}

func TestParseExpenses_SheetNotFound(t *testing.T) {
	data := workbooktest.Build(t,
		workbooktest.Sheet{Name: "Viajes", Rows: [][]any{{"x"}}},
		workbooktest.Sheet{Name: "Resumen", Rows: [][]any{{"y"}}},
	)
	_, err := ParseExpenses(data)
	var notFound *SheetNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"Viajes", "Resumen"}, notFound.Available)
	assert.Contains(t, err.Error(), "Viajes, Resumen")
	assert.True(t, IsInputError(err))
}

func TestParseExpenses_HeaderNotFound(t *testing.T) {
	rows := workbooktest.Filler(20)
	rows = append(rows, costHeader)
	data := workbooktest.Build(t, workbooktest.Sheet{Name: "input_costos", Rows: rows})

	_, err := ParseExpenses(data)
	var header *HeaderNotFoundError
	require.ErrorAs(t, err, &header)
	assert.Contains(t, err.Error(), "ITEM, FECHA, CATEGORIA, DETALLE, MONTO, KM")
}

func TestParseExpenses_HeaderOnLastScannedRow(t *testing.T) {
	rows := workbooktest.Filler(19)
	rows = append(rows, costHeader, []any{1, "15/03/2024", "PEAJES", "x", 1000})
	data := workbooktest.Build(t, workbooktest.Sheet{Name: "input_costos", Rows: rows})

	expenses, err := ParseExpenses(data)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestParseExpenses_ReadsPastFiftyRows(t *testing.T) {
	var rows [][]any
	for i := 0; i < 80; i++ {
		rows = append(rows, []any{i, "15/03/2024", "PEAJES", "peaje", 1000 + i})
	}
	expenses, err := ParseExpenses(costsFixture(t, "input_costos", rows...))
	require.NoError(t, err)
	assert.Len(t, expenses, 80)
}
