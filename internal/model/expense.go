package model

// Default labels applied to expense rows with blank cells.
const (
	ExpenseCategoryDefault = "GASTO GENERAL"
	ExpenseTypeDefault     = "VARIABLE"
)

// ParsedExpense is an expense row read from the costs spreadsheet.
type ParsedExpense struct {
	Date        string  `json:"fecha"`
	Type        string  `json:"tipo"`
	Description string  `json:"descripcion"`
	Amount      float64 `json:"monto"`
	Provider    string  `json:"proveedor"`
	Container   string  `json:"contenedor,omitempty"`
}

// Expense is the persisted form of an expense.
type Expense struct {
	ID          int64   `json:"id_gasto"`
	Date        string  `json:"fecha"`
	Type        string  `json:"tipo_gasto"`
	Description string  `json:"descripcion"`
	Amount      float64 `json:"monto"`
	Provider    string  `json:"proveedor,omitempty"`
}

// Expense returns the row e becomes once imported. The container is only
// used for duplicate checks and is not persisted.
func (e ParsedExpense) Expense() Expense {
	return Expense{
		Date:        e.Date,
		Type:        e.Type,
		Description: e.Description,
		Amount:      e.Amount,
		Provider:    e.Provider,
	}
}
