// Package store is the record store the import pipeline reads reference
// data from and writes trips, expenses and import runs to.
package store

import (
	"context"

	"github.com/sells-group/fleet-import/internal/db"
)

// Table names.
const (
	TableRoutes     = "rutas"
	TableTariffs    = "tarifas"
	TableClients    = "clientes"
	TableTrips      = "viajes"
	TableExpenses   = "gastos"
	TableImportRuns = "import_runs"
)

// Row is one record keyed by column name. Values are normalized per the
// column kind: int64, float64, string (dates as YYYY-MM-DD), time.Time
// or nil.
type Row map[string]any

// Op is a filter operator.
type Op string

const (
	OpEq       Op = "eq"
	OpNotNull  Op = "not_null"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpContains Op = "contains"
	OpIn       Op = "in"
)

// Filter is a single column predicate. Filters in a query are ANDed.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq matches rows whose column equals v. A nil v matches NULL.
func Eq(col string, v any) Filter { return Filter{Column: col, Op: OpEq, Value: v} }

// NotNull matches rows whose column is set.
func NotNull(col string) Filter { return Filter{Column: col, Op: OpNotNull} }

// Gte matches rows whose column is >= v.
func Gte(col string, v any) Filter { return Filter{Column: col, Op: OpGte, Value: v} }

// Lte matches rows whose column is <= v.
func Lte(col string, v any) Filter { return Filter{Column: col, Op: OpLte, Value: v} }

// Contains is a case-insensitive substring match.
func Contains(col, s string) Filter { return Filter{Column: col, Op: OpContains, Value: s} }

// In matches rows whose column is one of vs.
func In(col string, vs ...any) Filter { return Filter{Column: col, Op: OpIn, Value: vs} }

// Order is one sort key.
type Order struct {
	Column string
	Desc   bool
}

// Query selects rows from a table. Limit <= 0 means no limit.
type Query struct {
	Table   string
	Filters []Filter
	OrderBy []Order
	Limit   int
}

// Store is the record store interface shared by all backends.
type Store interface {
	Query(ctx context.Context, q Query) ([]Row, error)
	// Insert writes rows and returns them as stored, generated keys included.
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	// Update applies patch to every row matching filters and returns the
	// number of rows changed.
	Update(ctx context.Context, table string, filters []Filter, patch Row) (int64, error)
	// Delete removes rows matching filters. At least one filter is required.
	Delete(ctx context.Context, table string, filters []Filter) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

func conditions(filters []Filter) []db.Condition {
	out := make([]db.Condition, len(filters))
	for i, f := range filters {
		out[i] = db.Condition{Column: f.Column, Kind: string(f.Op), Value: f.Value}
	}
	return out
}

func orderTerms(order []Order) []db.OrderTerm {
	out := make([]db.OrderTerm, len(order))
	for i, o := range order {
		out[i] = db.OrderTerm{Column: o.Column, Desc: o.Desc}
	}
	return out
}

func plainRows(rows []Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// Int returns the integer value of col, or 0 when unset.
func (r Row) Int(col string) int64 {
	n, _ := r[col].(int64)
	return n
}

// IntPtr returns the integer value of col, or nil when unset.
func (r Row) IntPtr(col string) *int64 {
	n, ok := r[col].(int64)
	if !ok {
		return nil
	}
	return &n
}

// Float returns the numeric value of col, or 0 when unset.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// FloatPtr returns the numeric value of col, or nil when unset.
func (r Row) FloatPtr(col string) *float64 {
	if r[col] == nil {
		return nil
	}
	f := r.Float(col)
	return &f
}

// String returns the text value of col, or "" when unset.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}
