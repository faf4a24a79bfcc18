package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/store"
)

// Query limits per layer.
const (
	exactLimit     = 1
	containerLimit = 10
	fuzzyLimit     = 5
	prefixLen      = 5
)

// DefaultTolerance is the relative amount window of the fuzzy expense check.
const DefaultTolerance = 0.05

// Detector runs the layered duplicate checks against a store.
type Detector struct {
	st        store.Store
	tolerance decimal.Decimal
}

// NewDetector returns a Detector. tolerance <= 0 uses DefaultTolerance.
func NewDetector(st store.Store, tolerance float64) *Detector {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Detector{st: st, tolerance: decimal.NewFromFloat(tolerance)}
}

// CheckTrip reports whether t already exists. Trips without a resolved
// route are never duplicates.
func (d *Detector) CheckTrip(ctx context.Context, t model.ParsedTrip) Verdict {
	var v Verdict
	if t.RouteID == nil {
		v.Rule = RuleRouteUnresolved
		return v
	}

	rows, err := d.st.Query(ctx, store.Query{
		Table: store.TableTrips,
		Filters: []store.Filter{
			store.Eq("fecha", t.Date),
			store.Eq("id_cliente", t.ClientID),
			store.Eq("id_ruta", *t.RouteID),
			store.Contains("observaciones", t.Notes),
		},
		Limit: exactLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleTripExact, err)
	} else if len(rows) > 0 {
		v.flag(RuleTripExact, "Viaje exacto ya existe en la base de datos", ids(rows, "id_viaje")...)
		return v
	}

	code, ok := normalize.ExtractContainer(t.Notes)
	if !ok {
		return v
	}
	rows, err = d.st.Query(ctx, store.Query{
		Table:   store.TableTrips,
		Filters: []store.Filter{store.Eq("fecha", t.Date), store.Contains("observaciones", code)},
		Limit:   containerLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleTripContainer, err)
		return v
	}
	for _, r := range rows {
		trip := tripFromRow(r)
		if existing, ok := normalize.ExtractContainer(trip.Notes); ok && existing == code {
			v.flag(RuleTripContainer,
				fmt.Sprintf("Contenedor %s ya tiene un viaje registrado en esta fecha", code),
				trip.ID)
			return v
		}
	}
	return v
}

// CheckExpense reports whether e already exists. Layers run in order:
// exact, fuzzy amount window, container; the first hit wins.
func (d *Detector) CheckExpense(ctx context.Context, e model.ParsedExpense) Verdict {
	var v Verdict

	rows, err := d.st.Query(ctx, store.Query{
		Table: store.TableExpenses,
		Filters: []store.Filter{
			store.Eq("fecha", e.Date),
			store.Eq("tipo_gasto", e.Type),
			store.Eq("monto", e.Amount),
			store.Contains("descripcion", e.Description),
		},
		Limit: exactLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleExpenseExact, err)
	} else if len(rows) > 0 {
		v.flag(RuleExpenseExact, "Gasto exacto ya existe en la base de datos", ids(rows, "id_gasto")...)
		return v
	}

	lo, hi := d.Bounds(e.Amount)
	rows, err = d.st.Query(ctx, store.Query{
		Table: store.TableExpenses,
		Filters: []store.Filter{
			store.Eq("fecha", e.Date),
			store.Eq("tipo_gasto", e.Type),
			store.Gte("monto", lo),
			store.Lte("monto", hi),
		},
		Limit: fuzzyLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleExpenseFuzzy, err)
	} else {
		for _, r := range rows {
			existing := expenseFromRow(r)
			if SimilarDescription(e.Description, existing.Description) {
				v.flag(RuleExpenseFuzzy, "Gasto similar ya existe (misma fecha, tipo y monto similar)", existing.ID)
				return v
			}
		}
	}

	if e.Container == "" {
		return v
	}
	code := normalize.Canon(e.Container)
	trips, err := d.st.Query(ctx, store.Query{
		Table:   store.TableTrips,
		Filters: []store.Filter{store.Eq("fecha", e.Date), store.Contains("observaciones", code)},
		Limit:   containerLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleExpenseContainer, err)
		return v
	}
	if len(trips) == 0 {
		return v
	}
	// Amount is not compared: one container should not carry the same
	// expense type twice on a day.
	rows, err = d.st.Query(ctx, store.Query{
		Table:   store.TableExpenses,
		Filters: []store.Filter{store.Eq("fecha", e.Date), store.Eq("tipo_gasto", e.Type)},
		Limit:   containerLimit,
	})
	if err != nil {
		d.layerFailed(&v, RuleExpenseContainer, err)
		return v
	}
	if len(rows) > 0 {
		v.flag(RuleExpenseContainer,
			fmt.Sprintf("Gasto para contenedor %s ya existe en esta fecha", code),
			ids(rows, "id_gasto")...)
	}
	return v
}

// Bounds returns the inclusive fuzzy window around amount, computed in
// decimal so 100 at 5% yields exactly [95, 105].
func (d *Detector) Bounds(amount float64) (lo, hi float64) {
	m := decimal.NewFromFloat(amount)
	one := decimal.NewFromInt(1)
	lo = m.Mul(one.Sub(d.tolerance)).InexactFloat64()
	hi = m.Mul(one.Add(d.tolerance)).InexactFloat64()
	return lo, hi
}

// SimilarDescription is the fuzzy description rule: equal after trim and
// upper-casing, or either one's 5-rune prefix appears in the other.
func SimilarDescription(a, b string) bool {
	a, b = normalize.Canon(a), normalize.Canon(b)
	if a == b {
		return true
	}
	if p, ok := prefix(a); ok && strings.Contains(b, p) {
		return true
	}
	if p, ok := prefix(b); ok && strings.Contains(a, p) {
		return true
	}
	return false
}

func prefix(s string) (string, bool) {
	r := []rune(s)
	if len(r) <= prefixLen {
		return "", false
	}
	return string(r[:prefixLen]), true
}

func (d *Detector) layerFailed(v *Verdict, rule Rule, err error) {
	err = eris.Wrapf(err, "dedup: %s", rule)
	v.failOpen(err)
	zap.L().Warn("dedup: check failed, continuing", zap.String("rule", string(rule)), zap.Error(err))
}

func ids(rows []store.Row, col string) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Int(col))
	}
	return out
}
