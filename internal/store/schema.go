package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind is the logical type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
	KindDate
	KindTime
)

const dateLayout = "2006-01-02"

// timeLayout keeps the fraction at nine digits so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Table describes one store table.
type Table struct {
	Name string
	// Key is the generated primary key column.
	Key     string
	Columns map[string]Kind
}

// Schema lists every table the pipeline touches.
var Schema = map[string]Table{
	TableRoutes: {Name: TableRoutes, Key: "id_ruta", Columns: map[string]Kind{
		"id_ruta":          KindInt,
		"origen":           KindText,
		"destino":          KindText,
		"km_estimados":     KindFloat,
		"tarifa_sugerida":  KindFloat,
		"rendimiento_km_l": KindFloat,
		"costo_por_km":     KindFloat,
	}},
	TableTariffs: {Name: TableTariffs, Key: "id_tarifa", Columns: map[string]Kind{
		"id_tarifa":     KindInt,
		"id_cliente":    KindInt,
		"id_ruta":       KindInt,
		"monto_pactado": KindFloat,
	}},
	TableClients: {Name: TableClients, Key: "id_cliente", Columns: map[string]Kind{
		"id_cliente": KindInt,
		"nombre":     KindText,
		"alias":      KindText,
	}},
	TableTrips: {Name: TableTrips, Key: "id_viaje", Columns: map[string]Kind{
		"id_viaje":      KindInt,
		"fecha":         KindDate,
		"id_cliente":    KindInt,
		"id_ruta":       KindInt,
		"estado":        KindText,
		"monto_neto":    KindFloat,
		"observaciones": KindText,
	}},
	TableExpenses: {Name: TableExpenses, Key: "id_gasto", Columns: map[string]Kind{
		"id_gasto":    KindInt,
		"fecha":       KindDate,
		"tipo_gasto":  KindText,
		"descripcion": KindText,
		"monto":       KindFloat,
		"proveedor":   KindText,
	}},
	TableImportRuns: {Name: TableImportRuns, Key: "id", Columns: map[string]Kind{
		"id":          KindText,
		"kind":        KindText,
		"format":      KindText,
		"client_id":   KindInt,
		"file_sha256": KindText,
		"inserted":    KindInt,
		"skipped":     KindInt,
		"status":      KindText,
		"created_at":  KindTime,
	}},
}

func lookupTable(name string) (Table, error) {
	t, ok := Schema[name]
	if !ok {
		return Table{}, eris.Errorf("store: unknown table %q", name)
	}
	return t, nil
}

func (t Table) kind(col string) (Kind, error) {
	k, ok := t.Columns[col]
	if !ok {
		return 0, eris.Errorf("store: unknown column %s.%s", t.Name, col)
	}
	return k, nil
}

// encoding controls how values are bound for a backend.
type encoding struct {
	// datesAsTime binds date columns as time.Time instead of text.
	datesAsTime bool
}

func (e encoding) value(k Kind, v any) (any, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case *int64:
		if p == nil {
			return nil, nil
		}
	case *float64:
		if p == nil {
			return nil, nil
		}
	}
	switch k {
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, eris.Errorf("store: expected string, got %T", v)
		}
		return s, nil
	case KindDate:
		d, err := toDate(v)
		if err != nil {
			return nil, err
		}
		if e.datesAsTime {
			return d, nil
		}
		return d.Format(dateLayout), nil
	case KindTime:
		ts, err := toTime(v)
		if err != nil {
			return nil, err
		}
		if e.datesAsTime {
			return ts, nil
		}
		return ts.UTC().Format(timeLayout), nil
	}
	return nil, eris.Errorf("store: unsupported kind %d", k)
}

func (e encoding) filters(t Table, filters []Filter) ([]Filter, error) {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		k, err := t.kind(f.Column)
		if err != nil {
			return nil, err
		}
		switch f.Op {
		case OpNotNull:
		case OpContains:
			if k != KindText {
				return nil, eris.Errorf("store: contains on non-text column %s.%s", t.Name, f.Column)
			}
		case OpIn:
			vs, ok := f.Value.([]any)
			if !ok {
				return nil, eris.Errorf("store: in on %s.%s needs a list", t.Name, f.Column)
			}
			enc := make([]any, len(vs))
			for j, v := range vs {
				if enc[j], err = e.value(k, v); err != nil {
					return nil, eris.Wrapf(err, "store: filter %s", f.Column)
				}
			}
			f.Value = enc
		case OpEq, OpGte, OpLte:
			if f.Value, err = e.value(k, f.Value); err != nil {
				return nil, eris.Wrapf(err, "store: filter %s", f.Column)
			}
		default:
			return nil, eris.Errorf("store: unsupported filter %q", f.Op)
		}
		out[i] = f
	}
	return out, nil
}

func (e encoding) row(t Table, r Row) (Row, error) {
	out := make(Row, len(r))
	for col, v := range r {
		k, err := t.kind(col)
		if err != nil {
			return nil, err
		}
		if out[col], err = e.value(k, v); err != nil {
			return nil, eris.Wrapf(err, "store: column %s.%s", t.Name, col)
		}
	}
	return out, nil
}

func (t Table) orders(order []Order) error {
	for _, o := range order {
		if _, err := t.kind(o.Column); err != nil {
			return err
		}
	}
	return nil
}

// decode maps a scanned driver value back to the normalized form.
func (t Table) decode(col string, v any) any {
	if v == nil {
		return nil
	}
	k, ok := t.Columns[col]
	if !ok {
		return v
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch k {
	case KindInt:
		if n, err := toInt(v); err == nil {
			return n
		}
	case KindFloat:
		if f, err := toFloat(v); err == nil {
			return f
		}
	case KindText:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	case KindDate:
		if d, err := toDate(v); err == nil {
			return d.Format(dateLayout)
		}
	case KindTime:
		if ts, err := toTime(v); err == nil {
			return ts.UTC()
		}
	}
	return v
}

func (t Table) decodeRow(r Row) Row {
	out := make(Row, len(r))
	for col, v := range r {
		out[col] = t.decode(col, v)
	}
	return out
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case *int64:
		if n == nil {
			return 0, eris.New("store: nil int pointer")
		}
		return *n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, eris.Errorf("store: %v is not an integer", n)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, eris.Wrapf(err, "store: parse int %q", n)
	}
	return 0, eris.Errorf("store: expected integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case *float64:
		if n == nil {
			return 0, eris.New("store: nil float pointer")
		}
		return *n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, eris.Wrapf(err, "store: parse float %q", n)
	}
	return 0, eris.Errorf("store: expected number, got %T", v)
}

func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		s := strings.TrimSpace(d)
		if len(s) >= len(dateLayout) {
			s = s[:len(dateLayout)]
		}
		t, err := time.Parse(dateLayout, s)
		return t, eris.Wrapf(err, "store: parse date %q", d)
	}
	return time.Time{}, eris.Errorf("store: expected date, got %T", v)
}

func toTime(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		return t, eris.Wrapf(err, "store: parse time %q", ts)
	}
	return time.Time{}, eris.Errorf("store: expected time, got %T", v)
}
