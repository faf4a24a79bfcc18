package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// MemoryStore is an in-process Store used by tests and dry runs. Rows are
// held in insertion order per table.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row
	nextID map[string]int64
}

var memEncoding = encoding{}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string][]Row),
		nextID: make(map[string]int64),
	}
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "memory: query")
	}
	t, err := lookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	filters, err := memEncoding.filters(t, q.Filters)
	if err != nil {
		return nil, err
	}
	if err := t.orders(q.OrderBy); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []Row
	for _, r := range m.tables[t.Name] {
		if matchAll(r, filters) {
			out = append(out, t.decodeRow(r))
		}
	}
	m.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "memory: insert")
	}
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	enc := make([]Row, len(rows))
	for i, r := range rows {
		if enc[i], err = memEncoding.row(t, r); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, 0, len(enc))
	for _, r := range enc {
		if r[t.Key] == nil {
			if t.Columns[t.Key] == KindText {
				r[t.Key] = uuid.NewString()
			} else {
				m.nextID[t.Name]++
				r[t.Key] = m.nextID[t.Name]
			}
		} else if id, ok := r[t.Key].(int64); ok && id > m.nextID[t.Name] {
			m.nextID[t.Name] = id
		}
		for col := range t.Columns {
			if _, ok := r[col]; !ok {
				r[col] = nil
			}
		}
		m.tables[t.Name] = append(m.tables[t.Name], r)
		out = append(out, t.decodeRow(r))
	}
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, table string, filters []Filter, patch Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "memory: update")
	}
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	fs, err := memEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}
	p, err := memEncoding.row(t, patch)
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, eris.Errorf("memory: update %s: empty patch", t.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.tables[t.Name] {
		if !matchAll(r, fs) {
			continue
		}
		for k, v := range p {
			r[k] = v
		}
		n++
	}
	return n, nil
}

func (m *MemoryStore) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "memory: delete")
	}
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, eris.Errorf("memory: delete from %s: refusing to delete without filters", t.Name)
	}
	fs, err := memEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tables[t.Name][:0]
	var n int64
	for _, r := range m.tables[t.Name] {
		if matchAll(r, fs) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.tables[t.Name] = kept
	return n, nil
}

func matchAll(r Row, filters []Filter) bool {
	for _, f := range filters {
		if !match(r[f.Column], f) {
			return false
		}
	}
	return true
}

func match(v any, f Filter) bool {
	switch f.Op {
	case OpEq:
		if f.Value == nil {
			return v == nil
		}
		return v != nil && compare(v, f.Value) == 0
	case OpNotNull:
		return v != nil
	case OpGte:
		return v != nil && compare(v, f.Value) >= 0
	case OpLte:
		return v != nil && compare(v, f.Value) <= 0
	case OpContains:
		s, ok := v.(string)
		needle, _ := f.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case OpIn:
		vs, _ := f.Value.([]any)
		for _, want := range vs {
			if v != nil && want != nil && compare(v, want) == 0 {
				return true
			}
		}
	}
	return false
}

// compare orders two normalized values. nil sorts first, as NULLS FIRST.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	sa, aText := a.(string)
	sb, bText := b.(string)
	if aText && bText {
		return strings.Compare(sa, sb)
	}
	if fa, err := toFloat(a); err == nil {
		if fb, err := toFloat(b); err == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
