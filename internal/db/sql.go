package db

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Dialect captures the syntax differences between the SQL backends.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// LikeOp is the case-insensitive pattern operator.
	LikeOp string
}

// Postgres uses numbered placeholders and ILIKE.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	LikeOp:      "ILIKE",
}

// SQLite uses positional placeholders; its LIKE is already
// case-insensitive for ASCII.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	LikeOp:      "LIKE",
}

// Condition is a dialect-neutral WHERE predicate.
type Condition struct {
	Column string
	// Kind is one of "eq", "not_null", "gte", "lte", "contains", "in".
	Kind  string
	Value any
}

// OrderTerm is one ORDER BY column.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Statement is SQL text plus its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}

type builder struct {
	d    Dialect
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) where(conds []Condition) (string, error) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		col := Quote(c.Column)
		switch c.Kind {
		case "eq":
			if c.Value == nil {
				parts = append(parts, col+" IS NULL")
				continue
			}
			parts = append(parts, col+" = "+b.bind(c.Value))
		case "not_null":
			parts = append(parts, col+" IS NOT NULL")
		case "gte":
			parts = append(parts, col+" >= "+b.bind(c.Value))
		case "lte":
			parts = append(parts, col+" <= "+b.bind(c.Value))
		case "contains":
			s, ok := c.Value.(string)
			if !ok {
				return "", eris.Errorf("db: contains on %s needs a string, got %T", c.Column, c.Value)
			}
			parts = append(parts, fmt.Sprintf(`%s %s %s ESCAPE '\'`, col, b.d.LikeOp, b.bind("%"+EscapeLike(s)+"%")))
		case "in":
			values, ok := c.Value.([]any)
			if !ok {
				return "", eris.Errorf("db: in on %s needs []any, got %T", c.Column, c.Value)
			}
			if len(values) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			ph := make([]string, len(values))
			for i, v := range values {
				ph[i] = b.bind(v)
			}
			parts = append(parts, col+" IN ("+strings.Join(ph, ", ")+")")
		default:
			return "", eris.Errorf("db: unsupported filter %q on %s", c.Kind, c.Column)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

// Select builds SELECT * FROM table WHERE ... ORDER BY ... LIMIT n.
func Select(d Dialect, table string, conds []Condition, order []OrderTerm, limit int) (Statement, error) {
	b := &builder{d: d}
	where, err := b.where(conds)
	if err != nil {
		return Statement{}, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(Quote(table))
	sb.WriteString(where)
	if len(order) > 0 {
		terms := make([]string, len(order))
		for i, o := range order {
			terms[i] = Quote(o.Column)
			if o.Desc {
				terms[i] += " DESC"
			}
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.bind(limit))
	}
	return Statement{SQL: sb.String(), Args: b.args}, nil
}

// Insert builds a multi-row INSERT ... RETURNING *. The column list is the
// union of the row keys in sorted order; rows missing a column bind NULL.
func Insert(d Dialect, table string, rows []map[string]any) (Statement, error) {
	if len(rows) == 0 {
		return Statement{}, eris.Errorf("db: insert into %s: no rows", table)
	}
	colSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	if len(colSet) == 0 {
		return Statement{}, eris.Errorf("db: insert into %s: no columns", table)
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	b := &builder{d: d}
	tuples := make([]string, len(rows))
	for i, r := range rows {
		ph := make([]string, len(cols))
		for j, c := range cols {
			ph[j] = b.bind(r[c])
		}
		tuples[i] = "(" + strings.Join(ph, ", ") + ")"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *",
		Quote(table), QuoteAll(cols), strings.Join(tuples, ", "))
	return Statement{SQL: sql, Args: b.args}, nil
}

// Update builds UPDATE table SET ... WHERE ...; columns are set in sorted
// order.
func Update(d Dialect, table string, conds []Condition, patch map[string]any) (Statement, error) {
	if len(patch) == 0 {
		return Statement{}, eris.Errorf("db: update %s: empty patch", table)
	}
	cols := make([]string, 0, len(patch))
	for k := range patch {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	b := &builder{d: d}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = Quote(c) + " = " + b.bind(patch[c])
	}
	where, err := b.where(conds)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s%s", Quote(table), strings.Join(sets, ", "), where),
		Args: b.args,
	}, nil
}

// Delete builds DELETE FROM table WHERE .... An empty condition list is
// rejected so a missing filter can never wipe a table.
func Delete(d Dialect, table string, conds []Condition) (Statement, error) {
	if len(conds) == 0 {
		return Statement{}, eris.Errorf("db: delete from %s: refusing to delete without filters", table)
	}
	b := &builder{d: d}
	where, err := b.where(conds)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: "DELETE FROM " + Quote(table) + where, Args: b.args}, nil
}

// Quote sanitizes an identifier, handling schema-qualified names like
// "public.viajes".
func Quote(name string) string {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{name}.Sanitize()
}

// QuoteAll quotes each column name and joins with commas.
func QuoteAll(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// EscapeLike escapes LIKE wildcards so the value matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
