package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fleet-import/internal/db"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var sqliteEncoding = encoding{}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

// Dates are stored as YYYY-MM-DD text so equality and range filters
// compare lexically.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clientes (
	id_cliente INTEGER PRIMARY KEY AUTOINCREMENT,
	nombre     TEXT NOT NULL,
	alias      TEXT
);

CREATE TABLE IF NOT EXISTS rutas (
	id_ruta          INTEGER PRIMARY KEY AUTOINCREMENT,
	origen           TEXT NOT NULL,
	destino          TEXT NOT NULL,
	km_estimados     REAL NOT NULL DEFAULT 0,
	tarifa_sugerida  REAL NOT NULL DEFAULT 0,
	rendimiento_km_l REAL,
	costo_por_km     REAL
);

CREATE TABLE IF NOT EXISTS tarifas (
	id_tarifa     INTEGER PRIMARY KEY AUTOINCREMENT,
	id_cliente    INTEGER NOT NULL REFERENCES clientes(id_cliente),
	id_ruta       INTEGER NOT NULL REFERENCES rutas(id_ruta),
	monto_pactado REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS viajes (
	id_viaje      INTEGER PRIMARY KEY AUTOINCREMENT,
	fecha         TEXT NOT NULL,
	id_cliente    INTEGER NOT NULL REFERENCES clientes(id_cliente),
	id_ruta       INTEGER REFERENCES rutas(id_ruta),
	estado        TEXT NOT NULL DEFAULT 'Finalizado',
	monto_neto    REAL NOT NULL DEFAULT 0,
	observaciones TEXT
);

CREATE TABLE IF NOT EXISTS gastos (
	id_gasto    INTEGER PRIMARY KEY AUTOINCREMENT,
	fecha       TEXT NOT NULL,
	tipo_gasto  TEXT NOT NULL,
	descripcion TEXT NOT NULL,
	monto       REAL NOT NULL,
	proveedor   TEXT
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	format      TEXT,
	client_id   INTEGER,
	file_sha256 TEXT NOT NULL,
	inserted    INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rutas_par ON rutas(origen, destino);
CREATE INDEX IF NOT EXISTS idx_tarifas_cliente_ruta ON tarifas(id_cliente, id_ruta);
CREATE INDEX IF NOT EXISTS idx_viajes_fecha ON viajes(fecha);
CREATE INDEX IF NOT EXISTS idx_gastos_fecha_tipo ON gastos(fecha, tipo_gasto);
CREATE INDEX IF NOT EXISTS idx_import_runs_hash ON import_runs(file_sha256);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Row, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	filters, err := sqliteEncoding.filters(t, q.Filters)
	if err != nil {
		return nil, err
	}
	if err := t.orders(q.OrderBy); err != nil {
		return nil, err
	}
	st, err := db.Select(db.SQLite, t.Name, conditions(filters), orderTerms(q.OrderBy), q.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build query")
	}
	rows, err := s.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", t.Name)
	}
	out, err := collectSQLRows(t, rows)
	return out, eris.Wrapf(err, "sqlite: scan %s", t.Name)
}

func (s *SQLiteStore) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	enc := make([]Row, len(rows))
	for i, r := range rows {
		if enc[i], err = sqliteEncoding.row(t, r); err != nil {
			return nil, err
		}
	}
	st, err := db.Insert(db.SQLite, t.Name, plainRows(enc))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build insert")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert %s", t.Name)
	}
	out, err := collectSQLRows(t, res)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert %s", t.Name)
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit tx")
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, table string, filters []Filter, patch Row) (int64, error) {
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	fs, err := sqliteEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}
	p, err := sqliteEncoding.row(t, patch)
	if err != nil {
		return 0, err
	}
	st, err := db.Update(db.SQLite, t.Name, conditions(fs), p)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: build update")
	}
	res, err := s.db.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: update %s", t.Name)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	fs, err := sqliteEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}
	st, err := db.Delete(db.SQLite, t.Name, conditions(fs))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: build delete")
	}
	res, err := s.db.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete %s", t.Name)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func collectSQLRows(t Table, rows *sql.Rows) ([]Row, error) {
	defer rows.Close() //nolint:errcheck
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			r[c] = t.decode(c, values[i])
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
