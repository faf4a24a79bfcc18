package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fleet-import/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var pgEncoding = encoding{datesAsTime: true}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clientes (
	id_cliente BIGSERIAL PRIMARY KEY,
	nombre     TEXT NOT NULL,
	alias      TEXT
);

CREATE TABLE IF NOT EXISTS rutas (
	id_ruta          BIGSERIAL PRIMARY KEY,
	origen           TEXT NOT NULL,
	destino          TEXT NOT NULL,
	km_estimados     DOUBLE PRECISION NOT NULL DEFAULT 0,
	tarifa_sugerida  DOUBLE PRECISION NOT NULL DEFAULT 0,
	rendimiento_km_l DOUBLE PRECISION,
	costo_por_km     DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS tarifas (
	id_tarifa     BIGSERIAL PRIMARY KEY,
	id_cliente    BIGINT NOT NULL REFERENCES clientes(id_cliente),
	id_ruta       BIGINT NOT NULL REFERENCES rutas(id_ruta),
	monto_pactado DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS viajes (
	id_viaje      BIGSERIAL PRIMARY KEY,
	fecha         DATE NOT NULL,
	id_cliente    BIGINT NOT NULL REFERENCES clientes(id_cliente),
	id_ruta       BIGINT REFERENCES rutas(id_ruta),
	estado        TEXT NOT NULL DEFAULT 'Finalizado',
	monto_neto    DOUBLE PRECISION NOT NULL DEFAULT 0,
	observaciones TEXT
);

CREATE TABLE IF NOT EXISTS gastos (
	id_gasto    BIGSERIAL PRIMARY KEY,
	fecha       DATE NOT NULL,
	tipo_gasto  TEXT NOT NULL,
	descripcion TEXT NOT NULL,
	monto       DOUBLE PRECISION NOT NULL,
	proveedor   TEXT
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind        TEXT NOT NULL,
	format      TEXT,
	client_id   BIGINT,
	file_sha256 TEXT NOT NULL,
	inserted    INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rutas_par ON rutas(origen, destino);
CREATE INDEX IF NOT EXISTS idx_tarifas_cliente_ruta ON tarifas(id_cliente, id_ruta);
CREATE INDEX IF NOT EXISTS idx_viajes_fecha ON viajes(fecha);
CREATE INDEX IF NOT EXISTS idx_gastos_fecha_tipo ON gastos(fecha, tipo_gasto);
CREATE INDEX IF NOT EXISTS idx_import_runs_hash ON import_runs(file_sha256);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Row, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return nil, err
	}
	filters, err := pgEncoding.filters(t, q.Filters)
	if err != nil {
		return nil, err
	}
	if err := t.orders(q.OrderBy); err != nil {
		return nil, err
	}
	st, err := db.Select(db.Postgres, t.Name, conditions(filters), orderTerms(q.OrderBy), q.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build query")
	}
	rows, err := s.pool.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", t.Name)
	}
	out, err := collectPgRows(t, rows)
	return out, eris.Wrapf(err, "postgres: scan %s", t.Name)
}

func (s *PostgresStore) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	enc := make([]Row, len(rows))
	for i, r := range rows {
		if enc[i], err = pgEncoding.row(t, r); err != nil {
			return nil, err
		}
	}
	st, err := db.Insert(db.Postgres, t.Name, plainRows(enc))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build insert")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	res, err := tx.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert %s", t.Name)
	}
	out, err := collectPgRows(t, res)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert %s", t.Name)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit tx")
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, table string, filters []Filter, patch Row) (int64, error) {
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	fs, err := pgEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}
	p, err := pgEncoding.row(t, patch)
	if err != nil {
		return 0, err
	}
	st, err := db.Update(db.Postgres, t.Name, conditions(fs), p)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: build update")
	}
	tag, err := s.pool.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: update %s", t.Name)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Delete(ctx context.Context, table string, filters []Filter) (int64, error) {
	t, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	fs, err := pgEncoding.filters(t, filters)
	if err != nil {
		return 0, err
	}
	st, err := db.Delete(db.Postgres, t.Name, conditions(fs))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: build delete")
	}
	tag, err := s.pool.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete %s", t.Name)
	}
	return tag.RowsAffected(), nil
}

func collectPgRows(t Table, rows pgx.Rows) ([]Row, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		r := make(Row, len(fields))
		for i, f := range fields {
			r[f.Name] = t.decode(f.Name, values[i])
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
