package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_Postgres(t *testing.T) {
	st, err := Select(Postgres, "viajes", []Condition{
		{Column: "fecha", Kind: "eq", Value: "2024-01-15"},
		{Column: "observaciones", Kind: "contains", Value: "MSCU 123"},
		{Column: "id_ruta", Kind: "not_null"},
	}, []OrderTerm{{Column: "fecha", Desc: true}}, 10)
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "viajes" WHERE "fecha" = $1 AND "observaciones" ILIKE $2 ESCAPE '\' AND "id_ruta" IS NOT NULL ORDER BY "fecha" DESC LIMIT $3`, st.SQL)
	assert.Equal(t, []any{"2024-01-15", "%MSCU 123%", 10}, st.Args)
}

func TestSelect_SQLiteRange(t *testing.T) {
	st, err := Select(SQLite, "gastos", []Condition{
		{Column: "monto", Kind: "gte", Value: 95.0},
		{Column: "monto", Kind: "lte", Value: 105.0},
	}, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, `SELECT * FROM "gastos" WHERE "monto" >= ? AND "monto" <= ?`, st.SQL)
	assert.Equal(t, []any{95.0, 105.0}, st.Args)
}

func TestSelect_InAndNullEq(t *testing.T) {
	st, err := Select(Postgres, "tarifas", []Condition{
		{Column: "id_ruta", Kind: "in", Value: []any{int64(1), int64(2)}},
		{Column: "monto_pactado", Kind: "eq", Value: nil},
	}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "tarifas" WHERE "id_ruta" IN ($1, $2) AND "monto_pactado" IS NULL`, st.SQL)

	st, err = Select(Postgres, "tarifas", []Condition{{Column: "id_ruta", Kind: "in", Value: []any{}}}, nil, 0)
	require.NoError(t, err)
	assert.Contains(t, st.SQL, "1 = 0")
	assert.Empty(t, st.Args)
}

func TestSelect_BadFilter(t *testing.T) {
	_, err := Select(Postgres, "viajes", []Condition{{Column: "x", Kind: "between"}}, nil, 0)
	assert.Error(t, err)

	_, err = Select(Postgres, "viajes", []Condition{{Column: "x", Kind: "contains", Value: 4}}, nil, 0)
	assert.Error(t, err)
}

func TestInsert_ColumnUnion(t *testing.T) {
	st, err := Insert(Postgres, "rutas", []map[string]any{
		{"origen": "SAN ANTONIO", "destino": "SANTIAGO"},
		{"origen": "VALPARAISO", "destino": "RANCAGUA", "km_estimados": 120.0},
	})
	require.NoError(t, err)

	assert.Equal(t, `INSERT INTO "rutas" ("destino", "km_estimados", "origen") VALUES ($1, $2, $3), ($4, $5, $6) RETURNING *`, st.SQL)
	assert.Equal(t, []any{"SANTIAGO", nil, "SAN ANTONIO", "RANCAGUA", 120.0, "VALPARAISO"}, st.Args)
}

func TestInsert_Empty(t *testing.T) {
	_, err := Insert(Postgres, "rutas", nil)
	assert.Error(t, err)

	_, err = Insert(Postgres, "rutas", []map[string]any{{}})
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	st, err := Update(SQLite, "rutas", []Condition{{Column: "id_ruta", Kind: "eq", Value: int64(7)}},
		map[string]any{"tarifa_sugerida": 150000.0})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "rutas" SET "tarifa_sugerida" = ? WHERE "id_ruta" = ?`, st.SQL)
	assert.Equal(t, []any{150000.0, int64(7)}, st.Args)

	_, err = Update(SQLite, "rutas", nil, nil)
	assert.Error(t, err)
}

func TestDelete_RequiresFilter(t *testing.T) {
	_, err := Delete(Postgres, "viajes", nil)
	assert.Error(t, err)

	st, err := Delete(Postgres, "viajes", []Condition{{Column: "id_viaje", Kind: "eq", Value: int64(3)}})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "viajes" WHERE "id_viaje" = $1`, st.SQL)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"viajes"`, Quote("viajes"))
	assert.Equal(t, `"public"."viajes"`, Quote("public.viajes"))
	assert.Equal(t, `"a", "b"`, QuoteAll([]string{"a", "b"}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_x\\`, EscapeLike(`50% _x\`))
}
