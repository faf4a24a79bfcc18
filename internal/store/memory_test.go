package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertAssignsKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	out, err := m.Insert(ctx, TableRoutes, []Row{{"origen": "A", "destino": "B"}, {"origen": "B", "destino": "C"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out[0]["id_ruta"])
	assert.Equal(t, int64(2), out[1]["id_ruta"])

	runs, err := m.Insert(ctx, TableImportRuns, []Row{{"kind": "trips", "file_sha256": "x", "status": "complete"}})
	require.NoError(t, err)
	assert.NotEmpty(t, runs[0]["id"])
}

func TestMemory_ExplicitKeyAdvancesSequence(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, TableClients, []Row{{"id_cliente": 7, "nombre": "Cosio"}})
	require.NoError(t, err)
	out, err := m.Insert(ctx, TableClients, []Row{{"nombre": "Tobar"}})
	require.NoError(t, err)
	assert.Equal(t, int64(8), out[0]["id_cliente"])
}

func TestMemory_Filters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, TableTrips, []Row{
		{"fecha": "2024-01-15", "id_cliente": 1, "id_ruta": 3, "observaciones": "Contenedor: MSCU 1234567", "monto_neto": 10.0},
		{"fecha": "2024-01-15", "id_cliente": 1, "id_ruta": nil, "observaciones": "", "monto_neto": 20.0},
		{"fecha": time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), "id_cliente": 2, "id_ruta": 4, "monto_neto": 30.0},
	})
	require.NoError(t, err)

	cases := []struct {
		name    string
		filters []Filter
		want    int
	}{
		{"eq date", []Filter{Eq("fecha", "2024-01-15")}, 2},
		{"eq time value", []Filter{Eq("fecha", time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC))}, 1},
		{"contains is case-insensitive", []Filter{Contains("observaciones", "mscu 1234567")}, 1},
		{"not null", []Filter{NotNull("id_ruta")}, 2},
		{"eq nil", []Filter{Eq("id_ruta", nil)}, 1},
		{"range inclusive", []Filter{Gte("monto_neto", 10), Lte("monto_neto", 20)}, 2},
		{"in", []Filter{In("id_cliente", 2, 5)}, 1},
		{"empty in", []Filter{In("id_cliente")}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := m.Query(ctx, Query{Table: TableTrips, Filters: tc.filters})
			require.NoError(t, err)
			assert.Len(t, rows, tc.want)
		})
	}
}

func TestMemory_OrderAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, TableExpenses, []Row{
		{"fecha": "2024-01-02", "tipo_gasto": "A", "descripcion": "x", "monto": 3.0},
		{"fecha": "2024-01-01", "tipo_gasto": "A", "descripcion": "y", "monto": 1.0},
		{"fecha": "2024-01-03", "tipo_gasto": "A", "descripcion": "z", "monto": 2.0},
	})
	require.NoError(t, err)

	rows, err := m.Query(ctx, Query{Table: TableExpenses, OrderBy: []Order{{Column: "fecha", Desc: true}}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-03", rows[0]["fecha"])
	assert.Equal(t, "2024-01-02", rows[1]["fecha"])
}

func TestMemory_TimeFilterWithinSecond(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	base := time.Date(2024, 5, 2, 13, 4, 5, 0, time.UTC)
	_, err := m.Insert(ctx, TableImportRuns, []Row{
		{"id": "whole", "kind": "trips", "file_sha256": "a", "status": "complete", "created_at": base},
		{"id": "tenth", "kind": "trips", "file_sha256": "a", "status": "complete", "created_at": base.Add(100 * time.Millisecond)},
		{"id": "twelfth", "kind": "trips", "file_sha256": "a", "status": "complete", "created_at": base.Add(120 * time.Millisecond)},
	})
	require.NoError(t, err)

	rows, err := m.Query(ctx, Query{Table: TableImportRuns, Filters: []Filter{Gte("created_at", base.Add(110*time.Millisecond))}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "twelfth", rows[0]["id"])

	rows, err = m.Query(ctx, Query{Table: TableImportRuns, OrderBy: []Order{{Column: "created_at", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "twelfth", rows[0]["id"])
	assert.Equal(t, "whole", rows[2]["id"])
}

func TestEncodeTimeIsFixedWidth(t *testing.T) {
	enc := encoding{}
	a, err := enc.value(KindTime, time.Date(2024, 5, 2, 13, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	b, err := enc.value(KindTime, time.Date(2024, 5, 2, 13, 4, 5, 120000000, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02T13:04:05.000000000Z", a)
	assert.Equal(t, "2024-05-02T13:04:05.120000000Z", b)
	assert.Less(t, a.(string), b.(string))
}

func TestMemory_QueryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, TableClients, []Row{{"nombre": "Cosio"}})
	require.NoError(t, err)

	rows, err := m.Query(ctx, Query{Table: TableClients})
	require.NoError(t, err)
	rows[0]["nombre"] = "changed"

	rows, err = m.Query(ctx, Query{Table: TableClients})
	require.NoError(t, err)
	assert.Equal(t, "Cosio", rows[0]["nombre"])
}

func TestMemory_UpdateDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Insert(ctx, TableRoutes, []Row{{"origen": "A", "destino": "B"}, {"origen": "A", "destino": "C"}})
	require.NoError(t, err)

	n, err := m.Update(ctx, TableRoutes, []Filter{Eq("origen", "A")}, Row{"km_estimados": 120})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = m.Delete(ctx, TableRoutes, []Filter{Eq("destino", "B")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := m.Query(ctx, Query{Table: TableRoutes})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 120.0, rows[0]["km_estimados"])

	_, err = m.Delete(ctx, TableRoutes, nil)
	assert.Error(t, err)
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Query(ctx, Query{Table: "camiones"})
	assert.ErrorContains(t, err, "unknown table")

	_, err = m.Insert(ctx, TableTrips, []Row{{"patente": "AB1234"}})
	assert.ErrorContains(t, err, "unknown column")

	_, err = m.Query(ctx, Query{Table: TableTrips, Filters: []Filter{Contains("monto_neto", "1")}})
	assert.ErrorContains(t, err, "non-text")

	_, err = m.Insert(ctx, TableTrips, []Row{{"id_cliente": 1.5}})
	assert.Error(t, err)
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Query(ctx, Query{Table: TableClients})
	assert.Error(t, err)
}
