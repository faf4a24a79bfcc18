package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/store"
)

// mockStore routes Query through testify/mock. Writes fall through to the
// embedded memory store.
type mockStore struct {
	mock.Mock
	*store.MemoryStore
}

func (m *mockStore) Query(ctx context.Context, q store.Query) ([]store.Row, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Row), args.Error(1)
}

func onTable(table string) any {
	return mock.MatchedBy(func(q store.Query) bool { return q.Table == table })
}

func routeID(n int64) *int64 { return &n }

func insert(t *testing.T, m store.Store, table string, rows ...store.Row) {
	t.Helper()
	_, err := m.Insert(context.Background(), table, rows)
	require.NoError(t, err)
}

func TestCheckTrip_NullRouteNeverDuplicate(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableTrips, store.Row{"fecha": "2024-01-15", "id_cliente": 1, "id_ruta": nil, "observaciones": ""})

	v := NewDetector(m, 0).CheckTrip(context.Background(), model.ParsedTrip{Date: "2024-01-15", ClientID: 1})
	assert.False(t, v.Duplicate)
	assert.Equal(t, RuleRouteUnresolved, v.Rule)
}

func TestCheckTrip_Exact(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableTrips, store.Row{
		"id_viaje": 5, "fecha": "2024-01-15", "id_cliente": 1, "id_ruta": 3, "observaciones": "Contenedor: MSCU 1234567",
	})
	d := NewDetector(m, 0)

	v := d.CheckTrip(context.Background(), model.ParsedTrip{
		Date: "2024-01-15", ClientID: 1, RouteID: routeID(3), Notes: "Contenedor: MSCU 1234567",
	})
	assert.True(t, v.Duplicate)
	assert.Equal(t, RuleTripExact, v.Rule)
	assert.Equal(t, []int64{5}, v.MatchedIDs)

	v = d.CheckTrip(context.Background(), model.ParsedTrip{
		Date: "2024-01-16", ClientID: 1, RouteID: routeID(3), Notes: "Contenedor: MSCU 1234567",
	})
	assert.False(t, v.Duplicate)
}

func TestCheckTrip_ContainerAcrossUploads(t *testing.T) {
	m := store.NewMemory()
	// Stored by an earlier upload with a different route and client.
	insert(t, m, store.TableTrips, store.Row{
		"id_viaje": 8, "fecha": "2024-01-15", "id_cliente": 2, "id_ruta": 9, "observaciones": "Contenedor: MSCU 1234567",
	})
	d := NewDetector(m, 0)

	v := d.CheckTrip(context.Background(), model.ParsedTrip{
		Date: "2024-01-15", ClientID: 1, RouteID: routeID(3), Notes: "Contenedor: mscu 1234567",
	})
	assert.True(t, v.Duplicate)
	assert.Equal(t, RuleTripContainer, v.Rule)
	assert.Contains(t, v.Reason, "MSCU 1234567")
}

func TestCheckTrip_ContainerMustMatchExactly(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableTrips, store.Row{
		"fecha": "2024-01-15", "id_cliente": 2, "id_ruta": 9, "observaciones": "Contenedor: MSCU 12345678",
	})

	v := NewDetector(m, 0).CheckTrip(context.Background(), model.ParsedTrip{
		Date: "2024-01-15", ClientID: 1, RouteID: routeID(3), Notes: "Contenedor: MSCU 1234567",
	})
	assert.False(t, v.Duplicate)
}

func TestCheckTrip_FailOpen(t *testing.T) {
	st := &mockStore{MemoryStore: store.NewMemory()}
	st.On("Query", mock.Anything, onTable(store.TableTrips)).Return(nil, errors.New("connection refused")).Twice()
	d := NewDetector(st, 0)

	v := d.CheckTrip(context.Background(), model.ParsedTrip{
		Date: "2024-01-15", ClientID: 1, RouteID: routeID(3), Notes: "Contenedor: MSCU 1234567",
	})
	assert.False(t, v.Duplicate)
	assert.True(t, v.FailOpen)
	assert.Len(t, v.Errors, 2)
	st.AssertExpectations(t)
}

func TestCheckExpense_ReimportIsIdempotent(t *testing.T) {
	m := store.NewMemory()
	e := model.ParsedExpense{Date: "2024-03-01", Type: "PEAJE", Description: "PEAJE LO PRADO", Amount: 4500, Provider: "PEAJE LO PRADO"}
	insert(t, m, store.TableExpenses, store.Row{
		"id_gasto": 1, "fecha": e.Date, "tipo_gasto": e.Type, "descripcion": e.Description, "monto": e.Amount, "proveedor": e.Provider,
	})

	v := NewDetector(m, 0).CheckExpense(context.Background(), e)
	assert.True(t, v.Duplicate)
	assert.Equal(t, RuleExpenseExact, v.Rule)
}

func TestCheckExpense_FuzzyBoundaryInclusive(t *testing.T) {
	cases := []struct {
		name   string
		stored float64
		want   bool
	}{
		{"upper bound", 105, true},
		{"lower bound", 95, true},
		{"just above", 105.01, false},
		{"just below", 94.99, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := store.NewMemory()
			insert(t, m, store.TableExpenses, store.Row{
				"fecha": "2024-03-01", "tipo_gasto": "COMBUSTIBLE", "descripcion": "COPEC RUTA 68", "monto": tc.stored,
			})
			v := NewDetector(m, 0).CheckExpense(context.Background(), model.ParsedExpense{
				Date: "2024-03-01", Type: "COMBUSTIBLE", Description: "COPEC", Amount: 100,
			})
			assert.Equal(t, tc.want, v.Duplicate)
			if tc.want {
				assert.Equal(t, RuleExpenseFuzzy, v.Rule)
			}
		})
	}
}

func TestCheckExpense_FuzzyNeedsSimilarDescription(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableExpenses, store.Row{
		"fecha": "2024-03-01", "tipo_gasto": "COMBUSTIBLE", "descripcion": "SHELL", "monto": 101.0,
	})

	v := NewDetector(m, 0).CheckExpense(context.Background(), model.ParsedExpense{
		Date: "2024-03-01", Type: "COMBUSTIBLE", Description: "COPEC RUTA 68", Amount: 100,
	})
	assert.False(t, v.Duplicate)
}

func TestCheckExpense_Container(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableTrips, store.Row{"fecha": "2024-03-01", "id_cliente": 1, "observaciones": "Contenedor: TGHU 9876543"})
	insert(t, m, store.TableExpenses, store.Row{
		"id_gasto": 4, "fecha": "2024-03-01", "tipo_gasto": "PORTEO", "descripcion": "otra cosa", "monto": 99999.0,
	})

	v := NewDetector(m, 0).CheckExpense(context.Background(), model.ParsedExpense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO PUERTO", Amount: 30000, Container: "tghu 9876543",
	})
	assert.True(t, v.Duplicate)
	assert.Equal(t, RuleExpenseContainer, v.Rule)
	assert.Equal(t, []int64{4}, v.MatchedIDs)
}

func TestCheckExpense_ContainerWithoutTrip(t *testing.T) {
	m := store.NewMemory()
	insert(t, m, store.TableExpenses, store.Row{
		"fecha": "2024-03-01", "tipo_gasto": "PORTEO", "descripcion": "otra cosa", "monto": 99999.0,
	})

	v := NewDetector(m, 0).CheckExpense(context.Background(), model.ParsedExpense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO PUERTO", Amount: 30000, Container: "TGHU 9876543",
	})
	assert.False(t, v.Duplicate)
}

func TestCheckExpense_FailOpenContinuesToNextLayer(t *testing.T) {
	st := &mockStore{MemoryStore: store.NewMemory()}
	st.On("Query", mock.Anything, onTable(store.TableExpenses)).Return(nil, errors.New("connection refused")).Twice()
	st.On("Query", mock.Anything, onTable(store.TableTrips)).Return(nil, errors.New("connection refused")).Once()
	d := NewDetector(st, 0)

	v := d.CheckExpense(context.Background(), model.ParsedExpense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO", Amount: 30000, Container: "TGHU 9876543",
	})
	assert.False(t, v.Duplicate)
	assert.True(t, v.FailOpen)
	assert.Len(t, v.Errors, 3)
	assert.Contains(t, v.Errors[0].Error(), "expense_exact")
	st.AssertExpectations(t)
}

func TestCheckExpense_ContainerMatchAfterFailedLayers(t *testing.T) {
	st := &mockStore{MemoryStore: store.NewMemory()}
	st.On("Query", mock.Anything, onTable(store.TableExpenses)).Return(nil, errors.New("connection refused")).Twice()
	st.On("Query", mock.Anything, onTable(store.TableTrips)).Return([]store.Row{
		{"id_viaje": int64(7), "fecha": "2024-03-01", "id_cliente": int64(1), "observaciones": "Contenedor: TGHU 9876543"},
	}, nil).Once()
	st.On("Query", mock.Anything, onTable(store.TableExpenses)).Return([]store.Row{
		{"id_gasto": int64(4), "fecha": "2024-03-01", "tipo_gasto": "PORTEO", "monto": 28000.0},
	}, nil).Once()

	v := NewDetector(st, 0).CheckExpense(context.Background(), model.ParsedExpense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO", Amount: 30000, Container: "TGHU 9876543",
	})
	assert.True(t, v.Duplicate)
	assert.Equal(t, RuleExpenseContainer, v.Rule)
	assert.Equal(t, []int64{4}, v.MatchedIDs)
	assert.True(t, v.FailOpen)
	assert.Len(t, v.Errors, 2)
	st.AssertExpectations(t)
}

func TestBounds(t *testing.T) {
	d := NewDetector(store.NewMemory(), 0.05)
	lo, hi := d.Bounds(100)
	assert.Equal(t, 95.0, lo)
	assert.Equal(t, 105.0, hi)

	lo, hi = d.Bounds(1234567)
	assert.Equal(t, 1172838.65, lo)
	assert.Equal(t, 1296295.35, hi)
}

func TestSimilarDescription(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"peaje lo prado", "PEAJE LO PRADO", true},
		{"PEAJE LO PRADO", "PEAJE ZAPATA", true},
		{"COPEC", "COPEC RUTA 68", true},
		{"COPEC", "SHELL", false},
		{"ABC", "ABCD", false},
		{"ÁRIDOS NORTE", "ÁRIDOS SUR", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SimilarDescription(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}
