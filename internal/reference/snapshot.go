// Package reference resolves trip rows against the route, tariff and
// client tables.
package reference

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/store"
)

type corridor struct {
	origin      string
	destination string
}

type tariffKey struct {
	clientID int64
	routeID  int64
}

// Snapshot is the reference data loaded once per import session. Routes
// created during the session are appended so later rows reuse them.
type Snapshot struct {
	mu        sync.RWMutex
	routes    map[int64]model.Route
	corridors map[corridor]int64
	tariffs   map[tariffKey]float64
	clients   map[int64]model.Client
}

// NewSnapshot builds a Snapshot from already-loaded reference rows.
func NewSnapshot(routes []model.Route, tariffs []model.Tariff, clients []model.Client) *Snapshot {
	s := &Snapshot{
		routes:    make(map[int64]model.Route, len(routes)),
		corridors: make(map[corridor]int64, len(routes)),
		tariffs:   make(map[tariffKey]float64, len(tariffs)),
		clients:   make(map[int64]model.Client, len(clients)),
	}
	for _, r := range routes {
		s.addRoute(r)
	}
	for _, t := range tariffs {
		k := tariffKey{t.ClientID, t.RouteID}
		// First tariff wins, matching a limit-1 lookup.
		if _, ok := s.tariffs[k]; !ok {
			s.tariffs[k] = t.AgreedAmount
		}
	}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

// Load fetches routes, tariffs and clients concurrently.
func Load(ctx context.Context, st store.Store) (*Snapshot, error) {
	var (
		routes  []model.Route
		tariffs []model.Tariff
		clients []model.Client
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := st.Query(gCtx, store.Query{Table: store.TableRoutes, OrderBy: []store.Order{{Column: "id_ruta"}}})
		if err != nil {
			return eris.Wrap(err, "reference: load routes")
		}
		routes = make([]model.Route, len(rows))
		for i, r := range rows {
			routes[i] = routeFromRow(r)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := st.Query(gCtx, store.Query{Table: store.TableTariffs, OrderBy: []store.Order{{Column: "id_tarifa"}}})
		if err != nil {
			return eris.Wrap(err, "reference: load tariffs")
		}
		tariffs = make([]model.Tariff, len(rows))
		for i, r := range rows {
			tariffs[i] = model.Tariff{
				ClientID:     r.Int("id_cliente"),
				RouteID:      r.Int("id_ruta"),
				AgreedAmount: r.Float("monto_pactado"),
			}
		}
		return nil
	})
	g.Go(func() error {
		rows, err := st.Query(gCtx, store.Query{Table: store.TableClients, OrderBy: []store.Order{{Column: "nombre"}}})
		if err != nil {
			return eris.Wrap(err, "reference: load clients")
		}
		clients = make([]model.Client, len(rows))
		for i, r := range rows {
			clients[i] = model.Client{ID: r.Int("id_cliente"), Name: r.String("nombre"), Alias: r.String("alias")}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("reference: snapshot loaded",
		zap.Int("routes", len(routes)),
		zap.Int("tariffs", len(tariffs)),
		zap.Int("clients", len(clients)),
	)
	return NewSnapshot(routes, tariffs, clients), nil
}

func routeFromRow(r store.Row) model.Route {
	return model.Route{
		ID:              r.Int("id_ruta"),
		Origin:          r.String("origen"),
		Destination:     r.String("destino"),
		EstimatedKm:     r.Float("km_estimados"),
		SuggestedTariff: r.Float("tarifa_sugerida"),
		KmPerLiter:      r.FloatPtr("rendimiento_km_l"),
		CostPerKm:       r.FloatPtr("costo_por_km"),
	}
}

func (s *Snapshot) addRoute(r model.Route) {
	s.routes[r.ID] = r
	k := corridor{normalize.Canon(r.Origin), normalize.Canon(r.Destination)}
	if _, ok := s.corridors[k]; !ok {
		s.corridors[k] = r.ID
	}
}

// FindRoute returns the id of the route for an exact, case-insensitive
// origin/destination pair.
func (s *Snapshot) FindRoute(origin, destination string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.corridors[corridor{normalize.Canon(origin), normalize.Canon(destination)}]
	return id, ok
}

// Route returns the route with the given id.
func (s *Snapshot) Route(id int64) (model.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[id]
	return r, ok
}

// Tariff returns the agreed amount for a client on a route.
func (s *Snapshot) Tariff(clientID, routeID int64) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	amt, ok := s.tariffs[tariffKey{clientID, routeID}]
	return amt, ok
}

// Client returns the client with the given id.
func (s *Snapshot) Client(id int64) (model.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	return c, ok
}

// Clients returns every client ordered by name.
func (s *Snapshot) Clients() []model.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
