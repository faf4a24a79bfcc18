package reference

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/store"
)

// RouteCreationFailed reports that a missing route could not be inserted.
// The trip is kept with no route.
type RouteCreationFailed struct {
	Origin      string
	Destination string
	Err         error
}

func (e *RouteCreationFailed) Error() string {
	return fmt.Sprintf("reference: create route %s: %v", model.RouteLabel(e.Origin, e.Destination), e.Err)
}

func (e *RouteCreationFailed) Unwrap() error { return e.Err }

// RouteResolution is the outcome of ResolveRoute. RouteID is nil when the
// route could not be resolved; Err then explains why.
type RouteResolution struct {
	RouteID *int64
	Created bool
	Err     error
}

// Resolved reports whether a route id was found or created.
func (r RouteResolution) Resolved() bool { return r.RouteID != nil }

// Resolver maps trip corridors to route ids and backfills prices.
type Resolver struct {
	st   store.Store
	snap *Snapshot
}

// NewResolver returns a Resolver that reads from snap and creates missing
// routes in st.
func NewResolver(st store.Store, snap *Snapshot) *Resolver {
	return &Resolver{st: st, snap: snap}
}

// ResolveRoute finds the route for origin/destination, inserting a new
// route with zero distance and zero suggested tariff when none exists.
func (r *Resolver) ResolveRoute(ctx context.Context, origin, destination string) RouteResolution {
	origin = normalize.Canon(origin)
	destination = normalize.Canon(destination)

	if id, ok := r.snap.FindRoute(origin, destination); ok {
		return RouteResolution{RouteID: &id}
	}

	rows, err := r.st.Insert(ctx, store.TableRoutes, []store.Row{{
		"origen":          origin,
		"destino":         destination,
		"km_estimados":    0.0,
		"tarifa_sugerida": 0.0,
	}})
	if err == nil && len(rows) == 0 {
		err = eris.New("insert returned no row")
	}
	if err != nil {
		failed := &RouteCreationFailed{Origin: origin, Destination: destination, Err: err}
		zap.L().Warn("reference: route creation failed, trip keeps no route",
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.Error(err),
		)
		return RouteResolution{Err: failed}
	}

	route := routeFromRow(rows[0])
	r.snap.mu.Lock()
	r.snap.addRoute(route)
	r.snap.mu.Unlock()

	zap.L().Info("reference: created route",
		zap.Int64("id_ruta", route.ID),
		zap.String("route", model.RouteLabel(origin, destination)),
	)
	id := route.ID
	return RouteResolution{RouteID: &id, Created: true}
}

// ResolvePrice returns the client's agreed tariff for the route, else the
// route's suggested tariff, else 0. A nil route prices at 0.
func (r *Resolver) ResolvePrice(clientID int64, routeID *int64) float64 {
	if routeID == nil {
		return 0
	}
	if amt, ok := r.snap.Tariff(clientID, *routeID); ok {
		return amt
	}
	if route, ok := r.snap.Route(*routeID); ok {
		return route.SuggestedTariff
	}
	return 0
}
