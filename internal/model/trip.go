package model

import "strings"

// TripStatusFinished is the status stamped on every imported trip.
const TripStatusFinished = "Finalizado"

// RouteSeparator joins origin and destination in a trip's route label.
const RouteSeparator = " -> "

// ParsedTrip is a trip row read from a vendor spreadsheet, before it is
// resolved against the record store.
type ParsedTrip struct {
	Date       string  `json:"fecha"`
	ClientID   int64   `json:"id_cliente"`
	ClientName string  `json:"cliente_nombre,omitempty"`
	RouteID    *int64  `json:"id_ruta"`
	RouteLabel string  `json:"ruta_nombre"`
	Notes      string  `json:"observaciones"`
	Amount     float64 `json:"monto"`
}

// RouteLabel builds the "<ORIGIN> -> <DESTINATION>" label for a corridor.
func RouteLabel(origin, destination string) string {
	return origin + RouteSeparator + destination
}

// Endpoints splits the route label back into origin and destination.
// ok is false when the label does not contain the separator.
func (t ParsedTrip) Endpoints() (origin, destination string, ok bool) {
	origin, destination, ok = strings.Cut(t.RouteLabel, RouteSeparator)
	return origin, destination, ok
}

// Trip returns the row t becomes once imported. The parsed amount is the
// net amount and the status is always TripStatusFinished.
func (t ParsedTrip) Trip() Trip {
	return Trip{
		Date:      t.Date,
		ClientID:  t.ClientID,
		RouteID:   t.RouteID,
		Status:    TripStatusFinished,
		NetAmount: t.Amount,
		Notes:     t.Notes,
	}
}

// Trip is the persisted form of a trip.
type Trip struct {
	ID        int64   `json:"id_viaje"`
	Date      string  `json:"fecha"`
	ClientID  int64   `json:"id_cliente"`
	RouteID   *int64  `json:"id_ruta"`
	Status    string  `json:"estado"`
	NetAmount float64 `json:"monto_neto"`
	Notes     string  `json:"observaciones,omitempty"`
}
