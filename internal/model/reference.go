package model

// Route is an origin-destination corridor.
type Route struct {
	ID              int64    `json:"id_ruta"`
	Origin          string   `json:"origen"`
	Destination     string   `json:"destino"`
	EstimatedKm     float64  `json:"km_estimados"`
	SuggestedTariff float64  `json:"tarifa_sugerida"`
	KmPerLiter      *float64 `json:"rendimiento_km_l,omitempty"`
	CostPerKm       *float64 `json:"costo_por_km,omitempty"`
}

// Tariff is the price agreed with a client for a route.
type Tariff struct {
	ClientID     int64   `json:"id_cliente"`
	RouteID      int64   `json:"id_ruta"`
	AgreedAmount float64 `json:"monto_pactado"`
}

// Client is a customer trips are billed to.
type Client struct {
	ID    int64  `json:"id_cliente"`
	Name  string `json:"nombre"`
	Alias string `json:"alias,omitempty"`
}

