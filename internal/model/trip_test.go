package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsedTrip_Endpoints(t *testing.T) {
	trip := ParsedTrip{RouteLabel: RouteLabel("STI", "VLD")}
	assert.Equal(t, "STI -> VLD", trip.RouteLabel)

	origin, dest, ok := trip.Endpoints()
	assert.True(t, ok)
	assert.Equal(t, "STI", origin)
	assert.Equal(t, "VLD", dest)

	_, _, ok = ParsedTrip{RouteLabel: "STI"}.Endpoints()
	assert.False(t, ok)
}

func TestParsedTrip_Trip(t *testing.T) {
	route := int64(4)
	got := ParsedTrip{
		Date: "2024-01-15", ClientID: 2, ClientName: "Cosio SpA", RouteID: &route,
		RouteLabel: "A -> B", Notes: "Contenedor: MSCU 1234567", Amount: 95000,
	}.Trip()
	assert.Equal(t, Trip{
		Date: "2024-01-15", ClientID: 2, RouteID: &route, Status: TripStatusFinished,
		NetAmount: 95000, Notes: "Contenedor: MSCU 1234567",
	}, got)

	assert.Nil(t, ParsedTrip{Date: "2024-01-15"}.Trip().RouteID)
}

func TestParsedExpense_Expense(t *testing.T) {
	got := ParsedExpense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO PUERTO", Amount: 30000,
		Provider: "ACME", Container: "TGHU 9876543",
	}.Expense()
	assert.Equal(t, Expense{
		Date: "2024-03-01", Type: "PORTEO", Description: "PORTEO PUERTO", Amount: 30000, Provider: "ACME",
	}, got)
}
