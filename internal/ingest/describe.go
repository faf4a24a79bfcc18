package ingest

import (
	"fmt"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
)

// Describe renders a skipped record as a one-line "fecha - label - $monto"
// summary.
func Describe(record any) string {
	switch r := record.(type) {
	case model.ParsedTrip:
		return fmt.Sprintf("%s - %s - %s", r.Date, r.RouteLabel, normalize.FormatCLP(r.Amount))
	case model.ParsedExpense:
		return fmt.Sprintf("%s - %s - %s", r.Date, r.Description, normalize.FormatCLP(r.Amount))
	}
	return fmt.Sprint(record)
}
