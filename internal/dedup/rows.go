package dedup

import (
	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/store"
)

func tripFromRow(r store.Row) model.Trip {
	return model.Trip{
		ID:        r.Int("id_viaje"),
		Date:      r.String("fecha"),
		ClientID:  r.Int("id_cliente"),
		RouteID:   r.IntPtr("id_ruta"),
		Status:    r.String("estado"),
		NetAmount: r.Float("monto_neto"),
		Notes:     r.String("observaciones"),
	}
}

func expenseFromRow(r store.Row) model.Expense {
	return model.Expense{
		ID:          r.Int("id_gasto"),
		Date:        r.String("fecha"),
		Type:        r.String("tipo_gasto"),
		Description: r.String("descripcion"),
		Amount:      r.Float("monto"),
		Provider:    r.String("proveedor"),
	}
}
