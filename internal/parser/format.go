package parser

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/workbook"
)

// TripFormat identifies a vendor trip spreadsheet layout.
type TripFormat string

const (
	// FormatTobar is layout "A": header on row 24, columns A:H, container
	// split across two columns, no amount.
	FormatTobar TripFormat = "TOBAR"
	// FormatCosio is layout "B": header on row 10, columns A:G, single
	// container column and an amount.
	FormatCosio TripFormat = "COSIO"
)

// Formats lists the supported trip layouts.
var Formats = []TripFormat{FormatTobar, FormatCosio}

// ParseTripFormat accepts the layout name or its letter, case-insensitively.
func ParseTripFormat(s string) (TripFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", string(FormatTobar):
		return FormatTobar, nil
	case "B", string(FormatCosio):
		return FormatCosio, nil
	default:
		return "", eris.Wrapf(ErrUnknownFormat, "%q (supported: A/%s, B/%s)", s, FormatTobar, FormatCosio)
	}
}

// TripParser turns an uploaded workbook into parsed trips.
type TripParser interface {
	Format() TripFormat
	ParseTrips(data []byte) ([]model.ParsedTrip, error)
}

// NewTripParser returns the parser for a layout.
func NewTripParser(format TripFormat) (TripParser, error) {
	switch format {
	case FormatTobar:
		return &tripLayout{
			format:    FormatTobar,
			headerRow: 23,
			lastCol:   7,
			container: func(r record) string {
				sigla := strings.TrimSpace(r.text("SIGLA CONTENEDOR"))
				numero := strings.TrimSpace(r.text("NUMERO CONTENEDOR"))
				return strings.TrimSpace(sigla + " " + numero)
			},
		}, nil
	case FormatCosio:
		return &tripLayout{
			format:    FormatCosio,
			headerRow: 9,
			lastCol:   6,
			container: func(r record) string {
				return strings.TrimSpace(r.text("CONTENEDOR"))
			},
			amount: func(r record) float64 {
				return normalize.ParseAmount(r.value("MONTO"))
			},
		}, nil
	default:
		return nil, eris.Wrapf(ErrUnknownFormat, "no parser available for %q", format)
	}
}

// record is one data row keyed by folded header label.
type record map[string]any

func (r record) value(label string) any { return r[label] }

func (r record) text(label string) string { return cellText(r[label]) }

// cellText renders a cell the way the vendor sheets are read: blank cells
// (including a numeric zero) become "".
func cellText(v any) string {
	if workbook.Blank(v) {
		return ""
	}
	return workbook.Text(v)
}
