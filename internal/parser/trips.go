package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/normalize"
	"github.com/sells-group/fleet-import/internal/workbook"
)

var requiredTripColumns = []string{"FECHA", "DESDE", "HASTA"}

// tripLayout is a fixed-offset vendor layout: the header sits on a known row
// of the first sheet and data follows until the end of the used range.
type tripLayout struct {
	format    TripFormat
	headerRow int
	lastCol   int
	container func(record) string
	amount    func(record) float64
}

func (l *tripLayout) Format() TripFormat { return l.format }

func (l *tripLayout) ParseTrips(data []byte) ([]model.ParsedTrip, error) {
	wb, err := workbook.Open(data)
	if err != nil {
		return nil, &MalformedInputError{Reason: "file is not a readable spreadsheet", Err: err}
	}
	sheet, err := wb.First()
	if err != nil {
		return nil, &MalformedInputError{Reason: "file has no sheets", Err: err}
	}
	if sheet.Rows() <= l.headerRow {
		return nil, &MalformedInputError{
			Reason: fmt.Sprintf("sheet %q has %d rows; %s header expected on row %d", sheet.Name, sheet.Rows(), l.format, l.headerRow+1),
		}
	}

	header := l.header(sheet)
	var missing []string
	for _, col := range requiredTripColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{
			Reason: fmt.Sprintf("%s header on row %d is missing columns %s", l.format, l.headerRow+1, strings.Join(missing, ", ")),
		}
	}

	var (
		trips   []model.ParsedTrip
		skipped int
	)
	for i := l.headerRow + 1; i < sheet.Rows(); i++ {
		rec := make(record, len(header))
		for label, col := range header {
			rec[label] = sheet.Cell(i, col)
		}

		trip, ok := l.trip(rec)
		if !ok {
			skipped++
			continue
		}
		trips = append(trips, trip)
	}

	zap.L().Debug("parsed trip sheet",
		zap.String("format", string(l.format)),
		zap.String("sheet", sheet.Name),
		zap.Int("trips", len(trips)),
		zap.Int("skipped_rows", skipped),
	)
	return trips, nil
}

// header maps folded labels to column indexes; the first occurrence of a
// repeated label wins.
func (l *tripLayout) header(sheet *workbook.Sheet) map[string]int {
	header := make(map[string]int)
	for c, v := range sheet.Row(l.headerRow, 0, l.lastCol) {
		label := normalize.FoldLabel(cellText(v))
		if label == "" {
			continue
		}
		if _, seen := header[label]; !seen {
			header[label] = c
		}
	}
	return header
}

func (l *tripLayout) trip(rec record) (model.ParsedTrip, bool) {
	fecha := normalize.ParseDate(rec.value("FECHA"))
	if fecha == "" {
		return model.ParsedTrip{}, false
	}

	desde := normalize.Canon(rec.text("DESDE"))
	hasta := normalize.Canon(rec.text("HASTA"))
	if desde == "" || hasta == "" || desde == "NAN" || hasta == "NAN" {
		return model.ParsedTrip{}, false
	}

	trip := model.ParsedTrip{
		Date:       fecha,
		RouteLabel: model.RouteLabel(desde, hasta),
		Notes:      normalize.ContainerNotes(l.container(rec)),
	}
	if l.amount != nil {
		trip.Amount = l.amount(rec)
	}
	return trip, true
}
