// Package report renders import previews and summaries as xlsx workbooks
// and as text, JSON or YAML.
package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/fleet-import/internal/ingest"
	"github.com/sells-group/fleet-import/internal/model"
)

// Sheet names of the xlsx report.
const (
	SheetPreview    = "Preview"
	SheetDuplicates = "Duplicados"
	SheetSkipped    = "Omitidos"
	SheetWarnings   = "Advertencias"
)

var (
	tripHeader      = []any{"Fecha", "Cliente", "Ruta", "ID Ruta", "Monto", "Observaciones"}
	expenseHeader   = []any{"Fecha", "Tipo", "Descripción", "Monto", "Proveedor", "Contenedor"}
	duplicateHeader = []any{"Fila", "Registro", "Regla", "Motivo"}
	skippedHeader   = []any{"Registro", "Regla", "Motivo"}
)

// WriteXLSX writes the session preview, its preview duplicates, the
// skipped records of the last confirm and any warnings.
func WriteXLSX(w io.Writer, v ingest.View) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", SheetPreview); err != nil {
		return eris.Wrap(err, "report: rename sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "report: header style")
	}

	var preview [][]any
	header := expenseHeader
	if v.Kind == model.ImportKindTrips {
		header = tripHeader
		for _, t := range v.Trips {
			var route any
			if t.RouteID != nil {
				route = *t.RouteID
			}
			preview = append(preview, []any{t.Date, t.ClientName, t.RouteLabel, route, t.Amount, t.Notes})
		}
	} else {
		for _, e := range v.Expenses {
			preview = append(preview, []any{e.Date, e.Type, e.Description, e.Amount, e.Provider, e.Container})
		}
	}
	if err := writeTable(f, SheetPreview, header, preview, bold); err != nil {
		return err
	}

	if len(v.PreviewDuplicates) > 0 {
		rows := make([][]any, len(v.PreviewDuplicates))
		for i, d := range v.PreviewDuplicates {
			rows[i] = []any{d.Index + 1, ingest.Describe(d.Record), string(d.Verdict.Rule), d.Verdict.Reason}
		}
		if err := addTable(f, SheetDuplicates, duplicateHeader, rows, bold); err != nil {
			return err
		}
	}

	if v.LastSummary != nil && len(v.LastSummary.SkippedDetails) > 0 {
		rows := make([][]any, len(v.LastSummary.SkippedDetails))
		for i, s := range v.LastSummary.SkippedDetails {
			rows[i] = []any{ingest.Describe(s.Record), s.Rule, s.Reason}
		}
		if err := addTable(f, SheetSkipped, skippedHeader, rows, bold); err != nil {
			return err
		}
	}

	if len(v.Warnings) > 0 {
		rows := make([][]any, len(v.Warnings))
		for i, msg := range v.Warnings {
			rows[i] = []any{msg}
		}
		if err := addTable(f, SheetWarnings, []any{"Advertencia"}, rows, bold); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return eris.Wrap(err, "report: write xlsx")
}

func addTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return eris.Wrapf(err, "report: add sheet %s", sheet)
	}
	return writeTable(f, sheet, header, rows, style)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return eris.Wrapf(err, "report: %s header", sheet)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return eris.Wrap(err, "report: header range")
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return eris.Wrapf(err, "report: %s header style", sheet)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "report: row cell")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return eris.Wrapf(err, "report: %s row %d", sheet, i+2)
		}
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return eris.Wrap(err, "report: column name")
	}
	return eris.Wrap(f.SetColWidth(sheet, "A", lastCol, 22), "report: column width")
}
