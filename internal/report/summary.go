package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fleet-import/internal/ingest"
	"github.com/sells-group/fleet-import/internal/model"
)

// Output formats accepted by WriteSummary and WriteView.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteSummary renders an import summary.
func WriteSummary(w io.Writer, format string, s model.ImportSummary) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatYAML:
		return writeYAML(w, jsonDoc(s))
	case FormatText, "":
		var b strings.Builder
		fmt.Fprintf(&b, "Importados: %d\n", s.ImportedCount)
		fmt.Fprintf(&b, "Omitidos:   %d\n", s.SkippedCount)
		if s.FailOpenCount > 0 {
			fmt.Fprintf(&b, "Sin verificar (error de consulta): %d\n", s.FailOpenCount)
		}
		for _, d := range s.SkippedDetails {
			fmt.Fprintf(&b, "  - %s (%s)\n", ingest.Describe(d.Record), d.Reason)
		}
		_, err := io.WriteString(w, b.String())
		return eris.Wrap(err, "report: write summary")
	}
	return eris.Errorf("report: unknown output format %q (want text, json or yaml)", format)
}

// WriteView renders a session preview.
func WriteView(w io.Writer, format string, v ingest.View, limit int) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, jsonDoc(v))
	case FormatText, "":
	default:
		return eris.Errorf("report: unknown output format %q (want text, json or yaml)", format)
	}

	var b strings.Builder
	if v.Kind == model.ImportKindTrips {
		fmt.Fprintf(&b, "%d viajes para %s (formato %s)\n", v.RecordCount, v.ClientName, v.Format)
		for i, t := range v.Trips {
			if limit > 0 && i >= limit {
				fmt.Fprintf(&b, "  ... %d más\n", len(v.Trips)-limit)
				break
			}
			fmt.Fprintf(&b, "  %s\n", ingest.Describe(t))
		}
		if v.RoutesCreated > 0 {
			fmt.Fprintf(&b, "Rutas nuevas creadas: %d\n", v.RoutesCreated)
		}
	} else {
		fmt.Fprintf(&b, "%d gastos\n", v.RecordCount)
		for i, e := range v.Expenses {
			if limit > 0 && i >= limit {
				fmt.Fprintf(&b, "  ... %d más\n", len(v.Expenses)-limit)
				break
			}
			fmt.Fprintf(&b, "  %s\n", ingest.Describe(e))
		}
		if len(v.PreviewDuplicates) > 0 {
			fmt.Fprintf(&b, "Duplicados detectados en la vista previa: %d\n", len(v.PreviewDuplicates))
			for _, d := range v.PreviewDuplicates {
				fmt.Fprintf(&b, "  - fila %d: %s (%s)\n", d.Index+1, ingest.Describe(d.Record), d.Verdict.Reason)
			}
		}
	}
	for _, msg := range v.Warnings {
		fmt.Fprintf(&b, "Advertencia: %s\n", msg)
	}
	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "report: write preview")
}

// jsonDoc round-trips v through JSON so YAML output keeps the JSON field
// names.
func jsonDoc(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return v
	}
	return doc
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: encode yaml")
}
