package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/ingest"
	"github.com/sells-group/fleet-import/internal/report"
)

// importOptions holds the flags shared by the trips and expenses commands.
type importOptions struct {
	file       string
	yes        bool
	reportPath string
	output     string
}

func (o *importOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.file, "file", "", "path to the .xlsx workbook (required)")
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "confirm without prompting")
	cmd.Flags().StringVar(&o.reportPath, "report", "", "write an .xlsx preview report to this path")
	cmd.Flags().StringVarP(&o.output, "output", "o", report.FormatText, "output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("file")
}

func readWorkbook(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read workbook %s", path)
	}
	return data, nil
}

// runImport shows the preview, asks for confirmation and commits the
// session. A declined prompt discards the session.
func runImport(ctx context.Context, in io.Reader, out io.Writer, sess *ingest.Session, opts importOptions, previewLimit int) error {
	if err := report.WriteView(out, opts.output, sess.View(), previewLimit); err != nil {
		return err
	}

	if opts.reportPath != "" {
		if err := writeReportFile(opts.reportPath, sess.View()); err != nil {
			return err
		}
		zap.L().Info("preview report written", zap.String("path", opts.reportPath))
	}

	if sess.Len() == 0 {
		fmt.Fprintln(out, "Nada que importar.")
		return sess.Discard()
	}

	if !opts.yes {
		ok, err := confirmPrompt(in, out, fmt.Sprintf("¿Confirmar importación de %d registros? [s/N]: ", sess.Len()))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Importación cancelada.")
			return sess.Discard()
		}
	}

	summary, err := sess.Confirm(ctx)
	if werr := report.WriteSummary(out, opts.output, summary); werr != nil && err == nil {
		err = werr
	}
	return err
}

func writeReportFile(path string, v ingest.View) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create report %s", path)
	}
	if err := report.WriteXLSX(f, v); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(f.Close(), "close report")
}

// confirmPrompt reads one answer line. Anything but s/si/y/yes declines.
func confirmPrompt(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, eris.Wrap(err, "read confirmation")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "si", "sí", "y", "yes":
		return true, nil
	}
	return false, nil
}
