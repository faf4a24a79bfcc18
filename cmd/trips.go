package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/fleet-import/internal/ingest"
)

var (
	tripsOpts     importOptions
	tripsFormat   string
	tripsClientID int64
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Import trips from a TOBAR (A) or COSIO (B) workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		data, err := readWorkbook(tripsOpts.file)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		orch := ingest.New(st, cfg.Import)
		sess, err := orch.PreviewTrips(ctx, data, tripsFormat, tripsClientID)
		if err != nil {
			return err
		}
		return runImport(ctx, os.Stdin, cmd.OutOrStdout(), sess, tripsOpts, orch.Options().PreviewLimit)
	},
}

func init() {
	tripsOpts.register(tripsCmd)
	tripsCmd.Flags().StringVar(&tripsFormat, "format", "", "sheet layout: A/TOBAR or B/COSIO (required)")
	tripsCmd.Flags().Int64Var(&tripsClientID, "client", 0, "client id the trips belong to (required)")
	_ = tripsCmd.MarkFlagRequired("format")
	_ = tripsCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(tripsCmd)
}
