package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/fleet-import/internal/ingest"
)

var expensesOpts importOptions

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Import expenses from the input_costos sheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		data, err := readWorkbook(expensesOpts.file)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		orch := ingest.New(st, cfg.Import)
		sess, err := orch.PreviewExpenses(ctx, data)
		if err != nil {
			return err
		}
		return runImport(ctx, os.Stdin, cmd.OutOrStdout(), sess, expensesOpts, orch.Options().PreviewLimit)
	},
}

func init() {
	expensesOpts.register(expensesCmd)
	rootCmd.AddCommand(expensesCmd)
}
