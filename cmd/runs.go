package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fleet-import/internal/ingest"
	"github.com/sells-group/fleet-import/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the import ledger",
	Long:  "Commands for listing, viewing, and summarizing recorded import runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		kind, _ := cmd.Flags().GetString("kind")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := ingest.ListRuns(ctx, st, ingest.RunFilter{
			Kind:   model.ImportKind(kind),
			Status: model.ImportRunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := ingest.GetRun(ctx, st, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate import statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		filter := ingest.RunFilter{Limit: 10000}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		runs, err := ingest.ListRuns(ctx, st, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(cmd.OutOrStdout(), computeRunStats(runs))
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("kind", "", "filter by import kind (trips, expenses)")
	runsListCmd.Flags().String("status", "", "filter by run status (complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (e.g. 24h, 168h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total    int
	Complete int
	Failed   int
	Trips    int
	Expenses int
	Inserted int
	Skipped  int
}

func computeRunStats(runs []model.ImportRun) runStats {
	var s runStats
	s.Total = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.ImportRunComplete:
			s.Complete++
		case model.ImportRunFailed:
			s.Failed++
		}
		if r.Kind == model.ImportKindTrips {
			s.Trips++
		} else {
			s.Expenses++
		}
		s.Inserted += r.Inserted
		s.Skipped += r.Skipped
	}
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.ImportRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tFORMAT\tCLIENT\tSTATUS\tINSERTED\tSKIPPED\tCREATED\tFILE")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t------\t--------\t-------\t-------\t----")

	for _, r := range runs {
		client := ""
		if r.ClientID != 0 {
			client = fmt.Sprint(r.ClientID)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Kind,
			r.Format,
			client,
			r.Status,
			r.Inserted,
			r.Skipped,
			r.CreatedAt.Format("2006-01-02 15:04"),
			truncateID(r.FileSHA256),
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Trip imports:\t%d\n", s.Trips)
	_, _ = fmt.Fprintf(w, "Expense imports:\t%d\n", s.Expenses)
	_, _ = fmt.Fprintf(w, "Records inserted:\t%d\n", s.Inserted)
	_, _ = fmt.Fprintf(w, "Records skipped:\t%d\n", s.Skipped)
	_ = w.Flush()
}

// truncateID returns the first 8 characters of an id or hash for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
