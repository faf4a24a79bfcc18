package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/store"
)

// Confirm re-checks every pending record for duplicates and inserts the
// rest in batches. Allowed from parsed or failed. On a batch failure the
// session moves to failed, keeps only the uncommitted records and a
// *CommitError is returned.
func (s *Session) Confirm(ctx context.Context) (model.ImportSummary, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return model.ImportSummary{}, ErrSessionBusy
	}
	if s.state != StateParsed && s.state != StateFailed {
		st := s.state
		s.mu.Unlock()
		return model.ImportSummary{}, eris.Wrapf(ErrInvalidState, "confirm from %s", st)
	}
	s.busy = true
	s.state = StateConfirmed
	trips := append([]model.ParsedTrip(nil), s.trips...)
	expenses := append([]model.ParsedExpense(nil), s.expenses...)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	o := s.orch
	var (
		summary model.ImportSummary
		err     error
	)
	if s.Kind == model.ImportKindTrips {
		summary, err = o.confirmTrips(ctx, s, trips)
	} else {
		summary, err = o.confirmExpenses(ctx, s, expenses)
	}

	status := model.ImportRunComplete
	if err != nil {
		status = model.ImportRunFailed
	}
	o.recordRun(ctx, s, summary, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSummary = &summary
	if err != nil {
		s.state = StateFailed
		return summary, err
	}
	s.state = StateDone
	zap.L().Info("ingest: import confirmed",
		zap.String("session", s.ID),
		zap.String("kind", string(s.Kind)),
		zap.Int("imported", summary.ImportedCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.Int("fail_open", summary.FailOpenCount),
	)
	s.reset()
	return summary, nil
}

func (o *Orchestrator) confirmTrips(ctx context.Context, s *Session, trips []model.ParsedTrip) (model.ImportSummary, error) {
	summary := model.ImportSummary{SkippedDetails: []model.SkippedRecord{}}
	var keep []model.ParsedTrip
	for _, t := range trips {
		v := o.detector.CheckTrip(ctx, t)
		if v.FailOpen {
			summary.FailOpenCount++
		}
		if v.Duplicate {
			summary.SkippedDetails = append(summary.SkippedDetails, model.SkippedRecord{
				Record: t, Reason: v.Reason, Rule: string(v.Rule),
			})
			continue
		}
		keep = append(keep, t)
	}
	summary.SkippedCount = len(summary.SkippedDetails)

	committed, err := commitBatches(ctx, o.st, store.TableTrips, keep, o.opts.TripBatchSize, func(t model.ParsedTrip) store.Row {
		return tripRow(t.Trip())
	})
	summary.ImportedCount = committed
	if err != nil {
		s.mu.Lock()
		s.trips = keep[committed:]
		s.mu.Unlock()
		return summary, &CommitError{Committed: committed, Remaining: len(keep) - committed, Err: err}
	}
	return summary, nil
}

func (o *Orchestrator) confirmExpenses(ctx context.Context, s *Session, expenses []model.ParsedExpense) (model.ImportSummary, error) {
	summary := model.ImportSummary{SkippedDetails: []model.SkippedRecord{}}
	var keep []model.ParsedExpense
	for _, e := range expenses {
		v := o.detector.CheckExpense(ctx, e)
		if v.FailOpen {
			summary.FailOpenCount++
		}
		if v.Duplicate {
			summary.SkippedDetails = append(summary.SkippedDetails, model.SkippedRecord{
				Record: e, Reason: v.Reason, Rule: string(v.Rule),
			})
			continue
		}
		keep = append(keep, e)
	}
	summary.SkippedCount = len(summary.SkippedDetails)

	committed, err := commitBatches(ctx, o.st, store.TableExpenses, keep, o.opts.ExpenseBatchSize, func(e model.ParsedExpense) store.Row {
		return expenseRow(e.Expense())
	})
	summary.ImportedCount = committed
	if err != nil {
		s.mu.Lock()
		s.expenses = keep[committed:]
		s.mu.Unlock()
		return summary, &CommitError{Committed: committed, Remaining: len(keep) - committed, Err: err}
	}
	return summary, nil
}

// defaultBatchSize bounds an insert when no batch size is configured, keeping
// a statement well under the driver's bind parameter limit.
const defaultBatchSize = 500

// commitBatches inserts records sequentially in chunks of size and returns
// how many were committed before the first failure.
func commitBatches[T any](ctx context.Context, st store.Store, table string, records []T, size int, toRow func(T) store.Row) (int, error) {
	if size <= 0 {
		size = defaultBatchSize
	}
	committed := 0
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		rows := make([]store.Row, 0, end-start)
		for _, rec := range records[start:end] {
			rows = append(rows, toRow(rec))
		}
		if _, err := st.Insert(ctx, table, rows); err != nil {
			zap.L().Error("ingest: batch insert failed",
				zap.String("table", table),
				zap.Int("batch_start", start),
				zap.Int("batch_size", len(rows)),
				zap.Int("committed", committed),
				zap.Error(err),
			)
			return committed, eris.Wrapf(err, "ingest: insert %s batch at %d", table, start)
		}
		committed += len(rows)
		zap.L().Debug("ingest: batch committed", zap.String("table", table), zap.Int("committed", committed))
	}
	return committed, nil
}

func tripRow(t model.Trip) store.Row {
	var route any
	if t.RouteID != nil {
		route = *t.RouteID
	}
	return store.Row{
		"fecha":         t.Date,
		"id_cliente":    t.ClientID,
		"id_ruta":       route,
		"estado":        t.Status,
		"monto_neto":    t.NetAmount,
		"observaciones": t.Notes,
	}
}

func expenseRow(e model.Expense) store.Row {
	return store.Row{
		"fecha":       e.Date,
		"tipo_gasto":  e.Type,
		"descripcion": e.Description,
		"monto":       e.Amount,
		"proveedor":   e.Provider,
	}
}

// recordRun writes the ledger entry. A ledger failure is logged and does
// not undo the import.
func (o *Orchestrator) recordRun(ctx context.Context, s *Session, summary model.ImportSummary, status model.ImportRunStatus) {
	row := store.Row{
		"id":          uuid.NewString(),
		"kind":        string(s.Kind),
		"file_sha256": s.FileSHA256,
		"inserted":    summary.ImportedCount,
		"skipped":     summary.SkippedCount,
		"status":      string(status),
		"created_at":  o.now().UTC(),
	}
	if s.Kind == model.ImportKindTrips {
		row["format"] = s.Format
		row["client_id"] = s.ClientID
	}
	if _, err := o.st.Insert(ctx, store.TableImportRuns, []store.Row{row}); err != nil {
		zap.L().Warn("ingest: record import run failed", zap.String("session", s.ID), zap.Error(err))
	}
}
