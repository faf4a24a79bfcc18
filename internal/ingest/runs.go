package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/store"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = eris.New("ingest: import run not found")

// RunFilter narrows a ledger listing. Zero fields match everything.
type RunFilter struct {
	Kind   model.ImportKind
	Status model.ImportRunStatus
	Since  time.Time
	Limit  int
}

// ListRuns returns ledger entries, newest first.
func ListRuns(ctx context.Context, st store.Store, f RunFilter) ([]model.ImportRun, error) {
	var filters []store.Filter
	if f.Kind != "" {
		filters = append(filters, store.Eq("kind", string(f.Kind)))
	}
	if f.Status != "" {
		filters = append(filters, store.Eq("status", string(f.Status)))
	}
	if !f.Since.IsZero() {
		filters = append(filters, store.Gte("created_at", f.Since))
	}
	rows, err := st.Query(ctx, store.Query{
		Table:   store.TableImportRuns,
		Filters: filters,
		OrderBy: []store.Order{{Column: "created_at", Desc: true}},
		Limit:   f.Limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: list import runs")
	}
	runs := make([]model.ImportRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, *runFromRow(r))
	}
	return runs, nil
}

// GetRun loads one ledger entry by id.
func GetRun(ctx context.Context, st store.Store, id string) (*model.ImportRun, error) {
	rows, err := st.Query(ctx, store.Query{
		Table:   store.TableImportRuns,
		Filters: []store.Filter{store.Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: get import run")
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrRunNotFound, "id %s", id)
	}
	return runFromRow(rows[0]), nil
}
