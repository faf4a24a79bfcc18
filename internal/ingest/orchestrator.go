// Package ingest drives an upload from parse through preview to a
// confirmed, de-duplicated batch insert.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/dedup"
	"github.com/sells-group/fleet-import/internal/model"
	"github.com/sells-group/fleet-import/internal/parser"
	"github.com/sells-group/fleet-import/internal/reference"
	"github.com/sells-group/fleet-import/internal/store"
)

// Options tunes previews and commits.
type Options struct {
	// PreviewLimit is how many expenses are duplicate-checked during preview.
	PreviewLimit int `mapstructure:"preview_limit"`
	// ExpenseBatchSize is the number of expenses per insert.
	ExpenseBatchSize int `mapstructure:"expense_batch_size"`
	// TripBatchSize is the number of trips per insert; 0 uses a bounded default.
	TripBatchSize int `mapstructure:"trip_batch_size"`
	// FuzzyTolerance is the relative amount window of the fuzzy expense check.
	FuzzyTolerance float64 `mapstructure:"fuzzy_tolerance"`
	// StrictIdempotency rejects a preview of a file already imported.
	StrictIdempotency bool `mapstructure:"strict_idempotency"`
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		PreviewLimit:     20,
		ExpenseBatchSize: 50,
		FuzzyTolerance:   dedup.DefaultTolerance,
	}
}

// Orchestrator creates import sessions against a store.
type Orchestrator struct {
	st       store.Store
	opts     Options
	detector *dedup.Detector
	now      func() time.Time
}

// New returns an Orchestrator. Zero option values fall back to defaults.
func New(st store.Store, opts Options) *Orchestrator {
	def := DefaultOptions()
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = def.PreviewLimit
	}
	if opts.ExpenseBatchSize <= 0 {
		opts.ExpenseBatchSize = def.ExpenseBatchSize
	}
	if opts.TripBatchSize < 0 {
		opts.TripBatchSize = 0
	}
	if opts.FuzzyTolerance <= 0 {
		opts.FuzzyTolerance = def.FuzzyTolerance
	}
	return &Orchestrator{
		st:       st,
		opts:     opts,
		detector: dedup.NewDetector(st, opts.FuzzyTolerance),
		now:      time.Now,
	}
}

// Options returns the effective settings.
func (o *Orchestrator) Options() Options { return o.opts }

// PreviewTrips parses a trip workbook in the given layout, resolves routes
// and prices for clientID and returns a session ready to confirm.
func (o *Orchestrator) PreviewTrips(ctx context.Context, data []byte, format string, clientID int64) (*Session, error) {
	tf, err := parser.ParseTripFormat(format)
	if err != nil {
		return nil, err
	}
	p, err := parser.NewTripParser(tf)
	if err != nil {
		return nil, err
	}
	trips, err := p.ParseTrips(data)
	if err != nil {
		return nil, err
	}

	snap, err := reference.Load(ctx, o.st)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load reference data")
	}
	client, ok := snap.Client(clientID)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownClient, "id %d", clientID)
	}

	s := o.newSession(model.ImportKindTrips, data)
	s.Format = string(tf)
	s.ClientID = client.ID
	s.ClientName = client.Name

	resolver := reference.NewResolver(o.st, snap)
	for i := range trips {
		t := &trips[i]
		t.ClientID = client.ID
		t.ClientName = s.ClientName

		origin, destination, ok := t.Endpoints()
		if !ok {
			continue
		}
		res := resolver.ResolveRoute(ctx, origin, destination)
		if res.Err != nil {
			s.warnings = append(s.warnings, res.Err.Error())
		}
		if res.Created {
			s.routesCreated++
		}
		t.RouteID = res.RouteID
		if t.Amount == 0 {
			t.Amount = resolver.ResolvePrice(client.ID, t.RouteID)
		}
	}
	s.trips = trips

	if err := o.checkLedger(ctx, s); err != nil {
		return nil, err
	}
	s.state = StateParsed

	zap.L().Info("ingest: trips previewed",
		zap.String("session", s.ID),
		zap.String("format", s.Format),
		zap.Int64("client", s.ClientID),
		zap.Int("trips", len(trips)),
		zap.Int("routes_created", s.routesCreated),
	)
	return s, nil
}

// PreviewExpenses parses the costs workbook and duplicate-checks the first
// PreviewLimit expenses. The rest are checked on confirm.
func (o *Orchestrator) PreviewExpenses(ctx context.Context, data []byte) (*Session, error) {
	expenses, err := parser.ParseExpenses(data)
	if err != nil {
		return nil, err
	}

	s := o.newSession(model.ImportKindExpenses, data)
	s.expenses = expenses

	n := min(o.opts.PreviewLimit, len(expenses))
	for i := 0; i < n; i++ {
		v := o.detector.CheckExpense(ctx, expenses[i])
		if v.Duplicate {
			s.duplicates = append(s.duplicates, PreviewDuplicate{Index: i, Record: expenses[i], Verdict: v})
		}
	}

	if err := o.checkLedger(ctx, s); err != nil {
		return nil, err
	}
	s.state = StateParsed

	zap.L().Info("ingest: expenses previewed",
		zap.String("session", s.ID),
		zap.Int("expenses", len(expenses)),
		zap.Int("checked", n),
		zap.Int("duplicates", len(s.duplicates)),
	)
	return s, nil
}

func (o *Orchestrator) newSession(kind model.ImportKind, data []byte) *Session {
	sum := sha256.Sum256(data)
	return &Session{
		ID:         uuid.NewString(),
		Kind:       kind,
		FileSHA256: hex.EncodeToString(sum[:]),
		CreatedAt:  o.now().UTC(),
		orch:       o,
		state:      StateIdle,
	}
}

// checkLedger looks for a completed run of the same file. It adds a
// warning, or fails under strict idempotency. Lookup errors only warn.
func (o *Orchestrator) checkLedger(ctx context.Context, s *Session) error {
	run, err := o.findRun(ctx, s)
	if err != nil {
		zap.L().Warn("ingest: import ledger lookup failed", zap.String("session", s.ID), zap.Error(err))
		return nil
	}
	if run == nil {
		return nil
	}
	msg := fmt.Sprintf("file already imported on %s (run %s, %d inserted)",
		run.CreatedAt.Format(time.DateTime), run.ID, run.Inserted)
	if o.opts.StrictIdempotency {
		return eris.Wrap(ErrAlreadyImported, msg)
	}
	s.warnings = append(s.warnings, msg)
	zap.L().Warn("ingest: re-upload detected", zap.String("session", s.ID), zap.String("previous_run", run.ID))
	return nil
}

func (o *Orchestrator) findRun(ctx context.Context, s *Session) (*model.ImportRun, error) {
	filters := []store.Filter{
		store.Eq("kind", string(s.Kind)),
		store.Eq("file_sha256", s.FileSHA256),
		store.Eq("status", string(model.ImportRunComplete)),
	}
	if s.Kind == model.ImportKindTrips {
		filters = append(filters, store.Eq("format", s.Format), store.Eq("client_id", s.ClientID))
	}
	rows, err := o.st.Query(ctx, store.Query{
		Table:   store.TableImportRuns,
		Filters: filters,
		OrderBy: []store.Order{{Column: "created_at", Desc: true}},
		Limit:   1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "ingest: find import run")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return runFromRow(rows[0]), nil
}

func runFromRow(r store.Row) *model.ImportRun {
	run := &model.ImportRun{
		ID:         r.String("id"),
		Kind:       model.ImportKind(r.String("kind")),
		Format:     r.String("format"),
		ClientID:   r.Int("client_id"),
		FileSHA256: r.String("file_sha256"),
		Inserted:   int(r.Int("inserted")),
		Skipped:    int(r.Int("skipped")),
		Status:     model.ImportRunStatus(r.String("status")),
	}
	if ts, ok := r["created_at"].(time.Time); ok {
		run.CreatedAt = ts
	}
	return run
}
