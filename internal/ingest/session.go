package ingest

import (
	"sync"
	"time"

	"github.com/sells-group/fleet-import/internal/dedup"
	"github.com/sells-group/fleet-import/internal/model"
)

// State is an import session's lifecycle position.
type State string

const (
	StateIdle      State = "idle"
	StateParsed    State = "parsed"
	StateConfirmed State = "confirmed"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// PreviewDuplicate is a previewed record the detector already flags.
type PreviewDuplicate struct {
	Index   int           `json:"index"`
	Record  any           `json:"record"`
	Verdict dedup.Verdict `json:"verdict"`
}

// Session holds one parsed upload between preview and confirm.
type Session struct {
	ID         string           `json:"id"`
	Kind       model.ImportKind `json:"kind"`
	Format     string           `json:"format,omitempty"`
	ClientID   int64            `json:"client_id,omitempty"`
	ClientName string           `json:"client_name,omitempty"`
	FileSHA256 string           `json:"file_sha256"`
	CreatedAt  time.Time        `json:"created_at"`

	orch *Orchestrator

	mu            sync.Mutex
	state         State
	busy          bool
	trips         []model.ParsedTrip
	expenses      []model.ParsedExpense
	duplicates    []PreviewDuplicate
	warnings      []string
	routesCreated int
	lastSummary   *model.ImportSummary
}

// View is a point-in-time copy of a session for display.
type View struct {
	ID                string                `json:"id"`
	Kind              model.ImportKind      `json:"kind"`
	State             State                 `json:"state"`
	Format            string                `json:"format,omitempty"`
	ClientID          int64                 `json:"client_id,omitempty"`
	ClientName        string                `json:"client_name,omitempty"`
	FileSHA256        string                `json:"file_sha256"`
	RecordCount       int                   `json:"record_count"`
	RoutesCreated     int                   `json:"routes_created,omitempty"`
	Trips             []model.ParsedTrip    `json:"trips,omitempty"`
	Expenses          []model.ParsedExpense `json:"expenses,omitempty"`
	PreviewDuplicates []PreviewDuplicate    `json:"preview_duplicates,omitempty"`
	Warnings          []string              `json:"warnings,omitempty"`
	LastSummary       *model.ImportSummary  `json:"last_summary,omitempty"`
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the number of records awaiting confirm.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending()
}

func (s *Session) pending() int {
	if s.Kind == model.ImportKindTrips {
		return len(s.trips)
	}
	return len(s.expenses)
}

// Trips returns a copy of the pending trips.
func (s *Session) Trips() []model.ParsedTrip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ParsedTrip(nil), s.trips...)
}

// Expenses returns a copy of the pending expenses.
func (s *Session) Expenses() []model.ParsedExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ParsedExpense(nil), s.expenses...)
}

// Warnings returns the non-fatal issues raised during preview.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// PreviewDuplicates returns the duplicates found while previewing.
func (s *Session) PreviewDuplicates() []PreviewDuplicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PreviewDuplicate(nil), s.duplicates...)
}

// View snapshots the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:                s.ID,
		Kind:              s.Kind,
		State:             s.state,
		Format:            s.Format,
		ClientID:          s.ClientID,
		ClientName:        s.ClientName,
		FileSHA256:        s.FileSHA256,
		RecordCount:       s.pending(),
		RoutesCreated:     s.routesCreated,
		Trips:             append([]model.ParsedTrip(nil), s.trips...),
		Expenses:          append([]model.ParsedExpense(nil), s.expenses...),
		PreviewDuplicates: append([]PreviewDuplicate(nil), s.duplicates...),
		Warnings:          append([]string(nil), s.warnings...),
		LastSummary:       s.lastSummary,
	}
}

// Discard drops the pending records and returns the session to idle. A
// confirm in progress cannot be discarded.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrSessionBusy
	}
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.state = StateIdle
	s.trips = nil
	s.expenses = nil
	s.duplicates = nil
}
