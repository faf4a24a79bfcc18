package ingest

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current state.
	ErrInvalidState = eris.New("ingest: invalid session state")
	// ErrSessionBusy is returned when a confirm is already running.
	ErrSessionBusy = eris.New("ingest: session busy")
	// ErrUnknownClient is returned for a client id missing from the store.
	ErrUnknownClient = eris.New("ingest: unknown client")
	// ErrAlreadyImported is returned by a preview under strict idempotency
	// when the same file was already imported.
	ErrAlreadyImported = eris.New("ingest: file already imported")
)

// CommitError reports a batch insert failure during confirm. Committed
// records stay committed; the session keeps the rest for a retry.
type CommitError struct {
	Committed int
	Remaining int
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("ingest: commit failed after %d records (%d pending): %v", e.Committed, e.Remaining, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
