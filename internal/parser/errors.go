package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownFormat is returned for a trip layout tag no parser handles.
var ErrUnknownFormat = eris.New("parser: unknown trip format")

// MalformedInputError reports bytes that cannot be read as the declared
// spreadsheet layout.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SheetNotFoundError reports a workbook without the expected worksheet.
type SheetNotFoundError struct {
	Wanted    string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found; available sheets: %s", e.Wanted, strings.Join(e.Available, ", "))
}

// HeaderNotFoundError reports a worksheet whose header row could not be
// located within the scan window.
type HeaderNotFoundError struct {
	Sheet    string
	Window   int
	Expected []string
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("columns FECHA and MONTO not found in the first %d rows of sheet %q; expected columns: %s",
		e.Window, e.Sheet, strings.Join(e.Expected, ", "))
}

// IsInputError reports whether err describes a problem with the uploaded
// file itself, as opposed to an infrastructure failure.
func IsInputError(err error) bool {
	var (
		mal    *MalformedInputError
		sheet  *SheetNotFoundError
		header *HeaderNotFoundError
	)
	return eris.Is(err, ErrUnknownFormat) || errors.As(err, &mal) || errors.As(err, &sheet) || errors.As(err, &header)
}
