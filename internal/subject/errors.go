package subject

import (
	"errors"
	"fmt"
)

var (
	ErrNoTable             = errors.New("missing identifier table")
	ErrBadNumber           = errors.New("malformed number")
	ErrNegativeID          = errors.New("negative identifier")
	ErrNonIncreasingID     = errors.New("identifier not greater than its predecessor")
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// IngestionError reports a subject file that could not be turned into an
// e-graph. Entry names the offending part of the file, if known.
type IngestionError struct {
	File  string
	Entry string
	Err   error
}

func (e *IngestionError) Error() string {
	msg := e.Err.Error()
	if e.Entry != "" {
		msg = e.Entry + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	return msg
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func ingestionErr(file, entry string, format string, args ...any) *IngestionError {
	return &IngestionError{File: file, Entry: entry, Err: fmt.Errorf(format, args...)}
}
