package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a read against a path that has never been written.
// It is distinct from an empty history: appends always write the header, so
// an existing file has at least one line.
var ErrNotFound = errors.New("history file does not exist")

// WriteError wraps any failure to durably append a sample. Previously
// committed rows are untouched when it is returned.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("append to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CorruptError reports the first unreadable line of a history file. The
// whole read fails rather than returning partial history.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }
