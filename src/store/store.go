// Package store persists measurement history as an append-only CSV file.
//
// The format is line-oriented: appending one sample costs the same no
// matter how long the history is, and an interrupted run can only damage
// the line in flight, never rows committed by earlier runs. Rows are kept
// in append order and readers never re-sort.
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

// Store appends to and reads back a single history file. The zero value is
// not usable; construct with New. A Store holds no open file handle between
// calls, so separate processes interleave safely as long as only one of
// them appends at a time.
type Store struct {
	path   string
	schema Schema
}

// Option configures a Store.
type Option func(*Store)

// WithSchema overrides the default on-disk layout.
func WithSchema(schema Schema) Option {
	return func(s *Store) { s.schema = schema }
}

// New returns a Store for the history file at path. The file is not touched
// until the first Append.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, schema: DefaultSchema()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the history file location.
func (s *Store) Path() string { return s.path }

// Append durably appends one sample, creating the file and writing the
// header when it does not exist yet. The header check and the write share
// one handle opened in append mode, and header plus row go out in a single
// Write call, so no file ever ends up with a header and no row or rows and
// no header. A nil return means the new line is flushed to disk.
//
// Timestamps are serialized at the schema's microsecond precision; finer
// resolution is dropped.
func (s *Store) Append(sample types.Sample) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = s.schema.Delimiter
	if info.Size() == 0 {
		if err := w.Write(s.schema.headerRecord()); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	}
	if err := w.Write(s.schema.formatRow(sample)); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	log.Debugf("appended sample %s to %s", sample.Timestamp.Format(s.schema.TimeLayout), s.path)
	return nil
}

// ReadAll parses the whole history file and returns its samples in on-disk
// order. Reading twice without an intervening Append yields identical
// results. A missing file is ErrNotFound; a file holding only the header
// yields an empty, non-nil History. Any unreadable line fails the whole
// read with a CorruptError naming that line, because partial history would
// silently mislead whatever renders it.
func (s *Store) ReadAll() (types.History, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.schema.Delimiter
	r.FieldsPerRecord = len(s.schema.Columns)

	header, err := r.Read()
	if err == io.EOF {
		return nil, &CorruptError{Path: s.path, Line: 1, Err: errors.New("missing header")}
	}
	if err != nil {
		return nil, s.corrupt(err)
	}
	if err := s.schema.validateHeader(header); err != nil {
		line, _ := r.FieldPos(0)
		return nil, &CorruptError{Path: s.path, Line: line, Err: err}
	}

	history := types.History{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			log.Debugf("read %d samples from %s", len(history), s.path)
			return history, nil
		}
		if err != nil {
			return nil, s.corrupt(err)
		}
		line, _ := r.FieldPos(0)
		sample, err := s.schema.parseRow(record)
		if err != nil {
			return nil, &CorruptError{Path: s.path, Line: line, Err: err}
		}
		history = append(history, sample)
	}
}

// corrupt wraps a csv reader failure, keeping the parser's own line number
// when it has one.
func (s *Store) corrupt(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &CorruptError{Path: s.path, Line: perr.Line, Err: perr.Err}
	}
	return &CorruptError{Path: s.path, Err: err}
}
