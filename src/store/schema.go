package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/matthewb96/NetSpeedGraphs/src/types"
)

// Column maps a canonical field name to the exact header label persisted on
// disk.
type Column struct {
	Name  string
	Label string
}

// Schema declares the on-disk layout of a history file: the field
// delimiter, the four columns in order, and the timestamp layout. It is an
// immutable descriptor handed to a Store at construction; nothing about the
// layout is ambient state.
type Schema struct {
	Delimiter rune
	Columns   [4]Column
	// TimeLayout formats timestamps on write: timezone-naive wall-clock
	// time with a fixed six-digit microsecond fraction.
	TimeLayout string
}

// DefaultSchema is the layout every history file uses.
func DefaultSchema() Schema {
	return Schema{
		Delimiter: ',',
		Columns: [4]Column{
			{Name: "time", Label: "Time"},
			{Name: "ping", Label: "Ping (ms)"},
			{Name: "download", Label: "Download Speed (Mbs)"},
			{Name: "upload", Label: "Upload Speed (Mbs)"},
		},
		TimeLayout: "2006-01-02T15:04:05.000000",
	}
}

func (s Schema) headerRecord() []string {
	record := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		record[i] = col.Label
	}
	return record
}

// validateHeader checks a header record against the declared columns.
// Comparison is tolerant of case and whitespace variance but nothing else:
// a renamed or reordered column is corruption, not a schema to infer.
func (s Schema) validateHeader(record []string) error {
	if len(record) != len(s.Columns) {
		return fmt.Errorf("header has %d columns, want %d", len(record), len(s.Columns))
	}
	for i, col := range s.Columns {
		if normalizeLabel(record[i]) != normalizeLabel(col.Label) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, strings.TrimSpace(record[i]), col.Label)
		}
	}
	return nil
}

func (s Schema) formatRow(sample types.Sample) []string {
	return []string{
		sample.Timestamp.Format(s.TimeLayout),
		formatValue(sample.PingMs),
		formatValue(sample.DownloadMbps),
		formatValue(sample.UploadMbps),
	}
}

func (s Schema) parseRow(record []string) (types.Sample, error) {
	var sample types.Sample
	if len(record) != len(s.Columns) {
		return sample, fmt.Errorf("row has %d fields, want %d", len(record), len(s.Columns))
	}
	ts, err := s.parseTime(strings.TrimSpace(record[0]))
	if err != nil {
		return sample, fmt.Errorf("bad %s value %q", s.Columns[0].Name, strings.TrimSpace(record[0]))
	}
	ping, err := s.parseValue(s.Columns[1], record[1])
	if err != nil {
		return sample, err
	}
	download, err := s.parseValue(s.Columns[2], record[2])
	if err != nil {
		return sample, err
	}
	upload, err := s.parseValue(s.Columns[3], record[3])
	if err != nil {
		return sample, err
	}
	sample = types.Sample{
		Timestamp: ts,
		Measurement: types.Measurement{
			PingMs:       ping,
			DownloadMbps: download,
			UploadMbps:   upload,
		},
	}
	return sample, nil
}

// parseTime accepts the write layout with the fractional part optional.
// Naive timestamps are interpreted in local time, matching how the writer
// produced them.
func (s Schema) parseTime(v string) (time.Time, error) {
	layout := strings.Replace(s.TimeLayout, ".000000", ".999999", 1)
	return time.ParseInLocation(layout, v, time.Local)
}

func (s Schema) parseValue(col Column, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", col.Name, strings.TrimSpace(raw))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bad %s value %q: not a finite number", col.Name, strings.TrimSpace(raw))
	}
	return v, nil
}

// formatValue keeps the shortest decimal form that round-trips, so 87.1
// stays "87.1" on disk.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeLabel folds a header cell for comparison: surrounding and
// repeated whitespace and letter case do not count as schema changes.
func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
