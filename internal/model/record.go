package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Well-known field names.
const (
	FieldDatetime  = "datetime"
	FieldLevel     = "level"
	FieldMessage   = "message"
	FieldTimestamp = "timestamp"
)

// DatetimeLayout is the datetime format expected by sorting, filtering and statistics.
const DatetimeLayout = "2006-01-02 15:04:05"

// Standard severity levels. The parser accepts any level string; these are
// the ones statistics always report.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// StandardLevels lists the reported levels in display order.
var StandardLevels = []string{LevelInfo, LevelWarning, LevelError}

// ErrMissingField is returned by NewRecord when a required field is absent.
var ErrMissingField = errors.New("missing required field")

// Extraction maps field names to the substrings captured from a single line.
// Fields whose pattern did not match are absent, never empty-valued.
type Extraction map[string]string

// LogRecord is a validated line: it always carries a datetime and a level.
// The zero value is not a valid record; build one with NewRecord.
type LogRecord struct {
	datetime string
	level    string
	extra    map[string]string
}

// NewRecord builds a LogRecord from extracted fields. Both datetime and level
// must be present; every other field is kept as an optional extra.
func NewRecord(fields map[string]string) (LogRecord, error) {
	dt, ok := fields[FieldDatetime]
	if !ok {
		return LogRecord{}, fmt.Errorf("%w: %s", ErrMissingField, FieldDatetime)
	}
	lvl, ok := fields[FieldLevel]
	if !ok {
		return LogRecord{}, fmt.Errorf("%w: %s", ErrMissingField, FieldLevel)
	}

	extra := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == FieldDatetime || k == FieldLevel {
			continue
		}
		extra[k] = v
	}
	return LogRecord{datetime: dt, level: lvl, extra: extra}, nil
}

func (r LogRecord) Datetime() string { return r.datetime }
func (r LogRecord) Level() string { return r.level }

// Message returns the message field, or "" when the line had none.
func (r LogRecord) Message() string { return r.extra[FieldMessage] }

// Field returns any field by name, including datetime and level.
func (r LogRecord) Field(name string) (string, bool) {
	switch name {
	case FieldDatetime:
		return r.datetime, true
	case FieldLevel:
		return r.level, true
	}
	v, ok := r.extra[name]
	return v, ok
}

// Fields returns a copy of all fields.
func (r LogRecord) Fields() map[string]string {
	out := make(map[string]string, len(r.extra)+2)
	for k, v := range r.extra {
		out[k] = v
	}
	out[FieldDatetime] = r.datetime
	out[FieldLevel] = r.level
	return out
}

// Extra returns the names of the optional fields, sorted.
func (r LogRecord) Extra() []string {
	names := make([]string, 0, len(r.extra))
	for k := range r.extra {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Time parses the datetime field with DatetimeLayout.
func (r LogRecord) Time() (time.Time, error) {
	return ParseDatetime(r.datetime)
}

// MarshalJSON encodes the record as a flat object. HTML characters are left
// as is; encoders that escape HTML still do so on the result.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Fields()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a flat object and enforces the same invariant as NewRecord.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	rec, err := NewRecord(fields)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// ParseDatetime parses s with DatetimeLayout in UTC.
func ParseDatetime(s string) (time.Time, error) {
	return time.Parse(DatetimeLayout, s)
}
