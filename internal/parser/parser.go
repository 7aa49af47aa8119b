package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/patterns"
)

// Parser converts a raw log line into a structured LogRecord.
type Parser interface {
	Parse(line string) (model.LogRecord, error)
}

// ErrSkipped matches every *SkipError via errors.Is.
var ErrSkipped = errors.New("line skipped")

// SkipError reports a line that did not yield a valid record.
type SkipError struct {
	Line    string
	Missing []string // required fields absent after normalization
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("line skipped, missing %s: %s", strings.Join(e.Missing, ", "), e.Line)
}

func (e *SkipError) Is(target error) bool { return target == ErrSkipped }

// ---------------------------------------------------------------------------
// Pattern Parser (configured named-capture patterns)
// ---------------------------------------------------------------------------

// PatternParser extracts fields with a PatternSet and normalizes them into a record.
type PatternParser struct {
	set patterns.PatternSet
}

func NewPatternParser(set patterns.PatternSet) *PatternParser {
	return &PatternParser{set: set}
}

func (p *PatternParser) Parse(line string) (model.LogRecord, error) {
	return Normalize(ParseLine(line, p.set), line)
}

// ParseLine searches line with every pattern in set, in field order, and
// collects the fields that matched. Patterns that do not match are ignored,
// so the result may be empty but never fails.
func ParseLine(line string, set patterns.PatternSet) model.Extraction {
	ext := make(model.Extraction)
	for _, p := range set.Patterns() {
		loc := p.Regexp.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		// A group that did not take part in the match leaves -1 offsets.
		start, end := loc[2*p.Group], loc[2*p.Group+1]
		if start < 0 {
			continue
		}
		ext[p.Field] = line[start:end]
	}
	return ext
}

// Normalize renames timestamp to datetime and validates the result.
//
// When both fields are present datetime wins and timestamp is dropped. The
// record is built only if datetime and level are present afterwards;
// otherwise a *SkipError carrying line is returned.
func Normalize(ext model.Extraction, line string) (model.LogRecord, error) {
	fields := make(map[string]string, len(ext))
	for k, v := range ext {
		fields[k] = v
	}

	if ts, ok := fields[model.FieldTimestamp]; ok {
		if _, has := fields[model.FieldDatetime]; !has {
			fields[model.FieldDatetime] = ts
		}
		delete(fields, model.FieldTimestamp)
	}

	var missing []string
	for _, req := range []string{model.FieldDatetime, model.FieldLevel} {
		if _, ok := fields[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return model.LogRecord{}, &SkipError{Line: line, Missing: missing}
	}

	return model.NewRecord(fields)
}
