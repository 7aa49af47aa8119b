// Package ingest turns log files into ordered sequences of records.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/parser"
	"github.com/atikulmunna/logsift/internal/patterns"
)

// Lines longer than maxLineSize are skipped; previewSize bytes of them are kept
// in the skip report.
const (
	maxLineSize = 1024 * 1024
	previewSize = 256
)

// Skip is a non-blank line that did not produce a record.
type Skip struct {
	Source string `json:"source,omitempty"`
	LineNo int    `json:"line_no"`
	Line   string `json:"line"`
}

// Report summarizes one ingestion run.
type Report struct {
	RunID   uuid.UUID `json:"run_id"`
	Lines   int       `json:"lines"` // non-blank lines seen
	Blank   int       `json:"blank"`
	Records int       `json:"records"`
	Skips   []Skip    `json:"skips"`
	Files   []string  `json:"files,omitempty"`
}

// Skipped returns the number of skipped lines.
func (r Report) Skipped() int { return len(r.Skips) }

func (r *Report) merge(o Report) {
	r.Lines += o.Lines
	r.Blank += o.Blank
	r.Records += o.Records
	r.Skips = append(r.Skips, o.Skips...)
}

// Pipeline parses lines in order and keeps the ones that yield a record.
// A Pipeline holds no mutable state; it can be reused across runs.
type Pipeline struct {
	parser parser.Parser
	log    logrus.FieldLogger
}

// New creates a Pipeline that extracts fields with set.
func New(set patterns.PatternSet, log logrus.FieldLogger) *Pipeline {
	return NewWithParser(parser.NewPatternParser(set), log)
}

// NewWithParser creates a Pipeline around an arbitrary Parser.
func NewWithParser(p parser.Parser, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{parser: p, log: log}
}

// Ingest parses lines in order. Blank lines are dropped without being counted
// as skips; lines that do not parse are reported and left out. The returned
// records keep the input order.
func (p *Pipeline) Ingest(lines []string) ([]model.LogRecord, Report) {
	run := p.newRun(uuid.New(), "")
	records := make([]model.LogRecord, 0, len(lines))
	for i, line := range lines {
		if rec, ok := run.line(i+1, line); ok {
			records = append(records, rec)
		}
	}
	return records, run.report
}

// IngestReader is Ingest over r, read line by line. A line longer than
// maxLineSize is skipped without stopping ingestion. A read error stops
// ingestion; the records gathered so far are returned with it.
func (p *Pipeline) IngestReader(r io.Reader) ([]model.LogRecord, Report, error) {
	return p.ingestReader(r, uuid.New(), "")
}

func (p *Pipeline) ingestReader(r io.Reader, id uuid.UUID, source string) ([]model.LogRecord, Report, error) {
	run := p.newRun(id, source)
	var records []model.LogRecord

	br := bufio.NewReaderSize(r, 64*1024)
	n := 0
	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			run.log.WithField("line_no", n+1).Errorf("read failed: %v", err)
			return records, run.report, err
		}
		n++
		if tooLong {
			run.report.Lines++
			run.skip(n, line, fmt.Sprintf("skipped line: longer than %d bytes", maxLineSize))
			continue
		}
		if rec, ok := run.line(n, line); ok {
			records = append(records, rec)
		}
	}
	return records, run.report, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is drained from br; only its first previewSize bytes are
// returned, with tooLong set.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return string(buf), tooLong, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = append(buf, chunk...)[:previewSize]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// run carries the per-ingestion state.
type run struct {
	parser parser.Parser
	log    logrus.FieldLogger
	source string
	report Report
}

func (p *Pipeline) newRun(id uuid.UUID, source string) *run {
	fields := logrus.Fields{"run_id": id.String()}
	if source != "" {
		fields["source"] = source
	}
	return &run{
		parser: p.parser,
		log:    p.log.WithFields(fields),
		source: source,
		report: Report{RunID: id},
	}
}

func (r *run) skip(n int, line, msg string) {
	r.log.WithFields(logrus.Fields{"line_no": n, "line": line}).Warn(msg)
	r.report.Skips = append(r.report.Skips, Skip{Source: r.source, LineNo: n, Line: line})
}

func (r *run) line(n int, raw string) (model.LogRecord, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		r.report.Blank++
		return model.LogRecord{}, false
	}
	r.report.Lines++

	rec, err := r.parser.Parse(line)
	if err != nil {
		if errors.Is(err, parser.ErrSkipped) {
			r.skip(n, line, "skipped line: no match for required fields")
		} else {
			r.skip(n, line, fmt.Sprintf("skipped line: %v", err))
		}
		return model.LogRecord{}, false
	}
	r.report.Records++
	return rec, true
}
