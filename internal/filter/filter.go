// Package filter narrows and orders ingested records.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/logsift/internal/model"
)

// ErrBadSince is returned when a since bound is not in model.DatetimeLayout.
var ErrBadSince = errors.New("since must use the format 'YYYY-MM-DD HH:MM:SS'")

// ByLevel keeps records whose level equals level. An empty level keeps everything.
func ByLevel(records []model.LogRecord, level string) []model.LogRecord {
	if level == "" {
		return records
	}
	out := make([]model.LogRecord, 0, len(records))
	for _, r := range records {
		if r.Level() == level {
			out = append(out, r)
		}
	}
	return out
}

// Since keeps records at or after since. An empty since keeps everything.
// A malformed since returns the records unchanged with ErrBadSince. Records
// whose own datetime does not parse are dropped and reported on log.
func Since(records []model.LogRecord, since string, log logrus.FieldLogger) ([]model.LogRecord, error) {
	if since == "" {
		return records, nil
	}
	bound, err := model.ParseDatetime(since)
	if err != nil {
		return records, fmt.Errorf("%w: %q", ErrBadSince, since)
	}

	out := make([]model.LogRecord, 0, len(records))
	for _, r := range records {
		ts, err := r.Time()
		if err != nil {
			log.WithField("datetime", r.Datetime()).Warn("skipped record: datetime format error")
			continue
		}
		if !ts.Before(bound) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SortByDatetime returns a copy of records in ascending datetime order;
// equal datetimes keep their input order. If any datetime does not parse,
// the records are returned in input order together with the error.
func SortByDatetime(records []model.LogRecord) ([]model.LogRecord, error) {
	keys := make([]time.Time, len(records))
	for i, r := range records {
		ts, err := r.Time()
		if err != nil {
			return records, fmt.Errorf("sort by datetime: record %d: %w", i, err)
		}
		keys[i] = ts
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]].Before(keys[idx[b]]) })

	out := make([]model.LogRecord, len(records))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out, nil
}
