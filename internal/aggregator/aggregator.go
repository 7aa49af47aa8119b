package aggregator

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/logsift/internal/model"
)

// bucketLayout groups records by minute of day.
const bucketLayout = "15:04"

// Stats holds a point-in-time snapshot of aggregated counts.
type Stats struct {
	TotalEvents int64            `json:"total_events"`
	LevelCounts map[string]int64 `json:"level_counts"`
	Malformed   int64            `json:"malformed_datetimes"`
}

// Bucket counts records per level for one minute.
type Bucket struct {
	Minute string           `json:"minute"` // HH:MM
	Counts map[string]int64 `json:"counts"`
}

// Aggregator computes level statistics and per-minute event frequency.
// It is safe to read snapshots while records are being added.
type Aggregator struct {
	mu          sync.RWMutex
	log         logrus.FieldLogger
	totalEvents int64
	malformed   int64
	levelCounts map[string]int64
	minutes     map[string]map[string]int64
}

// New creates an empty Aggregator.
func New(log logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		log:         log,
		levelCounts: make(map[string]int64),
		minutes:     make(map[string]map[string]int64),
	}
}

// FromRecords builds an Aggregator over records.
func FromRecords(records []model.LogRecord, log logrus.FieldLogger) *Aggregator {
	a := New(log)
	for _, r := range records {
		a.Add(r)
	}
	return a
}

// Add records one entry. Entries whose datetime does not parse are counted
// in the totals but left out of the frequency buckets.
func (a *Aggregator) Add(record model.LogRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalEvents++
	a.levelCounts[record.Level()]++

	ts, err := record.Time()
	if err != nil {
		a.malformed++
		a.log.WithField("datetime", record.Datetime()).Warn("skipped in frequency: datetime format error")
		return
	}
	key := ts.Format(bucketLayout)
	counts, ok := a.minutes[key]
	if !ok {
		counts = zeroCounts()
		a.minutes[key] = counts
	}
	counts[record.Level()]++
}

// Snapshot returns the current counts. Standard levels are always present.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts := zeroCounts()
	for k, v := range a.levelCounts {
		counts[k] = v
	}

	return Stats{
		TotalEvents: a.totalEvents,
		LevelCounts: counts,
		Malformed:   a.malformed,
	}
}

// Frequency returns the per-minute buckets in chronological order.
func (a *Aggregator) Frequency() []Bucket {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.minutes))
	for k := range a.minutes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Bucket, len(keys))
	for i, k := range keys {
		counts := make(map[string]int64, len(a.minutes[k]))
		for lvl, n := range a.minutes[k] {
			counts[lvl] = n
		}
		out[i] = Bucket{Minute: k, Counts: counts}
	}
	return out
}

func zeroCounts() map[string]int64 {
	m := make(map[string]int64, len(model.StandardLevels))
	for _, l := range model.StandardLevels {
		m[l] = 0
	}
	return m
}
