package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/logsift/internal/model"
)

// ErrNoFiles is returned when no glob matched a readable file.
var ErrNoFiles = errors.New("no files matched")

// IngestFile opens path and ingests it.
func (p *Pipeline) IngestFile(path string) ([]model.LogRecord, Report, error) {
	return p.ingestFile(path, uuid.New())
}

func (p *Pipeline) ingestFile(path string, id uuid.UUID) ([]model.LogRecord, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{RunID: id}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p.log.WithFields(logrus.Fields{"source": path, "run_id": id.String()}).Debug("opened log file")
	records, report, err := p.ingestReader(f, id, path)
	report.Files = []string{path}
	return records, report, err
}

// IngestFiles expands each glob, ingests every matching file in lexical
// order and concatenates the results in that order. Files that cannot be
// read are reported and skipped. Every file shares the returned Report's RunID.
func (p *Pipeline) IngestFiles(globs []string) ([]model.LogRecord, Report, error) {
	paths := ExpandGlobs(globs, p.log)
	total := Report{RunID: uuid.New()}
	if len(paths) == 0 {
		return nil, total, fmt.Errorf("%w: %v", ErrNoFiles, globs)
	}

	var records []model.LogRecord
	for _, path := range paths {
		recs, report, err := p.ingestFile(path, total.RunID)
		if err != nil {
			p.log.WithFields(logrus.Fields{"source": path, "run_id": total.RunID.String()}).Errorf("ingest failed: %v", err)
		}
		if report.Files != nil {
			total.Files = append(total.Files, path)
		}
		records = append(records, recs...)
		total.merge(report)
	}
	if len(total.Files) == 0 {
		return nil, total, fmt.Errorf("%w: %v", ErrNoFiles, globs)
	}
	return records, total, nil
}

// ExpandGlobs resolves glob patterns (including ** via doublestar) to a
// sorted, de-duplicated list of files. Plain paths are kept as given so a
// missing file surfaces as an open error.
func ExpandGlobs(globs []string, log logrus.FieldLogger) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, g := range globs {
		var matches []string
		if hasMeta(g) {
			var err error
			matches, err = doublestar.FilepathGlob(g, doublestar.WithFilesOnly())
			if err != nil {
				log.WithField("pattern", g).Warnf("failed to expand pattern: %v", err)
				continue
			}
			if len(matches) == 0 {
				log.WithField("pattern", g).Warn("pattern matched no files")
			}
		} else {
			matches = []string{g}
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Clean(m))
		}
	}
	return out
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
