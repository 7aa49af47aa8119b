// Package patterns holds the configured field patterns used to pull
// structured fields out of log lines.
//
// Each pattern is a regular expression (RE2 syntax) that must carry a named
// capture group with the same name as its field, e.g. `level: (?P<level>\w+)`.
package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern extracts a single field.
type Pattern struct {
	Field  string
	Regexp *regexp.Regexp
	Group  int // index of the capture group holding the field value
}

// PatternSet is an immutable collection of patterns, ordered by field name.
// It is safe for concurrent use.
type PatternSet struct {
	patterns []Pattern
}

// CompileError reports a pattern that was left out of a PatternSet.
type CompileError struct {
	Field string
	Expr  string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pattern %q (%s): %v", e.Field, e.Expr, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ErrNoGroup is wrapped by a CompileError when the regex has no capture
// group named after its field.
var ErrNoGroup = errors.New("no capture group named after the field")

// Compile builds a PatternSet from field name → regex source. Entries that do
// not compile, or lack a matching named group, are left out and reported in
// the returned error (one *CompileError each). The set holds every valid entry
// even when err is non-nil.
func Compile(exprs map[string]string) (PatternSet, error) {
	var (
		set  PatternSet
		errs []error
	)
	for _, field := range sortedKeys(exprs) {
		expr := exprs[field]
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, &CompileError{Field: field, Expr: expr, Err: err})
			continue
		}
		group := groupIndex(re, field)
		if group < 0 {
			errs = append(errs, &CompileError{Field: field, Expr: expr, Err: ErrNoGroup})
			continue
		}
		set.patterns = append(set.patterns, Pattern{Field: field, Regexp: re, Group: group})
	}
	return set, errors.Join(errs...)
}

// Default returns the built-in three-field configuration for lines like
//
//	[2025-05-17 09:16:45] ERROR: Connection failed
func Default() PatternSet {
	set, err := Compile(map[string]string{
		"datetime": `\[(?P<datetime>.*?)\]`,
		"level":    `(?P<level>INFO|WARNING|ERROR)`,
		"message":  `: (?P<message>.*)`,
	})
	if err != nil {
		panic(err)
	}
	return set
}

// Len returns the number of usable patterns.
func (s PatternSet) Len() int { return len(s.patterns) }

// Patterns returns the patterns ordered by field name.
func (s PatternSet) Patterns() []Pattern {
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Fields returns the configured field names in lexical order.
func (s PatternSet) Fields() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.Field
	}
	return out
}

// groupIndex finds the capture group for field. Exact names win; otherwise a
// case-insensitive match is accepted since config keys may be case-folded.
func groupIndex(re *regexp.Regexp, field string) int {
	if i := re.SubexpIndex(field); i > 0 {
		return i
	}
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" && strings.EqualFold(name, field) {
			return i
		}
	}
	return -1
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
