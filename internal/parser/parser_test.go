package parser

import (
	"errors"
	"testing"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/patterns"
)

func mustCompile(t *testing.T, exprs map[string]string) patterns.PatternSet {
	t.Helper()
	set, err := patterns.Compile(exprs)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestPatternParser(t *testing.T) {
	p := NewPatternParser(patterns.Default())

	rec, err := p.Parse("[2025-05-17 09:16:45] ERROR: Connection failed. IP: 192.168.1.10")
	if err != nil {
		t.Fatal(err)
	}

	if rec.Datetime() != "2025-05-17 09:16:45" {
		t.Errorf("expected datetime '2025-05-17 09:16:45', got %q", rec.Datetime())
	}
	if rec.Level() != "ERROR" {
		t.Errorf("expected level ERROR, got %s", rec.Level())
	}
	if rec.Message() != "Connection failed. IP: 192.168.1.10" {
		t.Errorf("expected message 'Connection failed. IP: 192.168.1.10', got %q", rec.Message())
	}
	if len(rec.Fields()) != 3 {
		t.Errorf("expected exactly 3 fields, got %v", rec.Fields())
	}
}

func TestPatternParserInvalidFormat(t *testing.T) {
	p := NewPatternParser(patterns.Default())

	line := "invalid log format without brackets"
	_, err := p.Parse(line)

	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	var skip *SkipError
	if !errors.As(err, &skip) {
		t.Fatalf("expected *SkipError, got %T", err)
	}
	if skip.Line != line {
		t.Errorf("expected skip to carry the raw line, got %q", skip.Line)
	}
	if len(skip.Missing) != 2 {
		t.Errorf("expected datetime and level missing, got %v", skip.Missing)
	}
}

func TestParseLineEmptySet(t *testing.T) {
	ext := ParseLine("[2025-05-17 09:16:45] INFO: OK", patterns.PatternSet{})
	if len(ext) != 0 {
		t.Errorf("expected empty extraction, got %v", ext)
	}
}

func TestParseLineNoMatch(t *testing.T) {
	ext := ParseLine("nothing to see here", patterns.Default())
	if len(ext) != 0 {
		t.Errorf("expected empty extraction, got %v", ext)
	}
}

func TestParseLinePartialMatch(t *testing.T) {
	// Level matches, the rest does not; the level must still be extracted.
	ext := ParseLine("WARNING disk almost full", patterns.Default())

	if ext["level"] != "WARNING" {
		t.Errorf("expected level WARNING, got %q", ext["level"])
	}
	if _, ok := ext["datetime"]; ok {
		t.Error("datetime should be absent")
	}
	if _, ok := ext["message"]; ok {
		t.Error("message should be absent")
	}
}

func TestParseLineSearchNotAnchored(t *testing.T) {
	set := mustCompile(t, map[string]string{"ip": `IP: (?P<ip>[\d.]+)`})

	ext := ParseLine("[2025-05-17 09:16:45] ERROR: Connection failed. IP: 192.168.1.10", set)

	if ext["ip"] != "192.168.1.10" {
		t.Errorf("expected ip 192.168.1.10, got %q", ext["ip"])
	}
}

func TestParseLineOptionalGroup(t *testing.T) {
	// The overall regex matches but the named group does not participate.
	set := mustCompile(t, map[string]string{"user": `login(?: user=(?P<user>\w+))?`})

	if ext := ParseLine("login failed", set); len(ext) != 0 {
		t.Errorf("expected no user field, got %v", ext)
	}
	if ext := ParseLine("login user=frank", set); ext["user"] != "frank" {
		t.Errorf("expected user frank, got %q", ext["user"])
	}
}

func TestParseLineEmptyCapture(t *testing.T) {
	set := mustCompile(t, map[string]string{"message": `: (?P<message>.*)`})

	ext := ParseLine("ERROR: ", set)

	msg, ok := ext["message"]
	if !ok || msg != "" {
		t.Errorf("expected present but empty message, got %q (present=%v)", msg, ok)
	}
}

func TestNormalizeRenamesTimestamp(t *testing.T) {
	rec, err := Normalize(model.Extraction{"timestamp": "2025-05-17 09:15:00", "level": "INFO"}, "raw")
	if err != nil {
		t.Fatal(err)
	}

	if rec.Datetime() != "2025-05-17 09:15:00" {
		t.Errorf("expected renamed datetime, got %q", rec.Datetime())
	}
	if _, ok := rec.Field("timestamp"); ok {
		t.Error("timestamp must not be kept after renaming")
	}
}

func TestNormalizeDatetimeWins(t *testing.T) {
	ext := model.Extraction{
		"datetime":  "2025-05-17 09:15:00",
		"timestamp": "1999-01-01 00:00:00",
		"level":     "INFO",
	}

	rec, err := Normalize(ext, "raw")
	if err != nil {
		t.Fatal(err)
	}

	if rec.Datetime() != "2025-05-17 09:15:00" {
		t.Errorf("datetime was overwritten: %q", rec.Datetime())
	}
	if _, ok := rec.Field("timestamp"); ok {
		t.Error("timestamp must be dropped when datetime exists")
	}
	if _, ok := ext["datetime"]; !ok || len(ext) != 3 {
		t.Error("Normalize must not modify its input")
	}
}

func TestNormalizeValidity(t *testing.T) {
	tests := []struct {
		name  string
		ext   model.Extraction
		valid bool
	}{
		{"both present", model.Extraction{"datetime": "d", "level": "l"}, true},
		{"timestamp and level", model.Extraction{"timestamp": "d", "level": "l"}, true},
		{"level only", model.Extraction{"level": "l", "message": "m"}, false},
		{"datetime only", model.Extraction{"datetime": "d"}, false},
		{"timestamp only", model.Extraction{"timestamp": "d"}, false},
		{"empty", model.Extraction{}, false},
		{"non-standard level", model.Extraction{"datetime": "d", "level": "TRACE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.ext, "raw")
			if tt.valid && err != nil {
				t.Errorf("expected record, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrSkipped) {
				t.Errorf("expected ErrSkipped, got %v", err)
			}
		})
	}
}

func TestPatternParserTimestampConfig(t *testing.T) {
	set := mustCompile(t, map[string]string{
		"timestamp": `^(?P<timestamp>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`,
		"level":     `\s(?P<level>[A-Z]+)\s`,
	})
	p := NewPatternParser(set)

	rec, err := p.Parse("2025-05-17 09:17:00 WARNING temperature high")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Datetime() != "2025-05-17 09:17:00" || rec.Level() != "WARNING" {
		t.Errorf("unexpected record %v", rec.Fields())
	}
}
