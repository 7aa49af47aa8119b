package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `patterns:
  datetime: '\[(?P<datetime>.*?)\]'
  level: '(?P<level>INFO|WARNING|ERROR)'
  message: ': (?P<message>.*)'
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func warnings(hook *test.Hook) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}

func TestCompileOrdersByField(t *testing.T) {
	set, err := Compile(map[string]string{
		"message":  `: (?P<message>.*)`,
		"datetime": `\[(?P<datetime>.*?)\]`,
		"level":    `(?P<level>INFO|WARNING|ERROR)`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "level", "message"}, set.Fields())
	assert.Equal(t, 3, set.Len())
}

func TestCompileIsolatesBadPattern(t *testing.T) {
	set, err := Compile(map[string]string{
		"datetime": `\[(?P<datetime>.*?`,
		"level":    `(?P<level>INFO|WARNING|ERROR)`,
	})
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "datetime", ce.Field)
	assert.Equal(t, []string{"level"}, set.Fields())
}

func TestCompileRequiresNamedGroup(t *testing.T) {
	set, err := Compile(map[string]string{
		"level": `(INFO|WARNING|ERROR)`,
		"host":  `host=(?P<hostname>\S+)`,
	})
	assert.ErrorIs(t, err, ErrNoGroup)
	assert.Equal(t, 0, set.Len())
}

func TestCompileCaseInsensitiveGroup(t *testing.T) {
	set, err := Compile(map[string]string{"message": `: (?P<Message>.*)`})
	require.NoError(t, err)

	p := set.Patterns()[0]
	assert.Equal(t, "message", p.Field)
	assert.Equal(t, 1, p.Group)
}

func TestDefault(t *testing.T) {
	set := Default()
	assert.Equal(t, []string{"datetime", "level", "message"}, set.Fields())
}

func TestPatternsReturnsCopy(t *testing.T) {
	set := Default()
	ps := set.Patterns()
	ps[0].Field = "changed"
	assert.Equal(t, "datetime", set.Fields()[0])
}

func TestLoadYAML(t *testing.T) {
	log, hook := test.NewNullLogger()
	path := writeConfig(t, "config.yaml", sampleYAML)

	set := Load(path, log)

	assert.Equal(t, []string{"datetime", "level", "message"}, set.Fields())
	assert.Equal(t, 0, warnings(hook))
}

func TestLoadJSONReader(t *testing.T) {
	log, _ := test.NewNullLogger()
	doc := `{"patterns": {"level": "(?P<level>INFO|WARNING|ERROR)"}}`

	set := LoadReader(strings.NewReader(doc), "json", log)

	assert.Equal(t, []string{"level"}, set.Fields())
}

func TestLoadFailuresDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"malformed", "config.yaml", "patterns: [unclosed\n  - x: {"},
		{"no patterns key", "config.yaml", "output_dir: out\n"},
		{"patterns not a mapping", "config.yaml", "patterns:\n  - '(?P<level>INFO)'\n"},
		{"unsupported format", "config.txt", sampleYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			set := Load(writeConfig(t, tt.file, tt.content), log)

			assert.Equal(t, 0, set.Len())
			assert.Equal(t, 1, warnings(hook))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	log, hook := test.NewNullLogger()

	set := Load(filepath.Join(t.TempDir(), "nope.yaml"), log)

	assert.Equal(t, 0, set.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLoadKeepsValidEntries(t *testing.T) {
	log, hook := test.NewNullLogger()
	path := writeConfig(t, "config.yaml", `patterns:
  datetime: '\[(?P<datetime>.*?)\]'
  level: '(?P<level>INFO|WARNING|ERROR'
  code: 42
`)

	set := Load(path, log)

	assert.Equal(t, []string{"datetime"}, set.Fields())
	assert.Equal(t, 2, warnings(hook), "one warning per disabled pattern")
}

func TestLoadEmptyMappingWarns(t *testing.T) {
	log, hook := test.NewNullLogger()

	set := Load(writeConfig(t, "config.yaml", "patterns: {}\n"), log)

	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1, warnings(hook))
}

func TestLoadAllPatternsInvalidWarns(t *testing.T) {
	log, hook := test.NewNullLogger()

	set := Load(writeConfig(t, "config.yaml", "patterns:\n  level: '(INFO|ERROR)'\n"), log)

	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 2, warnings(hook), "one for the disabled pattern, one for the empty set")
}
