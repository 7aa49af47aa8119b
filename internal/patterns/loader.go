package patterns

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ConfigKey is the top-level document key holding the pattern mapping.
const ConfigKey = "patterns"

// ConfigError reports a configuration source that could not be used.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pattern config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Reasons a document yields no patterns at all.
var (
	ErrNoPatterns = errors.New("no \"patterns\" key")
	ErrNotMapping = errors.New("\"patterns\" is not a mapping")
)

var errNotAString = errors.New("value is not a string")

// Load reads the pattern document at path. The format follows the file
// extension (yaml, json, toml, ...).
//
// Load never fails: an unusable source yields an empty PatternSet, and bad
// entries are dropped individually. Every problem is reported on log.
func Load(path string, log logrus.FieldLogger) PatternSet {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return failed(&ConfigError{Source: path, Err: err}, log)
	}
	return fromViper(v, path, log)
}

// LoadReader is Load for an in-memory document of the given format.
func LoadReader(r io.Reader, format string, log logrus.FieldLogger) PatternSet {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return failed(&ConfigError{Source: format + " reader", Err: err}, log)
	}
	return fromViper(v, format+" reader", log)
}

func fromViper(v *viper.Viper, source string, log logrus.FieldLogger) PatternSet {
	raw := v.Get(ConfigKey)
	if raw == nil {
		return failed(&ConfigError{Source: source, Err: ErrNoPatterns}, log)
	}
	entries, ok := raw.(map[string]interface{})
	if !ok {
		return failed(&ConfigError{Source: source, Err: ErrNotMapping}, log)
	}

	exprs := make(map[string]string, len(entries))
	var errs []error
	for field, val := range entries {
		s, ok := val.(string)
		if !ok {
			errs = append(errs, &CompileError{Field: field, Expr: fmt.Sprint(val), Err: errNotAString})
			continue
		}
		exprs[field] = s
	}

	set, err := Compile(exprs)
	if err != nil {
		errs = append(errs, err)
	}
	for _, e := range flatten(errors.Join(errs...)) {
		var ce *CompileError
		if errors.As(e, &ce) {
			log.WithFields(logrus.Fields{
				"source":  source,
				"field":   ce.Field,
				"pattern": ce.Expr,
			}).Warnf("pattern disabled: %v", ce.Err)
		}
	}

	if set.Len() == 0 {
		log.WithField("source", source).Warn("no usable patterns configured, every line will be skipped")
		return set
	}
	log.WithFields(logrus.Fields{
		"source": source,
		"fields": set.Fields(),
	}).Debug("loaded patterns")
	return set
}

func failed(err *ConfigError, log logrus.FieldLogger) PatternSet {
	log.WithField("source", err.Source).Warnf("no patterns configured, every line will be skipped: %v", err.Err)
	return PatternSet{}
}

// flatten unpacks nested errors.Join values.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
