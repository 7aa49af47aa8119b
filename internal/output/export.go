package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/atikulmunna/logsift/internal/model"
)

// ErrUnknownFormat is returned for unsupported output or export formats.
var ErrUnknownFormat = errors.New("unknown format")

// exportBase is the file name, without extension, written by Export.
const exportBase = "filtered_log"

// Export writes records to <dir>/filtered_log.<format> and returns the path.
// Supported formats are "csv" and "json".
func Export(records []model.LogRecord, format, dir string) (string, error) {
	var write func(io.Writer, []model.LogRecord) error
	switch format {
	case "csv":
		write = WriteCSV
	case "json":
		write = WriteJSON
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, exportBase+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f, records); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// WriteCSV writes a header of datetime, level, message followed by every
// other field name in sorted order, then one row per record.
func WriteCSV(w io.Writer, records []model.LogRecord) error {
	columns := csvColumns(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			row[i], _ = rec.Field(c)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []model.LogRecord) error {
	if records == nil {
		records = []model.LogRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func csvColumns(records []model.LogRecord) []string {
	columns := []string{model.FieldDatetime, model.FieldLevel, model.FieldMessage}
	seen := map[string]bool{model.FieldMessage: true}
	var extra []string
	for _, rec := range records {
		for _, name := range rec.Extra() {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}
