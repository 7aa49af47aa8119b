package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/atikulmunna/logsift/internal/model"
)

// Renderer writes LogRecord values to an output stream.
type Renderer interface {
	Render(records []model.LogRecord) error
}

// New returns the renderer for format: "table" (default), "text" or "json".
func New(format string, w io.Writer) (Renderer, error) {
	switch format {
	case "", "table":
		return NewTableRenderer(w), nil
	case "text":
		return NewTextRenderer(w), nil
	case "json":
		return NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

var (
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // gray
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))            // yellow
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red bold
	styleOther   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
	styleHeader  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell    = lipgloss.NewStyle().Padding(0, 1)
)

func levelStyle(level string) lipgloss.Style {
	switch level {
	case model.LevelInfo:
		return styleInfo
	case model.LevelWarning:
		return styleWarning
	case model.LevelError:
		return styleError
	default:
		return styleOther
	}
}

// ---------------------------------------------------------------------------
// Table Renderer
// ---------------------------------------------------------------------------

// TableRenderer prints records as a bordered grid.
type TableRenderer struct {
	w io.Writer
}

func NewTableRenderer(w io.Writer) *TableRenderer {
	return &TableRenderer{w: w}
}

func (r *TableRenderer) Render(records []model.LogRecord) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			rec.Datetime(),
			levelStyle(rec.Level()).Render(rec.Level()),
			rec.Message(),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Datetime", "Level", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})

	_, err := fmt.Fprintln(r.w, t.Render())
	return err
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

// TextRenderer prints one line per record with severity-based colors.
type TextRenderer struct {
	w io.Writer
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) Render(records []model.LogRecord) error {
	for _, rec := range records {
		tag := levelStyle(rec.Level()).Render(fmt.Sprintf("%-7s", rec.Level()))
		if _, err := fmt.Fprintf(r.w, "%s %s %s\n", rec.Datetime(), tag, rec.Message()); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each record as a single JSON object per line.
type JSONRenderer struct {
	enc *json.Encoder
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONRenderer{enc: enc}
}

func (r *JSONRenderer) Render(records []model.LogRecord) error {
	for _, rec := range records {
		if err := r.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
