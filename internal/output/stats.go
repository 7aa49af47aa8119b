package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/model"
)

// maxBar is the width in cells of the longest bar in a frequency chart.
const maxBar = 40

var styleTitle = lipgloss.NewStyle().Bold(true).Underline(true)

// RenderStats prints the per-level counts, standard levels first.
func RenderStats(w io.Writer, stats aggregator.Stats) error {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Events by level") + "\n")
	for _, lvl := range levelOrder(stats.LevelCounts) {
		fmt.Fprintf(&b, "%s: %d\n", levelStyle(lvl).Render(lvl), stats.LevelCounts[lvl])
	}
	if stats.Malformed > 0 {
		fmt.Fprintf(&b, "malformed datetimes: %d\n", stats.Malformed)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderFrequency draws a horizontal bar chart of events per minute and level.
func RenderFrequency(w io.Writer, buckets []aggregator.Bucket) error {
	if len(buckets) == 0 {
		_, err := fmt.Fprintln(w, "no events to chart")
		return err
	}

	var peak int64
	levels := map[string]int64{}
	for _, bk := range buckets {
		for lvl, n := range bk.Counts {
			levels[lvl] += n
			if n > peak {
				peak = n
			}
		}
	}
	order := levelOrder(levels)

	var b strings.Builder
	b.WriteString(styleTitle.Render("Log event frequency (by minute)") + "\n")
	for _, bk := range buckets {
		for i, lvl := range order {
			label := bk.Minute
			if i > 0 {
				label = strings.Repeat(" ", len(bk.Minute))
			}
			n := bk.Counts[lvl]
			bar := levelStyle(lvl).Render(strings.Repeat("█", barLen(n, peak)))
			fmt.Fprintf(&b, "%s  %-7s %s %d\n", label, lvl, bar, n)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func barLen(n, peak int64) int {
	if n <= 0 || peak <= 0 {
		return 0
	}
	return int((n*maxBar + peak - 1) / peak)
}

// levelOrder lists standard levels first, then any others alphabetically.
func levelOrder(counts map[string]int64) []string {
	order := append([]string(nil), model.StandardLevels...)
	std := make(map[string]bool, len(order))
	for _, l := range order {
		std[l] = true
	}
	var rest []string
	for l := range counts {
		if !std[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
