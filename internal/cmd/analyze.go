package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/filter"
	"github.com/atikulmunna/logsift/internal/ingest"
	"github.com/atikulmunna/logsift/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Parse log files and print, filter or export the records",
	Long: `Parse one or more log files with the configured patterns, then filter,
sort and display the resulting records along with per-level statistics.

Examples:
  logsift analyze -f device.log
  logsift analyze -f device.log --level ERROR --since "2025-05-17 09:00:00"
  logsift analyze -f "logs/**/*.log" --export csv --plot`,
	Args:    cobra.NoArgs,
	PreRunE: validateAnalyze,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringP("level", "l", "", "only show records with this level (e.g. INFO, WARNING, ERROR)")
	f.StringP("since", "s", "", "only show records at or after this time (e.g. '2025-05-17 09:00:00')")
	f.StringP("export", "e", "", "also write the records to a file: csv, json")
	f.String("output-dir", "output", "directory for exported files")
	f.StringP("output", "o", "table", "output format: table, text, json")
	f.Bool("plot", false, "draw the per-minute event frequency chart")

	cobra.CheckErr(viper.BindPFlag("output_dir", f.Lookup("output-dir")))
}

func validateAnalyze(cmd *cobra.Command, args []string) error {
	switch export, _ := cmd.Flags().GetString("export"); export {
	case "", "csv", "json":
	default:
		return fmt.Errorf("%w: --export %q (want csv or json)", output.ErrUnknownFormat, export)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	level, _ := flags.GetString("level")
	since, _ := flags.GetString("since")
	export, _ := flags.GetString("export")
	format, _ := flags.GetString("output")
	plot, _ := flags.GetBool("plot")
	out := cmd.OutOrStdout()

	renderer, err := output.New(format, out)
	if err != nil {
		return err
	}
	files, err := inputFiles()
	if err != nil {
		return err
	}

	// --- Ingest ---
	records, report, err := ingest.New(patternSet(), logger).IngestFiles(files)
	if err != nil {
		return err
	}
	logger.WithField("run_id", report.RunID.String()).
		Debugf("ingested %d record(s), skipped %d line(s)", report.Records, report.Skipped())
	if len(records) == 0 {
		logger.Warn("no log records found, nothing to analyze")
		return nil
	}

	// --- Filter ---
	records = filter.ByLevel(records, level)
	records, err = filter.Since(records, since, logger)
	if errors.Is(err, filter.ErrBadSince) {
		logger.Warnf("since filter ignored: %v", err)
	}
	logger.Infof("analyzed %d record(s)", len(records))

	// --- Statistics ---
	agg := aggregator.FromRecords(records, logger)
	if err := output.RenderStats(out, agg.Snapshot()); err != nil {
		return err
	}

	// --- Sort and render ---
	sorted, err := filter.SortByDatetime(records)
	if err != nil {
		logger.Warnf("records left unsorted: %v", err)
	}
	if err := renderer.Render(sorted); err != nil {
		return err
	}

	if export != "" {
		path, err := output.Export(sorted, export, viper.GetString("output_dir"))
		if err != nil {
			logger.Errorf("export failed: %v", err)
		} else {
			logger.WithField("path", path).Infof("exported %s", export)
		}
	}

	if plot {
		return output.RenderFrequency(out, agg.Frequency())
	}
	return nil
}
