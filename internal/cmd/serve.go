package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/ingest"
	"github.com/atikulmunna/logsift/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Parse log files once and serve the records over HTTP",
	Long: `Parse the given log files and expose the records through a read-only
JSON API:

  GET /healthz
  GET /api/records?level=ERROR&since=2025-05-17%2009:00:00&sort=true
  GET /api/stats
  GET /api/frequency
  GET /api/skips`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "8080", "HTTP listen port")
	cobra.CheckErr(viper.BindPFlag("port", serveCmd.Flags().Lookup("port")))
}

func runServe(cmd *cobra.Command, args []string) error {
	files, err := inputFiles()
	if err != nil {
		return err
	}

	records, report, err := ingest.New(patternSet(), logger).IngestFiles(files)
	if err != nil {
		return err
	}
	logger.WithField("run_id", report.RunID.String()).
		Infof("loaded %d record(s), skipped %d line(s)", report.Records, report.Skipped())

	return server.New(records, report, logger, viper.GetString("port")).Start()
}
