package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logsift/internal/patterns"
)

var (
	cfgFile string
	verbose bool

	// logger carries every diagnostic; stdout is reserved for results.
	logger = logrus.New()
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logsift",
	Short: "logsift: log line parser and analyzer",
	Long: `logsift reads line-oriented log files, extracts structured records with
configurable named-capture patterns, and lets you filter, sort, export and
summarize them from the terminal or over a small HTTP API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logsift.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug diagnostics")
	rootCmd.PersistentFlags().StringP("patterns", "p", "config.yaml", "pattern document with a top-level \"patterns\" mapping")
	rootCmd.PersistentFlags().Bool("builtin", false, "use the built-in [datetime] LEVEL: message patterns")
	rootCmd.PersistentFlags().StringSliceP("file", "f", nil, "log file(s) or glob(s) to read (e.g. 'logs/**/*.log')")

	cobra.CheckErr(viper.BindPFlag("patterns_file", rootCmd.PersistentFlags().Lookup("patterns")))
	cobra.CheckErr(viper.BindPFlag("builtin", rootCmd.PersistentFlags().Lookup("builtin")))
	cobra.CheckErr(viper.BindPFlag("files", rootCmd.PersistentFlags().Lookup("file")))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("logsift")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		logger.WithField("config", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// patternSet resolves the configured PatternSet. Load failures degrade to an
// empty set, which makes every line a skip.
func patternSet() patterns.PatternSet {
	if viper.GetBool("builtin") {
		return patterns.Default()
	}
	return patterns.Load(viper.GetString("patterns_file"), logger)
}

func inputFiles() ([]string, error) {
	files := viper.GetStringSlice("files")
	if len(files) == 0 {
		return nil, fmt.Errorf("no input: pass --file or set \"files\" in the config")
	}
	return files, nil
}
