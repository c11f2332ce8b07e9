// Command car-y3 prepares, checks and scores TREC CAR Y3 submissions.
// It turns section-level TREC run files into populated page orderings,
// fills paragraph text from the corpus, validates submission files and
// computes ordering quality metrics.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cartools/car-y3/internal/config"
	apperrors "github.com/cartools/car-y3/internal/pkg/errors"
	"github.com/cartools/car-y3/internal/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "car-y3",
		Short: "TREC CAR Y3 submission toolkit",
		Long: `car-y3 turns TREC run files into populated page orderings and
prepares, checks and scores TREC CAR Y3 submission files.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(populateCmd())
	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(paraIDsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}

// setup loads the configuration and builds the shared logger, applying
// persistent flag overrides on top of file and environment settings.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
	}
	if err := cfg.Check(); err != nil {
		return nil, nil, err
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}
