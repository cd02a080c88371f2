package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cazylab/ceclust/internal/config"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/logger"
)

var (
	flagConfig    string
	flagVerbosity int
	flagJSONLogs  bool
)

var rootCmd = &cobra.Command{
	Use:          "ceclust",
	Short:        "Label CE sequence clusters by resolved structure",
	SilenceUsage: true, // don't print usage on operational errors
	// Errors are printed by Execute, with hints.
	SilenceErrors: true,
	Long: `ceclust reconciles MMseqs2 sequence-similarity clusters with a local CAZyme
database and reports, per cluster and per protein, whether an experimentally
resolved 3-D structure exists and which families are involved.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(flagVerbosity, flagJSONLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Path to ceclust.yaml")
	rootCmd.PersistentFlags().CountVarP(&flagVerbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit logs as JSON on stderr")
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		printErr("", err.Error())
		for _, hint := range errors.GetAllHints(err) {
			printHint(hint)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config. When that file does not
// exist and --config was left at its default, the built-in defaults are used.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if _, err := os.Stat(flagConfig); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		cfg := config.DefaultConfig()
		if err := cfg.ApplyEnv(config.DotEnvPath(flagConfig)); err != nil {
			return nil, err
		}
		logger.Logger.Debugw("No config file, using defaults", "path", flagConfig)
		return cfg, nil
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, errors.WithHint(err, "run 'ceclust init' to write a default config")
	}
	return cfg, nil
}
