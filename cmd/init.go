package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cazylab/ceclust/internal/config"
	"github.com/cazylab/ceclust/internal/errors"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default ceclust.yaml and .env template",
	Long: `Write a default ceclust.yaml (CE12 and CE19 targets against
database/cazy_db) at the --config path, plus a .env template next to it.
Existing files are left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var flagInitForce bool

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	_, err := os.Stat(flagConfig)
	switch {
	case err == nil && !flagInitForce:
		printSkip("", fmt.Sprintf("Config already exists: %s", flagConfig))
	case err == nil || os.IsNotExist(err):
		if err := config.Save(flagConfig, config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", flagConfig))
	default:
		return errors.Wrapf(err, "cannot stat %s", flagConfig)
	}

	envPath := config.DotEnvPath(flagConfig)
	created, err := config.EnsureDotEnvTemplate(envPath)
	if err != nil {
		return err
	}
	if created {
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	}
	return nil
}
