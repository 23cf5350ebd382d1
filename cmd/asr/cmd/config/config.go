package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appconfig "watchme-asr/internal/app/config"
)

var (
	path      string
	overwrite bool
)

func init() {
	Cmd.PersistentFlags().StringVarP(&path, "file", "f", appconfig.GetDefaultConfigPath(), "configuration file")
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")

	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(validateCmd)
}

// Cmd groups the configuration commands
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the provider and batch configuration file",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in configuration to a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(path); err == nil && !overwrite {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := appconfig.Save(appconfig.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		cfg, err := appconfig.Parse(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d providers, default %s\n", path, len(cfg.Providers), cfg.DefaultProvider)
		return nil
	},
}
