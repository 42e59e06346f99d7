package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guionesreels/ideagate/pkg/cli"
	"guionesreels/ideagate/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ideagate",
	Short: "Ideagate - gateway for the reel idea generator",
	Long: `Ideagate exposes POST /generate to the reel idea site.

Each request goes through the same pipeline:
  - Origin and method checks
  - Per-client rate limiting
  - Input validation and forbidden-character screening
  - A fixed prompt template with a safety policy
  - One call to the completion service

Configuration comes from an optional YAML file and IDEAGATE_* environment
variables, which take precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// loadConfig loads the configuration file named by --config (which may be
// empty) with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and environment only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
