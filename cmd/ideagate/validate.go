package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"guionesreels/ideagate/pkg/prompt"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides, apply defaults,
and report every validation error. Nothing is started and no backend is
contacted.

Examples:
  # Validate defaults plus environment
  ideagate validate

  # Validate a file
  ideagate validate --config /etc/ideagate/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")

	if verbose {
		fmt.Fprintf(out, "  listen:      %s%s\n", cfg.Server.ListenAddress, cfg.Server.Route)
		fmt.Fprintf(out, "  mode:        %s\n", cfg.Gateway.Mode)
		fmt.Fprintf(out, "  origins:     %v\n", cfg.Gateway.AllowedOriginSet())
		fmt.Fprintf(out, "  model:       %s\n", cfg.Completion.Model)
		fmt.Fprintf(out, "  safety:      %d categories at %s\n", len(prompt.Categories()), cfg.Completion.SafetyThreshold)
		if cfg.RateLimit.IsEnabled() {
			fmt.Fprintf(out, "  rate limit:  %d per %s (%s)\n", cfg.RateLimit.Points, cfg.RateLimit.Duration, cfg.RateLimit.Backend)
		} else {
			fmt.Fprintln(out, "  rate limit:  disabled")
		}
		fmt.Fprintf(out, "  audit:       %t\n", cfg.Audit.Enabled)
	}
	return nil
}
