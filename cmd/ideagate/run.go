package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"guionesreels/ideagate/pkg/cli"
	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the gateway server with the specified configuration.

The server listens on the configured address and serves the generate route,
the health endpoints, and (when enabled) the metrics endpoint. SIGINT or SIGTERM
starts a graceful shutdown; a second signal exits immediately.

Examples:
  # Start with defaults and environment overrides
  ideagate run

  # Start with a configuration file
  ideagate run --config /etc/ideagate/config.yaml

  # Override listen address
  ideagate run --listen 0.0.0.0:8080

  # Validate config without starting server
  ideagate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		printBanner(out, cfg)
		return nil
	}

	printBanner(out, cfg)

	ctx, stop := cli.SetupSignalHandler(logger)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("error during shutdown", "error", err)
		}
	}()

	fmt.Fprintf(out, "✓ Completion provider ready (%s, model %s)\n", a.provider.GetName(), cfg.Completion.Model)
	if a.limiter.Enabled() {
		limits := a.limiter.Limits()
		fmt.Fprintf(out, "✓ Rate limit: %d requests per %s (%s backend)\n", limits.Points, limits.Duration, cfg.RateLimit.Backend)
	} else {
		fmt.Fprintln(out, "! Rate limiting disabled")
	}
	if a.pruner != nil {
		fmt.Fprintf(out, "✓ Audit trail enabled (%s backend)\n", cfg.Audit.Backend)
	}
	fmt.Fprintf(out, "✓ Listening on %s%s\n", cfg.Server.ListenAddress, cfg.Server.Route)

	if err := a.server.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Ideagate %s\n", Version)
	fmt.Fprintf(w, "  listen:  %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(w, "  mode:    %s\n", cfg.Gateway.Mode)
	fmt.Fprintf(w, "  origins: %v\n", cfg.Gateway.AllowedOriginSet())
}
