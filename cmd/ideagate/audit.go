package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"guionesreels/ideagate/pkg/audit"
	auditstorage "guionesreels/ideagate/pkg/audit/storage"
	"guionesreels/ideagate/pkg/audit/retention"
	"guionesreels/ideagate/pkg/cli"
)

var auditFlags struct {
	limit   int
	outcome string
	status  int
	since   time.Duration
	format  string

	days       int
	maxRecords int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
	Long: `Inspect and maintain the per-request audit trail.

Records hold the outcome, status, sizes, and a hashed client identifier of
each request. Prompts, replies, and client addresses are never stored.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records, newest first",
	Long: `List audit records, newest first.

Examples:
  # Last 20 requests
  ideagate audit list --limit 20

  # Rate-limited requests in the last hour, as CSV
  ideagate audit list --outcome rate_limited --since 1h --format csv`,
	RunE: listAuditRecords,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records outside the retention policy",
	Long: `Run one retention pass now, using the configured retention unless
overridden.

Examples:
  # Apply the configured retention
  ideagate audit prune

  # Keep only the last 7 days
  ideagate audit prune --days 7`,
	RunE: pruneAuditRecords,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditPruneCmd)

	auditListCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.DefaultLimit, "maximum number of records")
	auditListCmd.Flags().StringVar(&auditFlags.outcome, "outcome", "", "only records with this outcome (ok, rate_limited, ...)")
	auditListCmd.Flags().IntVar(&auditFlags.status, "status", 0, "only records with this status code")
	auditListCmd.Flags().DurationVar(&auditFlags.since, "since", 0, "only records received within this duration")
	auditListCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "retention in days (uses config if not specified)")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", 0, "maximum records to keep (uses config if not specified)")
}

// openAuditStorage opens the configured audit store for offline use.
func openAuditStorage() (audit.Storage, *retention.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Audit.Backend == "memory" {
		return nil, nil, cli.NewConfigError("audit.backend", "the memory backend is not persisted; nothing to inspect")
	}

	store, err := auditstorage.New(cfg.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit storage: %w", err)
	}
	rc := retention.FromConfig(cfg.Audit.Retention)
	return store, &rc, nil
}

func listAuditRecords(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(auditFlags.format)
	if err != nil {
		return err
	}
	exporter, err := cli.NewRecordExporter(format)
	if err != nil {
		return err
	}

	query := &audit.Query{
		Outcome:    auditFlags.outcome,
		StatusCode: auditFlags.status,
		Limit:      auditFlags.limit,
		SortOrder:  "desc",
	}
	if auditFlags.since > 0 {
		start := time.Now().Add(-auditFlags.since)
		query.StartTime = &start
	}
	if err := audit.ValidateQuery(query); err != nil {
		return cli.NewConfigError("limit", err.Error())
	}
	audit.ApplyQueryDefaults(query)

	store, _, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}
	return exporter.Export(ctx, records, cmd.OutOrStdout())
}

func pruneAuditRecords(cmd *cobra.Command, args []string) error {
	store, rc, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	if auditFlags.days > 0 {
		rc.RetentionDays = auditFlags.days
	}
	if auditFlags.maxRecords > 0 {
		rc.MaxRecords = auditFlags.maxRecords
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deleted, err := retention.NewPruner(store, *rc).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d audit records\n", deleted)
	return nil
}
