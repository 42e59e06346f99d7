/*
Package cli provides command-line helpers for the ideagate command: output
formatting, the audit record table, error types, and signal handling.

Output Formatting:

Command results are printed as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Audit records additionally support CSV and a text table:

	exporter, err := cli.NewRecordExporter(cli.FormatText)
	err = exporter.Export(ctx, records, os.Stdout)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(logger)
	defer stop()
*/
package cli
