package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"guionesreels/ideagate/pkg/cli"
	"guionesreels/ideagate/pkg/gateway"
	"guionesreels/ideagate/pkg/prompt"
)

var promptFlags struct {
	format string
}

var promptCmd = &cobra.Command{
	Use:   "prompt <promesa>",
	Short: "Render the prompt for a value promise",
	Long: `Check a value promise with the gateway's input rules and print the prompt
and safety policy that would be sent to the completion service. The service
is not called.

Examples:
  ideagate prompt "Ayudo a emprendedoras a vender sin redes"
  ideagate prompt --format json "Enseño finanzas personales"`,
	Args: cobra.MinimumNArgs(1),
	RunE: renderPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().StringVar(&promptFlags.format, "format", "text", "output format: text, json")
}

// renderedPrompt is the json output of the prompt command.
type renderedPrompt struct {
	Model          string                 `json:"model"`
	Prompt         string                 `json:"prompt"`
	SafetySettings []prompt.SafetySetting `json:"safety_settings"`
}

func renderPrompt(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(promptFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "csv is not supported for prompts")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	promesa := strings.Join(args, " ")
	if err := gateway.CheckPromesa(promesa, cfg.Gateway.MaxPromiseLength, cfg.Gateway.ForbiddenCharacters); err != nil {
		return cli.NewCommandError("prompt", err)
	}

	rendered := renderedPrompt{
		Model:          cfg.Completion.Model,
		Prompt:         prompt.Render(promesa),
		SafetySettings: prompt.SafetySettings(cfg.Completion.SafetyThreshold),
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, rendered)
	}

	fmt.Fprint(out, rendered.Prompt)
	fmt.Fprintf(out, "\nModel: %s\nSafety settings:\n", rendered.Model)
	for _, s := range rendered.SafetySettings {
		fmt.Fprintf(out, "  %-34s %s\n", s.Category, s.Threshold)
	}
	return nil
}
