package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autopilot/internal/config"
	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/types"
)

func newValidateCmd() *cobra.Command {
	var (
		mode       string
		templateID string
		resumeName string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and inputs without calling any service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := types.ParseMode(mode); err != nil {
				return err
			}
			if cmd.Flags().Changed("template-id") && !config.ValidTemplateID(templateID) {
				return faults.Config("validate", fmt.Sprintf("invalid template ID %q: must end with %s", templateID, config.TemplateExtension))
			}
			if cmd.Flags().Changed("resume-name") && !config.ValidResumeName(resumeName) {
				return faults.Config("validate", fmt.Sprintf("invalid resume name %q", resumeName))
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Configuration valid")
			_, _ = fmt.Fprintf(out, "  Resume API:  %s\n", cfg.ResumeAPIBaseURL)
			_, _ = fmt.Fprintf(out, "  LLM:         %s\n", cfg.LLMProvider)
			_, _ = fmt.Fprintf(out, "  Polling:     %d x %s\n", cfg.MaxPollAttempts, cfg.PollInterval())
			if cfg.DatabaseURL != "" {
				_, _ = fmt.Fprintln(out, "  Run history: enabled")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeGeneric), "Optimisation mode to check")
	cmd.Flags().StringVar(&templateID, "template-id", "", "Template ID to check")
	cmd.Flags().StringVar(&resumeName, "resume-name", "", "Resume name to check")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file overriding the environment")
	return cmd
}
