package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autopilot/internal/pipeline"
	"github.com/jonathan/resume-autopilot/internal/types"
)

type runFlags struct {
	mode       string
	jd         string
	templateID string
	resumeName string
	debug      bool
	configPath string
	useBrowser bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the resume optimisation pipeline end-to-end",
		Long: `Authenticates with the resume API, fetches the resume, optimises it with an LLM
(optionally tailored to a job description), generates the PDF and reports the result.

Examples:
  # Generic optimisation
  resume_pipeline run --mode generic

  # JD-optimised with direct text, a file or a URL
  resume_pipeline run --mode job-description --jd "Software Engineer position..."
  resume_pipeline run --mode job-description --jd job_description.txt
  resume_pipeline run --mode job-description --jd https://jobs.lever.co/acme/123

  # Custom template and name
  resume_pipeline run --template-id templates/modern.cshtml --resume-name John_Doe_2024`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.mode, "mode", string(types.ModeGeneric), "Optimisation mode: 'generic' or 'job-description'")
	cmd.Flags().StringVar(&f.jd, "jd", "no", "Job description: text, file path or URL; 'no' for none")
	cmd.Flags().StringVar(&f.templateID, "template-id", "", "Template ID for resume generation (default DEFAULT_TEMPLATE_ID)")
	cmd.Flags().StringVar(&f.resumeName, "resume-name", "", "Output resume filename (default DEFAULT_RESUME_NAME)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a JSON or YAML config file overriding the environment")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Render job description URLs in headless Chrome when needed")

	return cmd
}

func runPipeline(cmd *cobra.Command, f runFlags) error {
	ctx := cmd.Context()

	cfg, err := loadSettings(f.configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg, f.debug, cmd.ErrOrStderr())

	mode, err := types.ParseMode(f.mode)
	if err != nil {
		return err
	}

	log.Info("Validating config")
	if err := cfg.Validate(); err != nil {
		log.Error("Configuration invalid", "error", err)
		return err
	}

	opts := pipeline.Options{
		Mode:           mode,
		JobDescription: f.jd,
		TemplateID:     cfg.DefaultTemplateID,
		ResumeName:     cfg.DefaultResumeName,
	}
	if cmd.Flags().Changed("template-id") {
		opts.TemplateID = f.templateID
	}
	if cmd.Flags().Changed("resume-name") {
		opts.ResumeName = f.resumeName
	}

	svc, err := buildServices(ctx, cfg, log, wiring{useBrowser: f.useBrowser, out: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	defer svc.Close()

	_, err = svc.pipeline.Run(ctx, opts)
	return err
}
