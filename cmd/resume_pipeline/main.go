// Package main provides the resume_pipeline command: it optimises a resume with an LLM,
// renders it to PDF through the resume API and reports the result to Telegram.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resume_pipeline",
		Short:         "Resume automation pipeline",
		Long:          "Resume automation pipeline: optimise and generate resumes using AI, with optional tailoring to a job description.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newRunCmd(), newNotifyCmd(), newValidateCmd(), newHistoryCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
