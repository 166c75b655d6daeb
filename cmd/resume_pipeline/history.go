package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autopilot/internal/db"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		asJSON     bool
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs recorded in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set; run history is disabled")
			}

			ctx := cmd.Context()
			database, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := database.ListRecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd, runs, asJSON)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file overriding the environment")
	return cmd
}

func printRuns(cmd *cobra.Command, runs []db.Run, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal runs: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tMODE\tSTATUS\tSCORE\tRESULT")
	for _, r := range runs {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.0f", *r.Score)
		}
		result := ""
		switch {
		case r.PDFURL != nil:
			result = *r.PDFURL
		case r.ErrorMessage != nil:
			result = *r.ErrorMessage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.Status, score, result)
	}
	return tw.Flush()
}
