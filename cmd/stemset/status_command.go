package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stemset/internal/builds"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of a corpus build run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := builds.Open(cfg)
			if err != nil {
				return fmt.Errorf("open build store: %w", err)
			}
			defer store.Close()

			cmdCtx := cmd.Context()
			if runID == "" {
				runID, err = store.LatestRunID(cmdCtx)
				if err != nil {
					return err
				}
				if runID == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No build runs recorded yet.")
					return nil
				}
			}

			records, err := store.ListRun(cmdCtx, runID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no records for run %s", runID)
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					displayName(record.FName),
					string(record.Status),
					formatDuration(record.Duration()),
					record.ErrorMessage,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", runID)
			fmt.Fprintln(out, renderTable(
				[]string{"Item", "Status", "Duration", "Error"},
				rows,
				3,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run identifier (defaults to the most recent run)")
	return cmd
}

// displayName renders a catalog stem like "some_tune_1" as "Some Tune 1".
func displayName(fname string) string {
	cleaned := strings.ReplaceAll(fname, "_", " ")
	return cases.Title(language.Und).String(cleaned)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
