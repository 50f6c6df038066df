package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"stemset/internal/builds"
	"stemset/internal/config"
	"stemset/internal/deps"
	"stemset/internal/driver"
	"stemset/internal/logging"
)

// neededRequirements drops the requirements for backends this run disables.
func neededRequirements(cfg *config.Config, opts driver.Options) []deps.Requirement {
	var reqs []deps.Requirement
	for _, req := range deps.Requirements(cfg) {
		if opts.NoSpleeter && req.Name == "spleeter" {
			continue
		}
		if opts.NoDemucs && req.Name == "demucs" {
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var opts driver.Options

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build every item of a corpus catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(neededRequirements(cfg, opts))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v (run 'stemset deps' for details)", missing)
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "stemset.log")},
			})
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := builds.Open(cfg)
			if err != nil {
				return fmt.Errorf("open build store: %w", err)
			}
			defer store.Close()

			opts.Progress = true
			d, err := driver.New(cfg, store, logger, opts)
			if err != nil {
				return err
			}
			summary, err := d.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %d items, %d completed, %d skipped, %d failed\n",
				summary.RunID, summary.Total, summary.Completed, summary.Skipped, summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d item(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Corpus, "corpus", "", "Corpus catalog name (in the catalog directory) or path")
	cmd.Flags().BoolVar(&opts.ForceDownload, "force-download", false, "Redownload raw excerpts even when fresh")
	cmd.Flags().BoolVar(&opts.ForceSeparation, "force-separation", false, "Rerun separation even when stems are fresh")
	cmd.Flags().BoolVar(&opts.NoSpleeter, "no-spleeter", false, "Skip the spleeter backend")
	cmd.Flags().BoolVar(&opts.NoDemucs, "no-demucs", false, "Skip the demucs backend")
	cmd.Flags().BoolVar(&opts.IncludeLog, "include-log", false, "Attach the build log to each item's catalog metadata")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}
