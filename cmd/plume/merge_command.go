package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plume/internal/merge"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Combine downloaded day files into the merged CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			summary, err := merge.New(cfg, logger).Run()
			if err != nil {
				return fmt.Errorf("merge day files: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d day files (%d rows) into %s\n",
				summary.Merged, summary.Rows, cfg.MergedPath())
			if summary.Removed > 0 {
				fmt.Fprintf(out, "Removed %d undersized day files\n", summary.Removed)
			}
			return nil
		},
	}
}
