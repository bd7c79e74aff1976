package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plume/internal/config"
	"plume/internal/registry"
	"plume/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local sensor registry from the remote service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				client := registry.NewClient(cfg, nil, logger)
				syncer := registry.NewSyncer(cfg, st, client, logger)

				summary, err := syncer.Sync(cmd.Context())
				if err != nil {
					return fmt.Errorf("sync registry: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Processed %d registry records\n", summary.Records)
				fmt.Fprintf(out, "  upserted:          %d\n", summary.Upserted)
				fmt.Fprintf(out, "  settled (skipped): %d\n", summary.Settled)
				fmt.Fprintf(out, "  missing location:  %d\n", summary.NoLocation)
				return nil
			})
		},
	}
}
