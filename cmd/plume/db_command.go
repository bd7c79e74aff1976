package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"plume/internal/config"
	"plume/internal/preflight"
	"plume/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	dbCmd.AddCommand(newDBHealthCommand(ctx))
	dbCmd.AddCommand(newDBCheckCommand(ctx))

	return dbCmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check sensor database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				health, err := st.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintln(out, renderStatusLine("File exists", health.DatabaseExists, "", colorize))
				fmt.Fprintln(out, renderStatusLine("Readable", health.DatabaseReadable, "", colorize))
				fmt.Fprintln(out, renderStatusLine("Schema", health.TableExists, "", colorize))
				fmt.Fprintln(out, renderStatusLine("Integrity", health.IntegrityCheck, "", colorize))
				fmt.Fprintf(out, "  %-*s %d\n", statusLabelWidth, "Sensors:", health.TotalSensors)
				if health.Error != "" {
					fmt.Fprintf(out, "  %-*s %s\n", statusLabelWidth, "Error:", health.Error)
					return fmt.Errorf("database health check failed")
				}
				return nil
			})
		},
	}
}

func newDBCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run filesystem and endpoint readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg)
			results = append(results, preflight.RunRemote(cmd.Context(), cfg)...)
			for _, res := range results {
				fmt.Fprintln(out, renderStatusLine(res.Name, res.Passed, res.Detail, colorize))
			}
			if !preflight.AllPassed(results) {
				return fmt.Errorf("readiness checks failed")
			}
			return nil
		},
	}
}
