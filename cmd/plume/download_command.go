package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"plume/internal/config"
	"plume/internal/geo"
	"plume/internal/orchestrator"
	"plume/internal/runlock"
	"plume/internal/store"
	"plume/internal/timeseries"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var lookbackDays int
	var forceLargeArea bool

	cmd := &cobra.Command{
		Use:   "download <min-lat> <max-lat> <min-lon> <max-lon>",
		Short: "Download feed history for settled sensors inside a bounding box",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := parseBox(args)
			if err != nil {
				return err
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				fetcher := timeseries.New(cfg, nil, logger)
				runner := orchestrator.New(cfg, st, fetcher, logger)

				summary, err := runner.Run(cmd.Context(), orchestrator.Options{
					Box:            box,
					LookbackDays:   lookbackDays,
					ForceLargeArea: forceLargeArea,
				})
				switch {
				case errors.Is(err, orchestrator.ErrBoxTooLarge):
					return fmt.Errorf("%w (rerun with --force-large-area to override)", err)
				case errors.Is(err, runlock.ErrAlreadyRunning):
					return err
				case err != nil:
					return fmt.Errorf("download run: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Considered %d sensors\n", summary.Sensors)
				fmt.Fprintf(out, "  completed:  %d\n", summary.Completed)
				fmt.Fprintf(out, "  skipped:    %d\n", summary.Skipped)
				fmt.Fprintf(out, "  failed:     %d\n", summary.Failed)
				fmt.Fprintf(out, "  downloaded: %d files (%d cached, %d discarded)\n",
					summary.Downloaded, summary.Cached, summary.Discarded)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&lookbackDays, "days", 0, "Limit the window to the last N days (0 means full history)")
	cmd.Flags().BoolVar(&forceLargeArea, "force-large-area", false, "Allow bounding boxes wider than the configured limit")
	return cmd
}

func parseBox(args []string) (geo.Box, error) {
	values := make([]float64, 4)
	names := []string{"min-lat", "max-lat", "min-lon", "max-lon"}
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return geo.Box{}, fmt.Errorf("parse %s %q: %w", names[i], arg, err)
		}
		values[i] = v
	}
	box := geo.Box{MinLat: values[0], MaxLat: values[1], MinLon: values[2], MaxLon: values[3]}
	if box.MinLat > box.MaxLat {
		return geo.Box{}, fmt.Errorf("min-lat %.4f exceeds max-lat %.4f", box.MinLat, box.MaxLat)
	}
	if box.MinLon > box.MaxLon {
		return geo.Box{}, fmt.Errorf("min-lon %.4f exceeds max-lon %.4f", box.MinLon, box.MaxLon)
	}
	return box, nil
}
