package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"plume/internal/config"
	"plume/internal/sensor"
	"plume/internal/store"
)

func newSensorsCommand(ctx *commandContext) *cobra.Command {
	sensorsCmd := &cobra.Command{
		Use:   "sensors",
		Short: "Inspect and manage the local sensor registry",
	}

	sensorsCmd.AddCommand(newSensorsListCommand(ctx))
	sensorsCmd.AddCommand(newSensorsSettleCommand(ctx))
	sensorsCmd.AddCommand(newSensorsShowCommand(ctx))

	return sensorsCmd
}

func newSensorsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known sensors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				sensors, err := st.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sensors) == 0 {
					fmt.Fprintln(out, "No sensors recorded; run `plume sync` first")
					return nil
				}

				titler := cases.Title(language.Und)
				rows := make([][]string, 0, len(sensors))
				for _, sn := range sensors {
					rows = append(rows, []string{
						strconv.FormatInt(sn.ID, 10),
						sn.Name,
						titler.String(sn.LocationType),
						formatCoord(sn.Latitude),
						formatCoord(sn.Longitude),
						formatDate(sn.LastSeen),
						yesNo(sn.Processed),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Location", "Lat", "Lon", "Last Seen", "Settled"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))

				total, processed, err := st.Counts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d sensors (%d settled)\n", total, processed)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of sensors to list (0 means all)")
	return cmd
}

func newSensorsSettleCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "settle [sensor-id...]",
		Short: "Settle sensors so syncs leave them untouched and downloads pick them up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all cannot be combined with explicit sensor ids")
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("provide sensor ids or --all")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				var settled int64
				if all {
					n, err := st.MarkAllProcessed(cmd.Context())
					if err != nil {
						return err
					}
					settled = n
				} else {
					ids := make([]int64, 0, len(args))
					for _, arg := range args {
						id, err := strconv.ParseInt(arg, 10, 64)
						if err != nil {
							return fmt.Errorf("parse sensor id %q: %w", arg, err)
						}
						ids = append(ids, id)
					}
					n, err := st.MarkProcessed(cmd.Context(), ids...)
					if err != nil {
						return err
					}
					settled = n
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Settled %d sensors\n", settled)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Settle every sensor with a known location")
	return cmd
}

func newSensorsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <sensor-id>",
		Short: "Show one sensor in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse sensor id %q: %w", args[0], err)
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				sn, err := st.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if sn == nil {
					return fmt.Errorf("sensor %d is not in the registry", id)
				}
				printSensor(cmd, sn)
				return nil
			})
		},
	}
}

func printSensor(cmd *cobra.Command, sn *sensor.Sensor) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sensor %d: %s\n", sn.ID, sn.Name)
	if sn.ParentID != nil {
		fmt.Fprintf(out, "  parent:    %d\n", *sn.ParentID)
	}
	fmt.Fprintf(out, "  location:  %s (%s, %s)\n",
		cases.Title(language.Und).String(sn.LocationType),
		formatCoord(sn.Latitude), formatCoord(sn.Longitude))
	fmt.Fprintf(out, "  hidden:    %s\n", yesNo(sn.Hidden))
	fmt.Fprintf(out, "  type:      %s\n", sn.Type)
	fmt.Fprintf(out, "  firmware:  %s\n", sn.FirmwareVersion)
	if sn.SignalStrength != nil {
		fmt.Fprintf(out, "  rssi:      %d dBm\n", *sn.SignalStrength)
	}
	fmt.Fprintf(out, "  created:   %s\n", formatDate(sn.CreatedDate))
	fmt.Fprintf(out, "  last seen: %s\n", formatDate(sn.LastSeen))
	for _, feed := range sn.Feeds() {
		fmt.Fprintf(out, "  %s feed: channel %s\n", feed.Instance, feed.ID)
	}
	fmt.Fprintf(out, "  settled:   %s\n", yesNo(sn.Processed))
}

func formatCoord(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 4, 64)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format("2006-01-02")
}
