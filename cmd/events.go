package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pocketlog/pocketlog/internal/model"
	"github.com/pocketlog/pocketlog/internal/store"
)

var (
	eventsLimit    int
	eventsSince    string
	eventsCategory string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List logged events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter := store.EventFilter{Category: eventsCategory, Limit: eventsLimit}
		if eventsSince != "" {
			since, err := time.ParseInLocation("2006-01-02", eventsSince, time.Local)
			if err != nil {
				return eris.Wrapf(err, "parse --since %q (want YYYY-MM-DD)", eventsSince)
			}
			filter.Since = since
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		events, err := st.ListEvents(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "events list")
		}

		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No events found.")
			return nil
		}

		formatEventsList(os.Stdout, events)
		return nil
	},
}

func formatEventsList(w io.Writer, events []model.Event) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tEVENT\tCATEGORY\tLOCATION\tNOTE")
	for _, ev := range events {
		location := ev.LocationName
		if location == "" && ev.Geo != nil {
			location = fmt.Sprintf("%.4f,%.4f", ev.Geo.Lat, ev.Geo.Lon)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ev.OccurredAt.Local().Format("2006-01-02 15:04"),
			ev.Name,
			ev.CategoryName,
			location,
			truncate(ev.Note, 40),
		)
	}
	tw.Flush() //nolint:errcheck
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to list")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only list events on or after this date (YYYY-MM-DD)")
	eventsCmd.Flags().StringVar(&eventsCategory, "category", "", "only list events in this category")
	rootCmd.AddCommand(eventsCmd)
}
