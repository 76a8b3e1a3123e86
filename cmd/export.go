package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pocketlog/pocketlog/internal/export"
	"github.com/pocketlog/pocketlog/internal/store"
)

var (
	exportOutPath  string
	exportSince    string
	exportCategory string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export events to CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter := store.EventFilter{Category: exportCategory}
		if exportSince != "" {
			since, err := time.ParseInLocation("2006-01-02", exportSince, time.Local)
			if err != nil {
				return eris.Wrapf(err, "parse --since %q (want YYYY-MM-DD)", exportSince)
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
			return eris.Wrap(err, "export: list events")
		}

		f, err := os.Create(exportOutPath)
		if err != nil {
			return eris.Wrap(err, "create export file")
		}
		defer f.Close() //nolint:errcheck

		opts := export.Options{
			DateLayout: cfg.Export.DateLayout,
			TimeLayout: cfg.Export.TimeLayout,
		}
		if err := export.WriteCSV(f, events, opts); err != nil {
			return err
		}

		zap.L().Info("export complete", zap.Int("events", len(events)), zap.String("file", exportOutPath))
		fmt.Printf("Exported %d events to %s.\n", len(events), exportOutPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "", "path to write the CSV (required)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only export events on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "only export events in this category")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
