package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pocketlog/pocketlog/internal/importer"
	"github.com/pocketlog/pocketlog/internal/model"
	"github.com/pocketlog/pocketlog/internal/store"
)

var (
	logName     string
	logCategory string
	logNote     string
	logAt       string
)

var logAtLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", time.RFC3339}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a single event",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		occurred := time.Now()
		if logAt != "" {
			parsed, err := parseLogAt(logAt)
			if err != nil {
				return err
			}
			occurred = parsed
		}

		category := logCategory
		if category == "" {
			category = "Uncategorized"
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		categories, err := st.ListCategories(ctx)
		if err != nil {
			return err
		}
		presets, err := st.ListPresets(ctx)
		if err != nil {
			return err
		}
		events, err := st.ListEvents(ctx, store.EventFilter{})
		if err != nil {
			return err
		}

		// One-event run through the same resolve/dedup/commit path the
		// importer uses.
		resolver := importer.NewResolver(categories, presets, cfg.Import.DefaultCategoryColor, cfg.Import.DefaultPresetIcon)
		keys := importer.NewKeySet()
		keys.Seed(events)

		c := &importer.Candidate{
			OccurredAt: occurred,
			Name:       logName,
			Category:   category,
			Note:       logNote,
		}
		cat, preset := resolver.Resolve(c)

		if !keys.Insert(importer.DedupKey(c.OccurredAt, c.Name)) {
			return eris.Errorf("%q is already logged for that minute", logName)
		}

		ev := model.Event{
			ID:           uuid.New().String(),
			OccurredAt:   occurred,
			Note:         logNote,
			PresetID:     preset.ID,
			Name:         logName,
			CategoryName: cat.Name,
			Icon:         preset.Icon,
			ColorHex:     firstNonEmpty(preset.Color, cat.Color),
			CreatedAt:    time.Now().UTC(),
		}

		newCategories, newPresets := resolver.Created()
		batch := store.ImportBatch{Categories: newCategories, Presets: newPresets, Events: []model.Event{ev}}
		if err := st.CommitImport(ctx, batch); err != nil {
			return err
		}

		fmt.Printf("Logged %q (%s) at %s.\n", logName, cat.Name, occurred.Format("2006-01-02 15:04"))
		return nil
	},
}

func parseLogAt(s string) (time.Time, error) {
	for _, layout := range logAtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("parse --at %q (want YYYY-MM-DD HH:MM)", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	logCmd.Flags().StringVar(&logName, "name", "", "event name (required)")
	logCmd.Flags().StringVar(&logCategory, "category", "", "category name (created if missing)")
	logCmd.Flags().StringVar(&logNote, "note", "", "free-text note")
	logCmd.Flags().StringVar(&logAt, "at", "", "event time (YYYY-MM-DD HH:MM, default now)")
	_ = logCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(logCmd)
}
