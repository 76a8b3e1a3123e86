package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pocketlog/pocketlog/internal/model"
)

var presetsOrphan bool

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage the preset catalog",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		presets, err := st.ListPresets(ctx)
		if err != nil {
			return eris.Wrap(err, "presets list")
		}

		if len(presets) == 0 {
			fmt.Fprintln(os.Stderr, "No presets found.")
			return nil
		}

		categories, err := st.ListCategories(ctx)
		if err != nil {
			return eris.Wrap(err, "presets list")
		}
		categoryName := make(map[string]string, len(categories))
		for _, c := range categories {
			categoryName[c.ID] = c.Name
		}

		formatPresetsList(os.Stdout, presets, categoryName)
		return nil
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <preset-id>",
	Short: "Delete a preset",
	Long:  "Deletes a preset and its events. With --orphan the events are kept; their snapshot fields keep them displayable.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeletePreset(ctx, args[0], presetsOrphan); err != nil {
			return eris.Wrap(err, "presets delete")
		}
		if presetsOrphan {
			fmt.Println("Preset deleted; its events were kept.")
		} else {
			fmt.Println("Preset and its events deleted.")
		}
		return nil
	},
}

func formatPresetsList(w io.Writer, presets []model.Preset, categoryName map[string]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tICON\tCOLOR")
	for _, p := range presets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, categoryName[p.CategoryID], p.Icon, p.Color)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	presetsDeleteCmd.Flags().BoolVar(&presetsOrphan, "orphan", false, "keep the preset's events, clearing their preset link")
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)
	rootCmd.AddCommand(presetsCmd)
}
