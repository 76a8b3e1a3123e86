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

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage the category catalog",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		categories, err := st.ListCategories(ctx)
		if err != nil {
			return eris.Wrap(err, "categories list")
		}

		if len(categories) == 0 {
			fmt.Fprintln(os.Stderr, "No categories found.")
			return nil
		}

		formatCategoriesList(os.Stdout, categories)
		return nil
	},
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <category-id>",
	Short: "Delete a category and its presets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteCategory(ctx, args[0]); err != nil {
			return eris.Wrap(err, "categories delete")
		}
		fmt.Println("Category deleted.")
		return nil
	},
}

func formatCategoriesList(w io.Writer, categories []model.Category) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tORDER\tLOCATION")
	for _, c := range categories {
		location := ""
		if c.CapturesLocation {
			location = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Name, c.Color, c.SortOrder, location)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesDeleteCmd)
	rootCmd.AddCommand(categoriesCmd)
}
