package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pocketlog/pocketlog/internal/importer"
)

var (
	importFilePath string
	importFormat   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import events from a prior export",
	Long:  "Imports a CSV export of this app or a third-party check-in JSON export, creating missing categories and presets and skipping duplicate check-ins.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format := importer.Format(importFormat)
		switch format {
		case importer.FormatCSV, importer.FormatCheckin:
		default:
			return eris.Errorf("unsupported format: %s (want csv or checkin)", importFormat)
		}

		f, err := os.Open(importFilePath)
		if err != nil {
			return eris.Wrap(err, "open import file")
		}
		defer f.Close() //nolint:errcheck

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := importer.New(st, cfg.Import).Run(ctx, f, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %s\n", failureReason(err))
			return err
		}

		zap.L().Info("import complete",
			zap.Int("imported", summary.Imported),
			zap.Int("skipped", summary.Skipped),
			zap.String("file", importFilePath),
		)
		fmt.Printf("Imported %d events, skipped %d duplicates.\n", summary.Imported, summary.Skipped)
		return nil
	},
}

// failureReason phrases the one-shot failure message from the error
// taxonomy.
func failureReason(err error) string {
	switch {
	case errors.Is(err, importer.ErrSourceUnreadable):
		return "the file could not be read as text"
	case errors.Is(err, importer.ErrEmptySource):
		return "no importable rows were found"
	case errors.Is(err, importer.ErrCommitFailed):
		return "saving the imported events failed; nothing was written"
	default:
		return err.Error()
	}
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to the export file (required)")
	importCmd.Flags().StringVar(&importFormat, "format", string(importer.FormatCSV), "source format: csv or checkin")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
