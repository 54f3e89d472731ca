package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/models"
	"challenge-harvester/internal/normalize"
)

var (
	addTitle    string
	addBrief    string
	addWorkbook string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Tag one challenge entered by hand and store it in a workbook",
	Long: `Add tags a single challenge from its title and brief. The entry is stored in the
"Manual" sheet of --workbook; an existing row with the same title (ignoring case)
is merged with the new one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		ds := dataset.New(dataset.SectionManual, "Manual")
		tables, err := loadSheet(addWorkbook, ds)
		if err != nil {
			return err
		}

		gen, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		res, err := newPipeline(gen).AddManual(ctx, ds, addTitle, addBrief)
		if err != nil {
			return err
		}
		if !res.Committed() {
			return fmt.Errorf("%s not stored: %s", res.Title, res.State)
		}
		tables = ioformats.ReplaceSheet(tables, ioformats.ChallengeTable(ds.Sheet, ds.Rows()))
		if err := ioformats.SaveWorkbook(addWorkbook, tables...); err != nil {
			return err
		}
		fmt.Printf("%s: %s (%s)\n", res.Title, res.State, res.Outcome)
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", res.Err)
		}
		return nil
	},
}

// loadSheet fills ds from its sheet in path and returns every sheet of the
// workbook so the others survive the save. A missing file or sheet starts empty.
func loadSheet(path string, ds *dataset.Dataset) ([]ioformats.Table, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	tables, err := ioformats.ReadWorkbook(path)
	if err != nil {
		return nil, err
	}
	tbl, err := ioformats.Sheet(tables, ds.Sheet)
	if errors.Is(err, ioformats.ErrSheetNotFound) {
		return tables, nil
	}
	if err != nil {
		return nil, err
	}
	rows := make([]models.Challenge, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rows = append(rows, normalize.FromRow(row))
	}
	ds.Replace(rows)
	return tables, nil
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "challenge title (required)")
	addCmd.Flags().StringVarP(&addBrief, "brief", "b", "", "challenge brief (required)")
	addCmd.Flags().StringVarP(&addWorkbook, "workbook", "w", "manual_challenges.xlsx", "workbook holding the Manual sheet")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("brief")
	rootCmd.AddCommand(addCmd)
}
