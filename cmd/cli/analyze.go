package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/pipeline"
)

var (
	analyzeSheet  string
	analyzeOutput string
	analyzeLatest bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Tag every row of a workbook, CSV or NDJSON file",
	Long: `Analyze reads one sheet (the first unless --sheet is given), checks that it has
a Title column, and tags the rows one at a time. With --latest the most recent
scrape workbook in the output directory is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		path, err := analyzeInput(args)
		if err != nil {
			return err
		}
		tables, err := ioformats.ReadTables(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		sheet := analyzeSheet
		if sheet == "" && analyzeLatest {
			sheet = "Challenge Details"
		}
		tbl, err := ioformats.Sheet(tables, sheet)
		if err != nil {
			return err
		}
		recs, err := pipeline.RecordsFromTable(tbl)
		if err != nil {
			return err
		}

		gen, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		ds := dataset.New(dataset.SectionUpload, "Uploaded")
		release, err := ds.Acquire("analysis")
		if err != nil {
			return err
		}
		defer release()

		rep, runErr := newPipeline(gen).Run(ctx, ds, recs, printProgress)

		out := analyzeOutput
		if out == "" {
			out = filepath.Join(cfg.Scraper.OutputDir, ioformats.TimestampedName("analysis_", time.Now()))
		}
		if err := writeDataset(out, ds); err != nil {
			return err
		}
		printReport(rep, out)
		return runErr
	},
}

func analyzeInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !analyzeLatest {
		return "", errors.New("a file argument or --latest is required")
	}
	path, err := ioformats.LatestWorkbook(cfg.Scraper.OutputDir, cfg.Scraper.FilePrefix)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("no %s*.xlsx workbook in %s", cfg.Scraper.FilePrefix, cfg.Scraper.OutputDir)
	}
	return path, nil
}

// writeDataset saves ds as xlsx, or NDJSON when path ends in .ndjson.
func writeDataset(path string, ds *dataset.Dataset) error {
	if filepath.Ext(path) == ".ndjson" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return ioformats.WriteNDJSON(f, ds.Rows())
	}
	return ioformats.SaveWorkbook(path, ioformats.ChallengeTable(ds.Sheet, ds.Rows()))
}

func printReport(rep pipeline.Report, out string) {
	fmt.Printf("run %s: %d records, %d inserted, %d replaced, %d skipped, %d generation failures, %d merged, %d merge failures\n",
		rep.RunID, rep.Total, rep.Inserted, rep.Replaced, rep.Skipped, rep.GenerationFailed, rep.Merged, rep.MergeFailed)
	for _, f := range rep.Failures() {
		fmt.Fprintf(os.Stderr, "  generation failed for %q: %v\n", f.Title, f.Err)
	}
	if rep.Aborted {
		fmt.Fprintln(os.Stderr, "aborted; rows committed so far were kept")
	}
	fmt.Printf("results written to %s\n", out)
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeSheet, "sheet", "s", "", "sheet to analyze (default: first sheet)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "output file, .xlsx or .ndjson")
	analyzeCmd.Flags().BoolVar(&analyzeLatest, "latest", false, "analyze the most recent scrape workbook")
	rootCmd.AddCommand(analyzeCmd)
}
