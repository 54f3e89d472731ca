package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/scraper"
	"challenge-harvester/pkg/logger"
)

var (
	scrapeOutDir  string
	scrapePrefix  string
	scrapeAnalyze bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <listing-url>",
	Short: "Scrape the challenge listing into a timestamped workbook",
	Long: `Scrape reads every challenge linked from the listing page and writes a workbook
with a "Basic Info" sheet (Title, url) and a "Challenge Details" sheet.
Pages that fail to load are logged and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		sc, closeScraper := scraper.Build(cfg, logger.For("scraper"))
		defer closeScraper()

		dir := scrapeOutDir
		if dir == "" {
			dir = cfg.Scraper.OutputDir
		}
		prefix := scrapePrefix
		if prefix == "" {
			prefix = cfg.Scraper.FilePrefix
		}

		path, res, err := sc.ScrapeToWorkbook(ctx, args[0], dir, prefix, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("scraped %d challenges (%d skipped) into %s\n", len(res.Records), len(res.Skipped), path)

		if !scrapeAnalyze {
			return nil
		}
		gen, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		ds := dataset.New(dataset.SectionScrape, "Scraped")
		rep, runErr := newPipeline(gen).Run(ctx, ds, res.Records, printProgress)
		out := filepath.Join(dir, ioformats.TimestampedName("scraped_analysis_", time.Now()))
		if err := ioformats.SaveWorkbook(out, ioformats.ChallengeTable(ds.Sheet, ds.Rows())); err != nil {
			return err
		}
		printReport(rep, out)
		return runErr
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOutDir, "output-dir", "o", "", "directory for the workbook (default from config)")
	scrapeCmd.Flags().StringVar(&scrapePrefix, "prefix", "", "workbook file name prefix (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeAnalyze, "analyze", false, "tag the scraped challenges right away")
	rootCmd.AddCommand(scrapeCmd)
}
