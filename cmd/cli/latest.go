package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"challenge-harvester/internal/ioformats"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recent scrape workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := ioformats.LatestWorkbook(cfg.Scraper.OutputDir, cfg.Scraper.FilePrefix)
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("no %s*.xlsx workbook in %s", cfg.Scraper.FilePrefix, cfg.Scraper.OutputDir)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(latestCmd)
}
