// Package normalize maps harvested pages, spreadsheet rows and manual input
// onto the canonical challenge record.
package normalize

import (
	"errors"
	"strings"

	"challenge-harvester/internal/models"
)

// ErrManualInput is returned when a manual entry lacks a title or a brief.
var ErrManualInput = errors.New("both title and brief are required")

// metaColumns are the metadata labels copied from a harvested page.
var metaColumns = []string{models.ColSubjects, models.ColDifficulty, models.ColTheme, models.ColType}

// FromSection builds a record from one harvested detail page.
// fallbackTitle is used when the page itself had no title.
func FromSection(sec models.Section, fallbackTitle string) models.Challenge {
	rec := models.Challenge{
		Title: strings.TrimSpace(sec.Title),
		URL:   strings.TrimSpace(sec.URL),
	}
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(fallbackTitle)
	}
	for label, text := range sec.Sections {
		rec.Set(label, text)
	}
	for _, col := range metaColumns {
		if v, ok := sec.Meta[col]; ok {
			rec.Set(col, v.String())
		}
	}
	return rec
}

// FromRow copies every recognized column by exact name. Unknown columns are dropped.
func FromRow(row map[string]string) models.Challenge {
	var rec models.Challenge
	for col, v := range row {
		rec.Set(col, v)
	}
	rec.Title = strings.TrimSpace(rec.Title)
	return rec
}

// FromManual validates and builds an operator-entered record.
func FromManual(title, brief string) (models.Challenge, error) {
	title, brief = strings.TrimSpace(title), strings.TrimSpace(brief)
	if title == "" || brief == "" {
		return models.Challenge{}, ErrManualInput
	}
	return models.Challenge{Title: title, Brief: brief}, nil
}
