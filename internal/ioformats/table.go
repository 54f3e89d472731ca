package ioformats

import (
	"errors"
	"fmt"
	"strings"

	"challenge-harvester/internal/models"
)

// ErrSchema marks an ingested sheet without a required column.
var ErrSchema = errors.New("schema violation")

type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required column(s): %s", e.Sheet, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Table is one sheet: an ordered header and rows keyed by column name.
type Table struct {
	Name   string
	Header []string
	Rows   []map[string]string
}

func (t Table) Has(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// Require reports the named columns that the header lacks.
func (t Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Sheet: t.Name, Missing: missing}
	}
	return nil
}

// Grid returns the header followed by one line per row.
func (t Table) Grid() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, r := range t.Rows {
		line := make([]string, len(t.Header))
		for i, h := range t.Header {
			line[i] = r[h]
		}
		out = append(out, line)
	}
	return out
}

func fromGrid(name string, grid [][]string) Table {
	t := Table{Name: name}
	if len(grid) == 0 {
		return t
	}
	for _, h := range grid[0] {
		t.Header = append(t.Header, strings.TrimSpace(h))
	}
	for _, line := range grid[1:] {
		row := make(map[string]string, len(t.Header))
		empty := true
		for i, h := range t.Header {
			if h == "" || i >= len(line) {
				continue
			}
			row[h] = line[i]
			if strings.TrimSpace(line[i]) != "" {
				empty = false
			}
		}
		if !empty {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// ChallengeTable lays records out for export: the tag columns first, then
// every context column that any record fills.
func ChallengeTable(name string, recs []models.Challenge) Table {
	return recordTable(name, models.TagColumns, recs)
}

// SourceTable lays out records that have not been tagged yet: the title
// followed by the context columns any record fills.
func SourceTable(name string, recs []models.Challenge) Table {
	return recordTable(name, []string{models.ColTitle}, recs)
}

func recordTable(name string, lead []string, recs []models.Challenge) Table {
	header := append([]string(nil), lead...)
	for _, col := range models.ContextColumns {
		for _, r := range recs {
			if r.Get(col) != "" {
				header = append(header, col)
				break
			}
		}
	}
	t := Table{Name: name, Header: header}
	for _, r := range recs {
		row := make(map[string]string, len(header))
		for _, h := range header {
			row[h] = r.Get(h)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ListingTable is the "Basic Info" sheet of a scrape.
func ListingTable(name string, entries []models.ListingEntry) Table {
	t := Table{Name: name, Header: []string{models.ColTitle, models.ColURL}}
	for _, e := range entries {
		t.Rows = append(t.Rows, map[string]string{models.ColTitle: e.Title, models.ColURL: e.URL})
	}
	return t
}
