package ioformats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var ErrSheetNotFound = errors.New("sheet not found")

// ReadWorkbook reads every sheet of an xlsx file, in workbook order.
func ReadWorkbook(path string) ([]Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheets(f)
}

func ReadWorkbookFrom(r io.Reader) ([]Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readSheets(f)
}

func readSheets(f *excelize.File) ([]Table, error) {
	var out []Table
	for _, name := range f.GetSheetList() {
		grid, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		out = append(out, fromGrid(name, grid))
	}
	if len(out) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return out, nil
}

// Sheet returns the table named name, or the first table when name is empty.
func Sheet(tables []Table, name string) (Table, error) {
	if len(tables) == 0 {
		return Table{}, errors.New("no sheets")
	}
	if name == "" {
		return tables[0], nil
	}
	for _, t := range tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%q: %w", name, ErrSheetNotFound)
}

// ReplaceSheet returns tables with the same-named table swapped for t, or t
// appended when no sheet has that name. Sheet order is kept.
func ReplaceSheet(tables []Table, t Table) []Table {
	out := make([]Table, 0, len(tables)+1)
	replaced := false
	for _, existing := range tables {
		if existing.Name == t.Name {
			out = append(out, t)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, t)
	}
	return out
}

// WriteWorkbook writes tables as sheets of one xlsx document, first sheet active.
func WriteWorkbook(w io.Writer, tables ...Table) error {
	f, err := buildWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveWorkbook writes tables to path, creating parent directories.
func SaveWorkbook(path string, tables ...Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := buildWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func buildWorkbook(tables []Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, errors.New("no tables to write")
	}
	f := excelize.NewFile()
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			f.Close()
			return nil, err
		}
		for r, line := range t.Grid() {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetSheetRow(t.Name, cell, &line); err != nil {
				f.Close()
				return nil, fmt.Errorf("write sheet %q: %w", t.Name, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}
