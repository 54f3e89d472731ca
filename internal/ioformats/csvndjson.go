
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadTables reads an .xlsx workbook (one table per sheet), a CSV file or an
// NDJSON file. If ext cannot be determined, tries xlsx, then CSV, then NDJSON.
func ReadTables(path string) ([]Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path)
	case ".csv":
		t, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		return []Table{t}, nil
	case ".ndjson", ".jsonl":
		t, err := readNDJSONFile(path)
		if err != nil {
			return nil, err
		}
		return []Table{t}, nil
	default:
		if tables, err := ReadWorkbook(path); err == nil {
			return tables, nil
		}
		if t, err := readCSVFile(path); err == nil && len(t.Rows) > 0 {
			return []Table{t}, nil
		}
		t, err := readNDJSONFile(path)
		if err != nil {
			return nil, err
		}
		return []Table{t}, nil
	}
}

func tableName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func readCSVFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	return ReadCSV(f, tableName(path))
}

// ReadCSV reads a CSV with a header row. Header names are trimmed.
func ReadCSV(r io.Reader, name string) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, errors.New("empty csv")
	}
	return fromGrid(name, rows), nil
}

func readNDJSONFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()
	return ReadNDJSON(f, tableName(path))
}

// ReadNDJSON reads one JSON object per line. Columns appear in first-seen order.
func ReadNDJSON(r io.Reader, name string) (Table, error) {
	t := Table{Name: name}
	seen := map[string]bool{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return Table{}, fmt.Errorf("ndjson line %d: %w", line, err)
		}
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			k = strings.TrimSpace(k)
			if !seen[k] {
				seen[k] = true
				t.Header = append(t.Header, k)
			}
			switch s := v.(type) {
			case string:
				row[k] = s
			case nil:
			default:
				b, _ := json.Marshal(s)
				row[k] = string(b)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := sc.Err(); err != nil {
		return Table{}, err
	}
	if len(t.Rows) == 0 {
		return Table{}, errors.New("no rows found in ndjson")
	}
	return t, nil
}

// WriteNDJSON writes any JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
