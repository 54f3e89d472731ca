package ioformats

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// TimestampedName is prefix + timestamp + ".xlsx".
func TimestampedName(prefix string, t time.Time) string {
	return prefix + t.Format(timestampLayout) + ".xlsx"
}

// LatestWorkbook returns the most recently modified prefix*.xlsx in dir, or "".
func LatestWorkbook(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.xlsx"))
	if err != nil {
		return "", err
	}
	var (
		latest  string
		latestT time.Time
	)
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), "~$") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(latestT) {
			latest, latestT = m, info.ModTime()
		}
	}
	return latest, nil
}
