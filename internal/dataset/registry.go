package dataset

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownSection = errors.New("unknown section")

// Section names, one dataset per acquisition path.
const (
	SectionScrape = "scrape"
	SectionUpload = "upload"
	SectionManual = "manual"
)

// Registry keeps the per-section datasets. The sections are independent until
// combined for export.
type Registry struct {
	sections map[string]*Dataset
}

func NewRegistry() *Registry {
	return &Registry{sections: map[string]*Dataset{
		SectionScrape: New(SectionScrape, "Scraped"),
		SectionUpload: New(SectionUpload, "Uploaded"),
		SectionManual: New(SectionManual, "Manual"),
	}}
}

func (r *Registry) Get(section string) (*Dataset, error) {
	d, ok := r.sections[section]
	if !ok {
		return nil, fmt.Errorf("%q: %w", section, ErrUnknownSection)
	}
	return d, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sections))
	for k := range r.sections {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
