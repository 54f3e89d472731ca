
package models

import (
	"encoding/json"
	"strings"
)

// Column names shared by spreadsheets, prompts and merge payloads.
const (
	ColTitle                   = "Title"
	ColURL                     = "url"
	ColBrief                   = "Brief"
	ColBackground              = "Background"
	ColObjectives              = "Objectives"
	ColPotentialConsiderations = "Potential Considerations"
	ColSubjects                = "Subjects"
	ColDifficulty              = "Difficulty"
	ColTheme                   = "Theme"
	ColType                    = "Type"
	ColSummary                 = "Summary"
	ColFields                  = "Fields"
	ColSkills                  = "Skills"
	ColWorkshops               = "Workshops"
	ColMentors                 = "Mentors"
	ColCategory                = "Category"
)

// TagColumns is the output template order of the generated tag-set.
var TagColumns = []string{ColTitle, ColSummary, ColFields, ColSkills, ColWorkshops, ColMentors, ColCategory}

// ContextColumns are the optional source columns, in export order.
var ContextColumns = []string{
	ColURL, ColBrief, ColBackground, ColObjectives, ColPotentialConsiderations,
	ColSubjects, ColDifficulty, ColTheme, ColType,
}

// Challenge is the canonical record of one hackathon challenge.
type Challenge struct {
	Title                   string `json:"Title"`
	URL                     string `json:"url,omitempty"`
	Brief                   string `json:"Brief,omitempty"`
	Background              string `json:"Background,omitempty"`
	Objectives              string `json:"Objectives,omitempty"`
	PotentialConsiderations string `json:"Potential Considerations,omitempty"`
	Subjects                string `json:"Subjects,omitempty"`
	Difficulty              string `json:"Difficulty,omitempty"`
	Theme                   string `json:"Theme,omitempty"`
	Type                    string `json:"Type,omitempty"`

	Summary   string `json:"Summary"`
	Fields    string `json:"Fields"`
	Skills    string `json:"Skills"`
	Workshops string `json:"Workshops"`
	Mentors   string `json:"Mentors"`
	Category  string `json:"Category"`
}

// Key returns the identity used for upsert and merge matching.
func Key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (c Challenge) Key() string { return Key(c.Title) }

// Get returns the value stored under a column name, or "" if the column is unknown.
func (c Challenge) Get(col string) string {
	if p := c.field(col); p != nil {
		return *p
	}
	return ""
}

// Set stores v under a column name. Unknown columns are ignored and reported as false.
func (c *Challenge) Set(col, v string) bool {
	p := c.field(col)
	if p == nil {
		return false
	}
	*p = v
	return true
}

func (c *Challenge) field(col string) *string {
	switch col {
	case ColTitle:
		return &c.Title
	case ColURL:
		return &c.URL
	case ColBrief:
		return &c.Brief
	case ColBackground:
		return &c.Background
	case ColObjectives:
		return &c.Objectives
	case ColPotentialConsiderations:
		return &c.PotentialConsiderations
	case ColSubjects:
		return &c.Subjects
	case ColDifficulty:
		return &c.Difficulty
	case ColTheme:
		return &c.Theme
	case ColType:
		return &c.Type
	case ColSummary:
		return &c.Summary
	case ColFields:
		return &c.Fields
	case ColSkills:
		return &c.Skills
	case ColWorkshops:
		return &c.Workshops
	case ColMentors:
		return &c.Mentors
	case ColCategory:
		return &c.Category
	}
	return nil
}

// Tags is the structured tag-set parsed from a generation response.
// Every field is always present; a label the generator omitted is "".
type Tags struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Fields    string `json:"fields"`
	Skills    string `json:"skills"`
	Workshops string `json:"workshops"`
	Mentors   string `json:"mentors"`
	Category  string `json:"category"`
}

// Empty reports whether no label was recovered at all.
func (t Tags) Empty() bool {
	return t == Tags{}
}

// WithTags returns a copy of c carrying the AI-derived fields of t.
// The record title is left alone.
func (c Challenge) WithTags(t Tags) Challenge {
	c.Summary = t.Summary
	c.Fields = t.Fields
	c.Skills = t.Skills
	c.Workshops = t.Workshops
	c.Mentors = t.Mentors
	c.Category = t.Category
	return c
}

// ListingEntry is one challenge link found on the listing page.
type ListingEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MetaValue is a metadata label's value: plain text, or an ordered list of tag texts.
type MetaValue struct {
	Text string
	List []string
}

func (m MetaValue) IsList() bool { return m.List != nil }

func (m MetaValue) String() string {
	if m.IsList() {
		return strings.Join(m.List, ", ")
	}
	return m.Text
}

func (m MetaValue) MarshalJSON() ([]byte, error) {
	if m.IsList() {
		return json.Marshal(m.List)
	}
	return json.Marshal(m.Text)
}

func (m *MetaValue) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*m = MetaValue{List: list}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = MetaValue{Text: s}
	return nil
}

// Section is the transient harvest of one challenge detail page.
type Section struct {
	Title    string               `json:"title"`
	URL      string               `json:"url"`
	Meta     map[string]MetaValue `json:"metaTags"`
	Sections map[string]string    `json:"contentSections"`
	// Missing lists page elements that could not be located.
	Missing []string `json:"missing,omitempty"`
}
