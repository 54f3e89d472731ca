package extractor

import (
	"regexp"
	"strings"

	"challenge-harvester/internal/models"
)

// A label line may be indented or bolded ("**Skills:**"); the value runs until the
// next line opening with a capitalized word and a colon.
const labelDecor = `[ \t]*(?:\*\*)?`

var (
	boundaryRe = regexp.MustCompile(`\n` + labelDecor + `[A-Z][a-z]+(?:\*\*)?:`)
	labelRes   = map[string]*regexp.Regexp{}
)

func init() {
	for _, col := range models.TagColumns {
		labelRes[col] = regexp.MustCompile(`(?m)^` + labelDecor + regexp.QuoteMeta(col) + `(?:\*\*)?:(?:\*\*)?[ \t]*`)
	}
}

// ParseResponse reads the seven output labels out of free text.
// A label that is missing yields "" for that field; it is never an error.
func ParseResponse(text string) models.Tags {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return models.Tags{
		Title:     extract(text, models.ColTitle),
		Summary:   extract(text, models.ColSummary),
		Fields:    extract(text, models.ColFields),
		Skills:    extract(text, models.ColSkills),
		Workshops: extract(text, models.ColWorkshops),
		Mentors:   extract(text, models.ColMentors),
		Category:  extract(text, models.ColCategory),
	}
}

func extract(text, label string) string {
	loc := labelRes[label].FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	if end := boundaryRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	rest = strings.TrimSpace(rest)
	return strings.TrimSpace(strings.TrimSuffix(rest, "```"))
}
