package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-harvester/internal/models"
)

func TestFromSection(t *testing.T) {
	sec := models.Section{
		Title: "  Ocean Mapping ",
		URL:   "https://example.org/c/ocean",
		Meta: map[string]models.MetaValue{
			"Subjects":   {List: []string{"Earth Science", "Oceans"}},
			"Difficulty": {Text: "Advanced"},
			"Category":   {Text: "ignored"},
		},
		Sections: map[string]string{
			"Brief":                    "Map it.",
			"Potential Considerations": "Open data.",
		},
	}
	rec := FromSection(sec, "unused")
	assert.Equal(t, models.Challenge{
		Title:                   "Ocean Mapping",
		URL:                     "https://example.org/c/ocean",
		Brief:                   "Map it.",
		PotentialConsiderations: "Open data.",
		Subjects:                "Earth Science, Oceans",
		Difficulty:              "Advanced",
	}, rec)
	assert.Equal(t, "ocean mapping", rec.Key())
}

func TestFromSectionFallbackTitle(t *testing.T) {
	rec := FromSection(models.Section{}, " Listing Title ")
	assert.Equal(t, "Listing Title", rec.Title)
}

func TestFromRowExactNames(t *testing.T) {
	rec := FromRow(map[string]string{
		"Title":   " Moon Dust ",
		"Brief":   "Dust.",
		"brief":   "wrong case, dropped",
		"Summary": "kept",
		"Extra":   "dropped",
	})
	assert.Equal(t, models.Challenge{Title: "Moon Dust", Brief: "Dust.", Summary: "kept"}, rec)
}

func TestFromManual(t *testing.T) {
	rec, err := FromManual(" Ocean ", " brief ")
	require.NoError(t, err)
	assert.Equal(t, models.Challenge{Title: "Ocean", Brief: "brief"}, rec)

	_, err = FromManual("Ocean", "  ")
	assert.ErrorIs(t, err, ErrManualInput)
	_, err = FromManual("", "brief")
	assert.ErrorIs(t, err, ErrManualInput)
}
