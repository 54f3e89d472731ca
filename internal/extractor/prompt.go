package extractor

import (
	"strings"

	"challenge-harvester/internal/models"
)

// promptColumns is the ordered allow-list of record fields embedded in a request.
var promptColumns = []string{
	models.ColTitle,
	models.ColBrief,
	models.ColObjectives,
	models.ColSubjects,
	models.ColPotentialConsiderations,
	models.ColBackground,
	models.ColDifficulty,
}

// FieldTaxonomy is the fixed set of selectable "Fields" values.
var FieldTaxonomy = []string{
	"GIS / Remote Sensing",
	"AI / Machine Learning",
	"3D Modeling / Animation",
	"Software Engineering",
	"Augmented & Virtual Reality (AR/VR)",
	"Storytelling / Video Editing",
	"Data Science / Data Analysis",
	"Mobile App Development",
	"Web Development",
	"Artificial Intelligence (AI)",
	"Game Development",
	"UI & UX Design",
}

const promptHeader = `You will be given a NASA Space Apps hackathon challenge description with some or all of the following sections.

Extract and fill the following structured fields based on the information:

1. Challenge Title: The full challenge title as it appears
2. Challenge Summary: 2-3 lines summarizing the challenge with the core problem and context
3. Relevant Fields: Choose from:
`

const promptItems = `4. Required Technical Skills (e.g., Python, Unity, TensorFlow, Blender)
5. Potential Workshop/Session Topics (relevant training or crash courses)
6. Recommended Mentor Specializations
7. Overall Category (e.g., Earth, Space, Health, Humans, Climate, Oceans, etc.)
`

const promptTemplate = `Respond ONLY in the following format:

Title: ...
Summary: ...
Fields: ...
Skills: ...
Workshops: ...
Mentors: ...
Category: ...`

// BuildRequest composes the generation prompt for rec.
// It reports false when the title is blank, in which case no call must be made.
func BuildRequest(rec models.Challenge) (string, bool) {
	if strings.TrimSpace(rec.Title) == "" {
		return "", false
	}

	var parts []string
	for _, col := range promptColumns {
		if v := strings.TrimSpace(rec.Get(col)); v != "" {
			parts = append(parts, col+":\n"+v)
		}
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	for _, f := range FieldTaxonomy {
		b.WriteString("   - ")
		b.WriteString(f)
		b.WriteByte('\n')
	}
	b.WriteString(promptItems)
	b.WriteString("\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(promptTemplate)
	return b.String(), true
}
