package merger

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/models"
)

func fixed(out string, err error) (llm.Generator, *int) {
	calls := 0
	return llm.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return out, err
	}), &calls
}

func TestMergeNilOldSkipsGeneration(t *testing.T) {
	gen, calls := fixed(`{"Title":"other"}`, nil)
	newRec := models.Challenge{Title: "Ocean", Summary: "s"}
	got := New(gen, zerolog.Nop()).Merge(context.Background(), nil, newRec)
	assert.Equal(t, newRec, got)
	assert.Zero(t, *calls)
}

func TestMergeUndecodableFallsBack(t *testing.T) {
	old := models.Challenge{Title: "Ocean", Summary: "old"}
	newRec := models.Challenge{Title: "ocean", Summary: "new"}
	for _, out := range []string{"Title: Ocean\nSummary: test", "{broken", "{}", `{"Title": "  "}`} {
		gen, _ := fixed(out, nil)
		got := New(gen, zerolog.Nop()).Merge(context.Background(), &old, newRec)
		assert.Equal(t, newRec, got, "response %q", out)
	}
}

func TestMergeTransportFailureFallsBack(t *testing.T) {
	gen, calls := fixed("", errors.New("quota exceeded"))
	old := models.Challenge{Title: "Ocean"}
	newRec := models.Challenge{Title: "Ocean", Brief: "b"}
	m := New(gen, zerolog.Nop())

	assert.Equal(t, newRec, m.Merge(context.Background(), &old, newRec))
	assert.Equal(t, 1, *calls)

	_, err := m.TryMerge(context.Background(), old, newRec)
	assert.Error(t, err)
}

func TestMergeDecodesAfterProse(t *testing.T) {
	out := "Here is the merged entry:\n```json\n" +
		`{"Title":"Ocean Mapping","Brief":"Longer brief.","Skills":["Python","GDAL"],"Summary":"merged","Difficulty":3,"Unknown":"x"}` +
		"\n```\nHope this helps!"
	gen, calls := fixed(out, nil)
	old := models.Challenge{Title: "Ocean Mapping", Brief: "Short."}
	newRec := models.Challenge{Title: "ocean mapping", Summary: "new"}

	got := New(gen, zerolog.Nop()).Merge(context.Background(), &old, newRec)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, models.Challenge{
		Title:      "Ocean Mapping",
		Brief:      "Longer brief.",
		Skills:     "Python, GDAL",
		Summary:    "merged",
		Difficulty: "3",
	}, got)
}

func TestMergeKeepsIdentityWhenTitleDrifts(t *testing.T) {
	gen, _ := fixed(`{"Title":"Ocean Mapping Challenge 2024","Summary":"merged"}`, nil)
	old := models.Challenge{Title: "Ocean Mapping"}
	newRec := models.Challenge{Title: "ocean mapping"}

	got := New(gen, zerolog.Nop()).Merge(context.Background(), &old, newRec)
	assert.Equal(t, "ocean mapping", got.Title)
	assert.Equal(t, "merged", got.Summary)
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt(nil, models.Challenge{Title: "Ocean", PotentialConsiderations: "pc"})
	require.NoError(t, err)
	assert.Contains(t, p, "Old:\nNone")
	assert.Contains(t, p, `"Potential Considerations": "pc"`)
	assert.Contains(t, p, `"Summary": ""`)
}

func TestDecodeResponseError(t *testing.T) {
	_, err := DecodeResponse("no json here")
	assert.ErrorIs(t, err, ErrMergeDecode)
}
