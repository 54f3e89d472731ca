
package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-harvester/internal/models"
)

const listingHTML = `<!doctype html><html><body>
<nav><a href="/about"><h2>About</h2></a></nav>
<div class="challenge-index_results__z_Zp5">
  <a href="/nasa-space-apps-2024/challenges/ocean-mapping/"><div><h2> Ocean   Mapping </h2></div></a>
  <a href="https://other.example.org/moon"><h2>Moon Dust</h2></a>
  <a href="/no-heading/"><span>broken card</span></a>
</div>
</body></html>`

const detailHTML = `<!doctype html><html lang="en"><head><title>x</title></head><body>
<h1>Ocean Mapping</h1>
<ul class="challenge-meta_list__a1">
  <li><h4>Difficulty</h4><span>Advanced</span></li>
  <li><h4>Subjects</h4><div><a class="challenge-tag__q">Earth Science</a><a class="challenge-tag__q">Oceans</a><a class="challenge-tag__q">Software</a></div></li>
  <li><h4>Notes:</h4><span> </span><p>second span wins</p></li>
  <li><span>no label at all</span></li>
</ul>
<div class="challenge-content_body__b2">
  <p>Summary paragraph one.</p>
  <p>Summary   paragraph two.</p>
  <h2>Background</h2>
  <p>The sea floor is unmapped.</p>
  <h2>Objectives</h2>
  <ul><li>Build a viewer</li><li> Compare datasets </li></ul>
  <h2>Resources</h2>
  <p>Not wanted.</p>
  <section><h2>Potential Considerations</h2><p>Use open data.</p></section>
</div>
<script>var ignored = "Background";</script>
</body></html>`

func TestParseListing(t *testing.T) {
	p := New()
	entries, err := p.ParseListing(strings.NewReader(listingHTML), "text/html; charset=utf-8",
		"https://www.spaceappschallenge.org/nasa-space-apps-2024/challenges/")
	require.NoError(t, err)
	assert.Equal(t, []models.ListingEntry{
		{Title: "Ocean Mapping", URL: "https://www.spaceappschallenge.org/nasa-space-apps-2024/challenges/ocean-mapping/"},
		{Title: "Moon Dust", URL: "https://other.example.org/moon"},
	}, entries)
}

func TestParseListingMissingContainer(t *testing.T) {
	_, err := New().ParseListing(strings.NewReader("<html><body><a href='/x'><h2>x</h2></a></body></html>"), "text/html", "https://example.org/")
	assert.ErrorIs(t, err, ErrElementMissing)
}

func TestParseDetail(t *testing.T) {
	p := New()
	sec, err := p.ParseDetail(strings.NewReader(detailHTML), "text/html; charset=utf-8", "https://example.org/c/ocean")
	require.NoError(t, err)

	assert.Equal(t, "Ocean Mapping", sec.Title)
	assert.Equal(t, "https://example.org/c/ocean", sec.URL)
	assert.Empty(t, sec.Missing)

	subjects := sec.Meta["Subjects"]
	require.True(t, subjects.IsList())
	assert.Equal(t, []string{"Earth Science", "Oceans", "Software"}, subjects.List)
	assert.Equal(t, models.MetaValue{Text: "Advanced"}, sec.Meta["Difficulty"])
	assert.Equal(t, "second span wins", sec.Meta["Notes"].Text)
	assert.Len(t, sec.Meta, 3)

	assert.Equal(t, "Summary paragraph one.\nSummary paragraph two.", sec.Sections["Brief"])
	assert.Equal(t, "The sea floor is unmapped.", sec.Sections["Background"])
	assert.Equal(t, "- Build a viewer\n- Compare datasets", sec.Sections["Objectives"])
	assert.Equal(t, "Use open data.", sec.Sections["Potential Considerations"])
	assert.NotContains(t, sec.Sections, "Resources")
}

func TestParseDetailToleratesMissingElements(t *testing.T) {
	sec, err := New().ParseDetail(strings.NewReader("<html><body><p>nothing here</p></body></html>"), "text/html", "https://example.org/c/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "metadata", "content"}, sec.Missing)
	assert.Empty(t, sec.Sections)
	assert.Empty(t, sec.Meta)
}

const embeddedHTML = `<!doctype html><html><body>
<h1>Moon Dust</h1>
<div class="challenge-content_body__b2"><h2>Background</h2><p>From the DOM.</p></div>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"challenge":{
  "title":"Moon Dust",
  "theme":{"name":"Exploration"},
  "type":"Advanced",
  "category":[{"name":"Space"},"Moon"],
  "background":"From the blob.",
  "objectives":"<p>Measure dust.</p><ul><li>Model it</li></ul>",
  "potentialConsiderations":["Safety","Cost"]
}}}}</script>
</body></html>`

func TestParseDetailEmbeddedFallback(t *testing.T) {
	sec, err := New().ParseDetail(strings.NewReader(embeddedHTML), "text/html", "https://example.org/c/moon")
	require.NoError(t, err)

	assert.Equal(t, "From the DOM.", sec.Sections["Background"])
	assert.Equal(t, "Measure dust.\n- Model it", sec.Sections["Objectives"])
	assert.Equal(t, "- Safety\n- Cost", sec.Sections["Potential Considerations"])
	assert.Equal(t, "Exploration", sec.Meta["Theme"].String())
	assert.Equal(t, "Advanced", sec.Meta["Type"].Text)
	assert.Equal(t, []string{"Space", "Moon"}, sec.Meta["Category"].List)
}

func TestParseDetailBadEmbeddedData(t *testing.T) {
	html := strings.Replace(embeddedHTML, `{"props"`, `{not json`, 1)
	sec, err := New().ParseDetail(strings.NewReader(html), "text/html", "")
	require.NoError(t, err)
	assert.Equal(t, "From the DOM.", sec.Sections["Background"])
	assert.NotContains(t, sec.Meta, "Theme")
}

const relatedHTML = `<!doctype html><html><body>
<h1>Ocean Mapping</h1>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{
  "adjacent":{"title":"Moon Dust","theme":"Exploration","background":"Wrong challenge."},
  "challenge":{"title":"Ocean  Mapping","theme":"Earth","background":"Right challenge."}
}}}</script>
</body></html>`

func TestParseDetailEmbeddedPicksMatchingTitle(t *testing.T) {
	// Repeated because map order varies between runs.
	for i := 0; i < 50; i++ {
		sec, err := New().ParseDetail(strings.NewReader(relatedHTML), "text/html", "")
		require.NoError(t, err)
		assert.Equal(t, "Ocean Mapping", sec.Title)
		assert.Equal(t, "Right challenge.", sec.Sections["Background"])
		assert.Equal(t, "Earth", sec.Meta["Theme"].Text)
	}
}

func TestParseDetailEmbeddedWithoutTitleIsStable(t *testing.T) {
	html := strings.Replace(relatedHTML, "<h1>Ocean Mapping</h1>", "", 1)
	for i := 0; i < 50; i++ {
		sec, err := New().ParseDetail(strings.NewReader(html), "text/html", "")
		require.NoError(t, err)
		assert.Equal(t, "Moon Dust", sec.Title)
		assert.Equal(t, "Wrong challenge.", sec.Sections["Background"])
	}
}

func TestParseDetailRepeatedHeadingsAccumulate(t *testing.T) {
	html := `<html><body><h1>Ocean Mapping</h1>
<div class="challenge-content_body__b2">
  <h2>Objectives</h2><p>Build a viewer.</p>
  <h2>Resources</h2><p>Not wanted.</p>
  <h3>OBJECTIVES:</h3><ul><li>Compare datasets</li></ul>
</div></body></html>`
	for i := 0; i < 20; i++ {
		sec, err := New().ParseDetail(strings.NewReader(html), "text/html", "")
		require.NoError(t, err)
		assert.Equal(t, "Build a viewer.\n- Compare datasets", sec.Sections["Objectives"])
	}
}

func TestParseDetailSplitsUnheadedWrappers(t *testing.T) {
	html := `<html><body><h1>Ocean Mapping</h1>
<div class="challenge-content_body__b2">
  <div class="rich-text">
    Intro with <strong>bold</strong> words.
    <ul><li>First goal</li><li>Second goal</li></ul>
    <p>Closing line.<br>After the break.</p>
  </div>
  <div><h2>Background</h2><div><p>One.</p><p>Two.</p></div></div>
</div></body></html>`
	sec, err := New().ParseDetail(strings.NewReader(html), "text/html", "")
	require.NoError(t, err)
	assert.Equal(t, "Intro with bold words.\n- First goal\n- Second goal\nClosing line.\nAfter the break.", sec.Sections["Brief"])
	assert.Equal(t, "One.\nTwo.", sec.Sections["Background"])
}
