
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"challenge-harvester/internal/models"
)

// ErrElementMissing is reported when an expected page element is absent.
var ErrElementMissing = errors.New("page element missing")

// Wanted sections kept from a detail page.
var WantedSections = []string{
	models.ColBrief,
	models.ColBackground,
	models.ColObjectives,
	models.ColPotentialConsiderations,
}

// Selectors locate the parts of the challenge pages. The site is built with
// CSS modules, so classes are matched by their stable prefix.
type Selectors struct {
	Results      string
	ListTitle    string
	Title        string
	MetaBlock    string
	MetaLabel    string
	MetaTag      string
	MetaText     string
	Content      string
	EmbeddedData string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Results:      `div[class*="challenge-index_results"]`,
		ListTitle:    "h2",
		Title:        "h1",
		MetaBlock:    `ul[class*="challenge-meta"] > li, dl[class*="challenge-meta"] > div`,
		MetaLabel:    `h3, h4, h5, dt, [class*="label"]`,
		MetaTag:      `[class*="tag"]`,
		MetaText:     "span, p, dd",
		Content:      `[class*="challenge-content"], [class*="challenge-detail_content"], article`,
		EmbeddedData: "script#__NEXT_DATA__",
	}
}

type Parser struct {
	sel Selectors
}

func New() *Parser { return &Parser{sel: DefaultSelectors()} }

var whitespaceRe = regexp.MustCompile(`\s+`)

func (p *Parser) document(r io.Reader, contentType string) (*goquery.Document, error) {
	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
}

// ParseListing reads the challenge links off the listing page. Anchors without a
// heading are skipped; only a missing results container is an error.
func (p *Parser) ParseListing(r io.Reader, contentType, pageURL string) ([]models.ListingEntry, error) {
	doc, err := p.document(r, contentType)
	if err != nil {
		return nil, err
	}

	container := doc.Find(p.sel.Results).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("results container %q: %w", p.sel.Results, ErrElementMissing)
	}

	base, _ := url.Parse(pageURL)
	var out []models.ListingEntry
	container.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		title := cleanText(a.Find(p.sel.ListTitle).First().Text())
		if title == "" {
			return
		}
		href, _ := a.Attr("href")
		out = append(out, models.ListingEntry{Title: title, URL: resolve(base, href)})
	})
	return out, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ParseDetail harvests one challenge detail page. Missing elements are recorded
// in Section.Missing and never abort the harvest.
func (p *Parser) ParseDetail(r io.Reader, contentType, pageURL string) (models.Section, error) {
	doc, err := p.document(r, contentType)
	if err != nil {
		return models.Section{}, err
	}
	// Read the embedded blob before stripping scripts.
	blob := doc.Find(p.sel.EmbeddedData).First().Text()

	doc.Find("script,noscript,style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	sec := models.Section{
		URL:      pageURL,
		Meta:     map[string]models.MetaValue{},
		Sections: map[string]string{},
	}

	sec.Title = cleanText(doc.Find(p.sel.Title).First().Text())
	if sec.Title == "" {
		sec.Missing = append(sec.Missing, "title")
	}

	blocks := doc.Find(p.sel.MetaBlock)
	if blocks.Length() == 0 {
		sec.Missing = append(sec.Missing, "metadata")
	}
	blocks.Each(func(i int, b *goquery.Selection) {
		label, val, ok := p.metaBlock(b)
		if ok {
			sec.Meta[label] = val
		}
	})

	content := doc.Find(p.sel.Content).First()
	if content.Length() == 0 {
		sec.Missing = append(sec.Missing, "content")
	} else {
		// Headings that fold to the same label accumulate in page order.
		for _, pt := range walkContent(content) {
			wanted := wantedLabel(pt.label)
			if wanted == "" {
				continue
			}
			if prev := sec.Sections[wanted]; prev != "" {
				sec.Sections[wanted] = prev + "\n" + pt.text
			} else {
				sec.Sections[wanted] = pt.text
			}
		}
	}

	if blob != "" {
		applyEmbedded(&sec, blob)
	}
	return sec, nil
}

func (p *Parser) metaBlock(b *goquery.Selection) (string, models.MetaValue, bool) {
	labelSel := b.Find(p.sel.MetaLabel).First()
	label := strings.TrimSuffix(cleanText(labelSel.Text()), ":")
	if label == "" {
		return "", models.MetaValue{}, false
	}

	tags := b.Find(p.sel.MetaTag)
	if tags.Length() > 0 {
		list := make([]string, 0, tags.Length())
		tags.Each(func(i int, t *goquery.Selection) {
			if txt := cleanText(t.Text()); txt != "" {
				list = append(list, txt)
			}
		})
		return label, models.MetaValue{List: list}, true
	}

	var text string
	spans := b.Find(p.sel.MetaText).NotSelection(labelSel).NotSelection(labelSel.Find("*"))
	spans.EachWithBreak(func(i int, s *goquery.Selection) bool {
		text = cleanText(s.Text())
		return text == ""
	})
	return label, models.MetaValue{Text: text}, true
}

const (
	headingSel = "h1,h2,h3,h4,h5,h6"
	blockSel   = headingSel + ",p,div,section,article,header,footer,main,aside,figure,blockquote,pre,table,ul,ol,dl,br"
)

// part is one paragraph of content filed under the heading above it.
type part struct {
	label string
	text  string
}

// walkContent visits the container in document order, filing each paragraph
// under the most recent heading. Text before any heading is the brief.
func walkContent(content *goquery.Selection) []part {
	w := &contentWalker{current: models.ColBrief}
	w.walk(content)
	w.flush()
	return w.parts
}

type contentWalker struct {
	current string
	inline  []string
	parts   []part
}

func (w *contentWalker) emit(text string) {
	if text = cleanText(text); text != "" {
		w.parts = append(w.parts, part{label: w.current, text: text})
	}
}

// flush closes the paragraph built from loose text and inline elements.
func (w *contentWalker) flush() {
	if len(w.inline) == 0 {
		return
	}
	text := strings.Join(w.inline, "")
	w.inline = w.inline[:0]
	w.emit(text)
}

func (w *contentWalker) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(i int, s *goquery.Selection) {
		switch name := goquery.NodeName(s); name {
		case "#text":
			w.inline = append(w.inline, s.Text())
		case "#comment":
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.flush()
			w.current = cleanText(s.Text())
		case "ul", "ol":
			w.flush()
			s.ChildrenFiltered("li").Each(func(j int, li *goquery.Selection) {
				if t := cleanText(li.Text()); t != "" {
					w.parts = append(w.parts, part{label: w.current, text: "- " + t})
				}
			})
		case "br":
			w.flush()
		case "table", "pre":
			w.flush()
			w.emit(s.Text())
		default:
			if s.Find(blockSel).Length() > 0 {
				// Wrappers are split at their block children.
				w.flush()
				w.walk(s)
				w.flush()
				return
			}
			if s.Is(blockSel) {
				w.flush()
				w.emit(s.Text())
				return
			}
			w.inline = append(w.inline, s.Text())
		}
	})
}

func wantedLabel(label string) string {
	label = strings.TrimSuffix(strings.TrimSpace(label), ":")
	for _, w := range WantedSections {
		if strings.EqualFold(label, w) {
			return w
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
