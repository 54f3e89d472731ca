package parser

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"challenge-harvester/internal/models"
)

// Keys of the embedded page data, compared after normalizeKey.
var (
	embeddedMeta = map[string]string{
		"theme":    models.ColTheme,
		"type":     models.ColType,
		"category": models.ColCategory,
	}
	embeddedSections = map[string]string{
		"brief":                   models.ColBrief,
		"background":              models.ColBackground,
		"objectives":              models.ColObjectives,
		"potentialconsiderations": models.ColPotentialConsiderations,
	}
)

// applyEmbedded fills gaps in sec from the page's embedded JSON data. DOM values win.
func applyEmbedded(sec *models.Section, blob string) {
	var root any
	if err := json.Unmarshal([]byte(blob), &root); err != nil {
		return
	}
	node := findChallengeNode(root, sec.Title)
	if node == nil {
		return
	}

	for _, key := range sortedKeys(node) {
		raw := node[key]
		nk := normalizeKey(key)
		if label, ok := embeddedMeta[nk]; ok {
			if _, seen := sec.Meta[label]; !seen {
				if v, ok := metaFromJSON(raw); ok {
					sec.Meta[label] = v
				}
			}
			continue
		}
		if label, ok := embeddedSections[nk]; ok {
			if sec.Sections[label] != "" {
				continue
			}
			if text := textFromJSON(raw); text != "" {
				sec.Sections[label] = text
			}
		}
	}
	if sec.Title == "" {
		if t, ok := node["title"].(string); ok {
			sec.Title = cleanText(t)
		}
	}
}

// findChallengeNode picks the object that carries a title and at least one
// content section. Candidates are visited depth first in key order; the one
// whose title matches title wins, otherwise the first visited.
func findChallengeNode(v any, title string) map[string]any {
	var candidates []map[string]any
	collectChallengeNodes(v, &candidates)
	if len(candidates) == 0 {
		return nil
	}
	if want := cleanText(title); want != "" {
		for _, c := range candidates {
			if t, _ := c["title"].(string); strings.EqualFold(cleanText(t), want) {
				return c
			}
		}
	}
	return candidates[0]
}

func collectChallengeNodes(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if isChallengeNode(t) {
			*out = append(*out, t)
		}
		for _, key := range sortedKeys(t) {
			collectChallengeNodes(t[key], out)
		}
	case []any:
		for _, child := range t {
			collectChallengeNodes(child, out)
		}
	}
}

func isChallengeNode(m map[string]any) bool {
	if _, ok := m["title"].(string); !ok {
		return false
	}
	for key := range m {
		if _, ok := embeddedSections[normalizeKey(key)]; ok {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func metaFromJSON(v any) (models.MetaValue, bool) {
	switch t := v.(type) {
	case string:
		if s := cleanText(t); s != "" {
			return models.MetaValue{Text: s}, true
		}
	case map[string]any:
		if s := nameOf(t); s != "" {
			return models.MetaValue{Text: s}, true
		}
	case []any:
		list := []string{}
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if s := cleanText(it); s != "" {
					list = append(list, s)
				}
			case map[string]any:
				if s := nameOf(it); s != "" {
					list = append(list, s)
				}
			}
		}
		if len(list) > 0 {
			return models.MetaValue{List: list}, true
		}
	}
	return models.MetaValue{}, false
}

func nameOf(m map[string]any) string {
	for _, k := range []string{"name", "title", "label", "value"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return cleanText(s)
		}
	}
	return ""
}

// textFromJSON renders a section value; strings may carry rich-text HTML.
func textFromJSON(v any) string {
	switch t := v.(type) {
	case string:
		return htmlText(t)
	case []any:
		var lines []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				if txt := htmlText(s); txt != "" {
					lines = append(lines, "- "+txt)
				}
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func htmlText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	body := doc.Find("body")
	var lines []string
	body.Children().Each(func(i int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "ul", "ol":
			c.ChildrenFiltered("li").Each(func(j int, li *goquery.Selection) {
				if t := cleanText(li.Text()); t != "" {
					lines = append(lines, "- "+t)
				}
			})
		default:
			if t := cleanText(c.Text()); t != "" {
				lines = append(lines, t)
			}
		}
	})
	if len(lines) == 0 {
		return cleanText(body.Text())
	}
	return strings.Join(lines, "\n")
}

func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
