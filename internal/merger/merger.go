// Package merger reconciles two records that share a key into one, using a
// generation call. Merging is best effort: any failure yields the new record.
package merger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/models"
	"challenge-harvester/internal/normalize"
)

// ErrMergeDecode marks a merge response that held no usable JSON object.
var ErrMergeDecode = errors.New("merge response not decodable")

const promptFormat = `
You are a data cleaner. Given old data and new data of a challenge, merge them into a clean single entry.
If old data is None, just return the new data.
Use the most complete and accurate information.

Old:
%s

New:
%s

Return the merged result as a valid JSON object.
`

type Merger struct {
	gen llm.Generator
	log zerolog.Logger
}

func New(gen llm.Generator, log zerolog.Logger) *Merger {
	return &Merger{gen: gen, log: log}
}

// Merge combines old and incoming. A nil old returns incoming without a generation call.
func (m *Merger) Merge(ctx context.Context, old *models.Challenge, incoming models.Challenge) models.Challenge {
	if old == nil {
		return incoming
	}
	merged, err := m.TryMerge(ctx, *old, incoming)
	if err != nil {
		m.log.Warn().Err(err).Str("title", incoming.Title).Msg("smart merge failed, keeping new record")
		return incoming
	}
	return merged
}

// TryMerge is Merge with the failure reported instead of swallowed.
func (m *Merger) TryMerge(ctx context.Context, old, incoming models.Challenge) (models.Challenge, error) {
	prompt, err := BuildPrompt(&old, incoming)
	if err != nil {
		return incoming, err
	}
	text, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return incoming, fmt.Errorf("merge generation: %w", err)
	}
	merged, err := DecodeResponse(text)
	if err != nil {
		return incoming, err
	}
	// The merged row takes the incoming record's slot, so it keeps that key.
	if merged.Key() != incoming.Key() {
		merged.Title = incoming.Title
	}
	return merged, nil
}

func BuildPrompt(old *models.Challenge, incoming models.Challenge) (string, error) {
	oldJSON := "None"
	if old != nil {
		b, err := json.MarshalIndent(old, "", "  ")
		if err != nil {
			return "", err
		}
		oldJSON = string(b)
	}
	newJSON, err := json.MarshalIndent(incoming, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(promptFormat, oldJSON, newJSON), nil
}

// DecodeResponse decodes the first JSON object in text, skipping any prose
// before it. Non-string values are flattened to text.
func DecodeResponse(text string) (models.Challenge, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return models.Challenge{}, fmt.Errorf("%w: no object found", ErrMergeDecode)
	}
	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err != nil {
		return models.Challenge{}, fmt.Errorf("%w: %v", ErrMergeDecode, err)
	}

	row := make(map[string]string, len(obj))
	for k, v := range obj {
		row[k] = flatten(v)
	}
	rec := normalize.FromRow(row)
	if rec.Title == "" {
		return models.Challenge{}, fmt.Errorf("%w: merged object has no title", ErrMergeDecode)
	}
	return rec, nil
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
