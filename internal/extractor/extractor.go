// Package extractor turns a canonical challenge record into its AI-derived
// tag-set through one text-generation round trip.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/models"
)

var (
	// ErrMissingTitle marks a record that was skipped before any generation call.
	ErrMissingTitle = errors.New("missing mandatory title")
	// ErrGeneration wraps a failure of the text-generation service.
	ErrGeneration = errors.New("generation failed")
)

type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// Result of one extraction. Tags is always fully populated, with "" for
// anything the generator did not provide.
type Result struct {
	Tags    models.Tags
	Raw     string
	Outcome Outcome
	Err     error
}

type Extractor struct {
	gen llm.Generator
	log zerolog.Logger
}

func New(gen llm.Generator, log zerolog.Logger) *Extractor {
	return &Extractor{gen: gen, log: log}
}

func (e *Extractor) Extract(ctx context.Context, rec models.Challenge) Result {
	prompt, ok := BuildRequest(rec)
	if !ok {
		return Result{Outcome: OutcomeSkipped, Err: ErrMissingTitle}
	}

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("title", rec.Title).Msg("generation failed")
		raw := "Error: " + err.Error()
		return Result{
			// The error marker is not a tag response; nothing is parsed out of it.
			Tags:    models.Tags{},
			Raw:     raw,
			Outcome: OutcomeGenerationFailed,
			Err:     fmt.Errorf("%w: %w", ErrGeneration, err),
		}
	}

	tags := ParseResponse(text)
	if tags.Empty() {
		e.log.Debug().Str("title", rec.Title).Msg("no labels found in generation response")
	}
	return Result{Tags: tags, Raw: text, Outcome: OutcomeOK}
}
