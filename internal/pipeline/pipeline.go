// Package pipeline drives records through extraction, conflict merge and
// commit, one record at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/extractor"
	"challenge-harvester/internal/ioformats"
	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/models"
	"challenge-harvester/internal/normalize"
)

type State string

const (
	StateNew            State = "NEW"
	StateSkipped        State = "SKIPPED"
	StateConflict       State = "CONFLICT"
	StateMergeAttempted State = "MERGE_ATTEMPTED"
	StateMerged         State = "MERGED"
	StateMergeFailed    State = "MERGE_FAILED"
	StateFallbackNew    State = "FALLBACK_NEW"
	StateInserted       State = "INSERTED"
	StateReplaced       State = "REPLACED"
	StateAborted        State = "ABORTED"
)

// Stages named in whole-batch failures.
const (
	StageSchema = "schema"
	StageInput  = "input"
	StageScrape = "scrape"
)

// StageError reports a whole-batch precondition failure, raised before any
// generation call is spent.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// RecordResult is the outcome of one record.
type RecordResult struct {
	Title   string
	State   State
	Trail   []State
	Outcome extractor.Outcome
	// Err is set for skipped records and generation failures.
	Err    error
	Record models.Challenge
}

func (r RecordResult) Committed() bool {
	return r.State == StateInserted || r.State == StateReplaced
}

// Merger reconciles a conflicting pair; implemented by *merger.Merger.
type Merger interface {
	TryMerge(ctx context.Context, old, incoming models.Challenge) (models.Challenge, error)
}

type Pipeline struct {
	extractor *extractor.Extractor
	merger    Merger
	log       zerolog.Logger
}

type Option func(*Pipeline)

// WithMerger enables smart merge on key collisions. Without one the incoming
// record replaces the old row as is.
func WithMerger(m Merger) Option {
	return func(p *Pipeline) { p.merger = m }
}

func New(gen llm.Generator, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extractor.New(gen, log),
		log:       log,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit extracts, reconciles and commits one record. A record is committed
// whole or not at all; cancellation before the commit leaves ds untouched.
func (p *Pipeline) Submit(ctx context.Context, ds *dataset.Dataset, rec models.Challenge) RecordResult {
	res := RecordResult{Title: rec.Title, State: StateNew, Trail: []State{StateNew}}
	step := func(s State) {
		res.State = s
		res.Trail = append(res.Trail, s)
	}
	log := p.log.With().Str("dataset", ds.Name).Str("title", rec.Title).Logger()

	if err := ctx.Err(); err != nil {
		step(StateAborted)
		res.Err = err
		return res
	}

	ext := p.extractor.Extract(ctx, rec)
	res.Outcome = ext.Outcome
	res.Err = ext.Err
	if ext.Outcome == extractor.OutcomeSkipped {
		step(StateSkipped)
		log.Warn().Msg("skipped: missing mandatory title")
		return res
	}

	final := rec.WithTags(ext.Tags)
	final.Title = rec.Title

	if old, found := ds.Find(final.Key()); found {
		step(StateConflict)
		if p.merger != nil {
			step(StateMergeAttempted)
			merged, err := p.merger.TryMerge(ctx, old, final)
			if err != nil {
				step(StateMergeFailed)
				step(StateFallbackNew)
				log.Warn().Err(err).Msg("smart merge failed, keeping new record")
			} else {
				step(StateMerged)
				final = merged
			}
		}
	}

	if err := ctx.Err(); err != nil {
		step(StateAborted)
		res.Err = err
		log.Info().Msg("aborted before commit")
		return res
	}

	if ds.Upsert(final) {
		step(StateReplaced)
	} else {
		step(StateInserted)
	}
	res.Record = final
	log.Debug().Str("state", string(res.State)).Str("outcome", string(res.Outcome)).Msg("record committed")
	return res
}

// ProgressFunc is told after each record how many of total are done.
type ProgressFunc func(done, total int)

type Report struct {
	RunID            string
	Dataset          string
	Total            int
	Inserted         int
	Replaced         int
	Skipped          int
	GenerationFailed int
	Merged           int
	MergeFailed      int
	Aborted          bool
	Elapsed          time.Duration
	Results          []RecordResult
}

// Run submits records in input order. It stops between records when ctx is
// cancelled; rows committed so far stay committed.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset, records []models.Challenge, progress ProgressFunc) (Report, error) {
	start := time.Now()
	rep := Report{RunID: uuid.NewString(), Dataset: ds.Name, Total: len(records)}
	log := p.log.With().Str("run_id", rep.RunID).Str("dataset", ds.Name).Logger()
	log.Info().Int("records", len(records)).Msg("batch started")

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			rep.Aborted = true
			break
		}
		r := p.Submit(ctx, ds, rec)
		rep.add(r)
		if r.State == StateAborted {
			rep.Aborted = true
			break
		}
		if progress != nil {
			progress(i+1, len(records))
		}
	}

	rep.Elapsed = time.Since(start)
	ev := log.Info()
	if rep.Aborted {
		ev = log.Warn()
	}
	ev.Int("inserted", rep.Inserted).
		Int("replaced", rep.Replaced).
		Int("skipped", rep.Skipped).
		Int("generation_failed", rep.GenerationFailed).
		Int("merged", rep.Merged).
		Int("merge_failed", rep.MergeFailed).
		Bool("aborted", rep.Aborted).
		Dur("elapsed", rep.Elapsed).
		Msg("batch finished")

	if rep.Aborted {
		return rep, fmt.Errorf("batch aborted after %d of %d records: %w", len(rep.Results), rep.Total, context.Cause(ctx))
	}
	return rep, nil
}

func (r *Report) add(res RecordResult) {
	r.Results = append(r.Results, res)
	switch res.State {
	case StateInserted:
		r.Inserted++
	case StateReplaced:
		r.Replaced++
	case StateSkipped:
		r.Skipped++
	}
	if res.Outcome == extractor.OutcomeGenerationFailed {
		r.GenerationFailed++
	}
	for _, s := range res.Trail {
		switch s {
		case StateMerged:
			r.Merged++
		case StateMergeFailed:
			r.MergeFailed++
		}
	}
}

// Failures lists the records whose generation failed, for the operator.
func (r Report) Failures() []RecordResult {
	var out []RecordResult
	for _, res := range r.Results {
		if errors.Is(res.Err, extractor.ErrGeneration) {
			out = append(out, res)
		}
	}
	return out
}

// RecordsFromTable checks the sheet's schema and normalizes its rows.
// A missing Title column fails the whole batch before any generation call.
func RecordsFromTable(t ioformats.Table) ([]models.Challenge, error) {
	if err := t.Require(models.ColTitle); err != nil {
		return nil, &StageError{Stage: StageSchema, Err: err}
	}
	recs := make([]models.Challenge, 0, len(t.Rows))
	for _, row := range t.Rows {
		recs = append(recs, normalize.FromRow(row))
	}
	if len(recs) == 0 {
		return nil, &StageError{Stage: StageInput, Err: fmt.Errorf("sheet %q has no rows", t.Name)}
	}
	return recs, nil
}

// AddManual validates an operator entry and submits it.
func (p *Pipeline) AddManual(ctx context.Context, ds *dataset.Dataset, title, brief string) (RecordResult, error) {
	rec, err := normalize.FromManual(title, brief)
	if err != nil {
		return RecordResult{}, &StageError{Stage: StageInput, Err: err}
	}
	return p.Submit(ctx, ds, rec), nil
}
