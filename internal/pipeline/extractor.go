package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/caselift/internal/crawler"
	"github.com/nao1215/caselift/internal/model"
	"github.com/nao1215/caselift/internal/recovery"
)

// Extractor turns a single case link into a record.
type Extractor struct {
	pipeline *Pipeline
}

// ExtractorConfig holds the collaborators of an Extractor.
type ExtractorConfig struct {
	// Fetcher downloads pages.
	Fetcher PageFetcher

	// Inferer calls the model.
	Inferer Inferer

	// Artifacts receives bad JSON answers. Optional.
	Artifacts *Artifacts

	// MaxPageChars bounds the page text. Zero means crawler.DefaultMaxPageChars.
	MaxPageChars int

	// Ladder overrides the recovery ladder. Optional.
	Ladder recovery.Ladder

	// OnStrategy observes the recovery outcome of every decoded answer. Optional.
	OnStrategy func(strategy string)

	// Logger is used by the pipeline and its steps. Optional.
	Logger *slog.Logger
}

// NewExtractor builds the standard fetch, text, infer, decode and validate pipeline.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := cfg.MaxPageChars
	if maxChars == 0 {
		maxChars = crawler.DefaultMaxPageChars
	}

	decodeOpts := []DecodeStepOption{
		WithDecodeLogger(logger),
		WithStrategyHook(cfg.OnStrategy),
	}
	if len(cfg.Ladder) > 0 {
		decodeOpts = append(decodeOpts, WithLadder(cfg.Ladder))
	}

	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchStep(cfg.Fetcher),
		NewTextStep(maxChars),
		NewInferStep(cfg.Inferer),
		NewDecodeStep(cfg.Artifacts, decodeOpts...),
		NewValidateStep(),
	)
	return &Extractor{pipeline: p}
}

// Extract runs the pipeline on job.
func (e *Extractor) Extract(ctx context.Context, job *Job) error {
	return e.pipeline.Execute(ctx, job)
}

// ExtractCase fetches link and returns its case record.
func (e *Extractor) ExtractCase(ctx context.Context, link string) (model.CaseRecord, error) {
	job := NewJob(1, link)
	if err := e.Extract(ctx, job); err != nil {
		return model.CaseRecord{}, err
	}
	return job.Record, nil
}

// StepNames returns the names of the extraction steps.
func (e *Extractor) StepNames() []string {
	return e.pipeline.StepNames()
}
