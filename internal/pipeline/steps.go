package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/caselift/internal/crawler"
	"github.com/nao1215/caselift/internal/fetch"
	"github.com/nao1215/caselift/internal/model"
	"github.com/nao1215/caselift/internal/recovery"
)

// Step names.
const (
	StepFetch    = "fetch"
	StepText     = "text"
	StepInfer    = "infer"
	StepDecode   = "decode"
	StepValidate = "validate"
)

// PageFetcher retrieves a page. *fetch.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Inferer sends a prompt to the model. *inference.Caller implements it.
type Inferer interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// FetchStep downloads the case page.
type FetchStep struct {
	fetcher PageFetcher
}

// NewFetchStep creates a fetch step.
func NewFetchStep(fetcher PageFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return StepFetch }

// Do executes the step.
func (s *FetchStep) Do(ctx context.Context, job *Job) error {
	resp, err := s.fetcher.Fetch(ctx, job.Link)
	if err != nil {
		return err
	}
	job.Page = resp.Body
	job.PageHash = crawler.HashContent(resp.Body)
	return nil
}

// TextStep reduces the page to plain text within a character budget.
type TextStep struct {
	maxChars int
}

// NewTextStep creates a text step. maxChars <= 0 disables truncation.
func NewTextStep(maxChars int) *TextStep {
	return &TextStep{maxChars: maxChars}
}

// Name returns the step name.
func (s *TextStep) Name() string { return StepText }

// Do executes the step.
func (s *TextStep) Do(_ context.Context, job *Job) error {
	text, err := crawler.PageText(job.Page, s.maxChars)
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	job.Text = text
	job.Prompt = BuildPrompt(text)
	return nil
}

// InferStep asks the model for the case record.
type InferStep struct {
	inferer Inferer
}

// NewInferStep creates an inference step.
func NewInferStep(inferer Inferer) *InferStep {
	return &InferStep{inferer: inferer}
}

// Name returns the step name.
func (s *InferStep) Name() string { return StepInfer }

// Do executes the step.
func (s *InferStep) Do(ctx context.Context, job *Job) error {
	resp, err := s.inferer.Call(ctx, job.Prompt)
	if err != nil {
		return err
	}
	job.Response = resp
	return nil
}

// DecodeStep recovers a JSON value from the model answer.
// When every strategy fails, the raw answer is saved as a debug artifact.
type DecodeStep struct {
	ladder    recovery.Ladder
	artifacts *Artifacts
	logger    *slog.Logger
	onResult  func(strategy string)
}

// DecodeStepOption configures a DecodeStep.
type DecodeStepOption func(*DecodeStep)

// WithDecodeLogger sets the logger of the decode step.
func WithDecodeLogger(logger *slog.Logger) DecodeStepOption {
	return func(s *DecodeStep) {
		s.logger = logger
	}
}

// WithLadder replaces the default recovery ladder.
func WithLadder(l recovery.Ladder) DecodeStepOption {
	return func(s *DecodeStep) {
		s.ladder = l
	}
}

// WithStrategyHook registers a callback receiving the strategy that
// succeeded, or "failed" when none did.
func WithStrategyHook(h func(strategy string)) DecodeStepOption {
	return func(s *DecodeStep) {
		s.onResult = h
	}
}

// NewDecodeStep creates a decode step. artifacts may be nil.
func NewDecodeStep(artifacts *Artifacts, opts ...DecodeStepOption) *DecodeStep {
	s := &DecodeStep{
		ladder:    recovery.DefaultLadder(),
		artifacts: artifacts,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DecodeStep) Name() string { return StepDecode }

// Do executes the step.
func (s *DecodeStep) Do(_ context.Context, job *Job) error {
	result, err := s.ladder.Recover(job.Response)
	if err != nil {
		if s.onResult != nil {
			s.onResult("failed")
		}
		if s.artifacts != nil {
			if _, werr := s.artifacts.WriteBadJSON(job.Response); werr != nil {
				s.logger.Warn("could not save bad JSON response", "link", job.Link, "error", werr)
			}
		}
		return err
	}

	if result.Strategy != recovery.StrategyDirect {
		s.logger.Info("recovered malformed JSON",
			"link", job.Link,
			"strategy", result.Strategy,
		)
	}
	if s.onResult != nil {
		s.onResult(result.Strategy)
	}

	job.Decoded = result.Value
	job.Strategy = result.Strategy
	return nil
}

// ValidateStep checks the decoded value is an array of exactly one
// object and converts it into a case record.
type ValidateStep struct{}

// NewValidateStep creates a validation step.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name returns the step name.
func (s *ValidateStep) Name() string { return StepValidate }

// Do executes the step.
func (s *ValidateStep) Do(_ context.Context, job *Job) error {
	record, err := model.RecordFromJSON(job.Decoded)
	if err != nil {
		return err
	}
	job.Record = record
	return nil
}
