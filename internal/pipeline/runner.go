package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/caselift/internal/model"
)

// ErrNoRecords is returned when no link produced a record.
var ErrNoRecords = errors.New("no case data was extracted")

// LinkExtractor processes one job. *Extractor implements it.
type LinkExtractor interface {
	Extract(ctx context.Context, job *Job) error
}

// Observer receives each link's outcome as soon as it is known.
type Observer func(outcome model.LinkOutcome)

// Runner processes links one after another and collects the records.
type Runner struct {
	extractor LinkExtractor
	logger    *slog.Logger
	observers []Observer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithObserver adds an outcome observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(extractor LinkExtractor, opts ...RunnerOption) *Runner {
	r := &Runner{extractor: extractor}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes every link in order. A failed link is logged and skipped.
//
// The returned batch and outcomes are valid even when err is non-nil.
// err is the context error if the run was interrupted, or ErrNoRecords if
// every link failed.
func (r *Runner) Run(ctx context.Context, links []string) (*model.Batch, []model.LinkOutcome, error) {
	batch := model.NewBatch()
	outcomes := make([]model.LinkOutcome, 0, len(links))

	r.logger.Info("starting extraction", "links", len(links))
	start := time.Now()

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("extraction interrupted",
				"processed", i,
				"total", len(links),
				"reason", err,
			)
			return batch, outcomes, err
		}

		r.logger.Info("processing link",
			"link", link,
			"index", i+1,
			"total", len(links),
		)

		job := NewJob(i+1, link)
		err := r.extractor.Extract(ctx, job)
		outcome := newOutcome(job, err)
		if err != nil {
			r.logger.Error("link failed",
				"link", link,
				"stage", outcome.Stage,
				"error", err,
			)
		} else {
			batch.Append(job.Record)
			r.logger.Info("extracted case",
				"link", link,
				"case_number", job.Record.CaseNumber,
				"strategy", job.Strategy,
			)
		}

		outcomes = append(outcomes, outcome)
		for _, o := range r.observers {
			o(outcome)
		}
	}

	r.logger.Info("extraction complete",
		"links", len(links),
		"records", batch.Len(),
		"elapsed", time.Since(start),
	)

	if batch.Len() == 0 {
		return batch, outcomes, ErrNoRecords
	}
	return batch, outcomes, nil
}

func newOutcome(job *Job, err error) model.LinkOutcome {
	o := model.LinkOutcome{
		URL:      job.Link,
		PageHash: job.PageHash,
		Duration: time.Since(job.StartedAt),
	}
	if err != nil {
		o.Status = model.LinkStatusFailed
		o.Error = err.Error()
		var se *StepError
		if errors.As(err, &se) {
			o.Stage = se.Step
		}
		return o
	}
	o.Status = model.LinkStatusOK
	o.Strategy = job.Strategy
	o.CaseNumber = job.Record.CaseNumber
	return o
}
