package model

import "time"

// LinkStatus is the outcome of processing a single link.
type LinkStatus string

const (
	// LinkStatusOK means a record was extracted and added to the batch.
	LinkStatusOK LinkStatus = "ok"

	// LinkStatusFailed means the link was skipped after an error.
	LinkStatusFailed LinkStatus = "failed"
)

// LinkOutcome records what happened to one input link.
type LinkOutcome struct {
	// URL is the processed link.
	URL string `json:"url"`

	// Status is ok or failed.
	Status LinkStatus `json:"status"`

	// Error is the failure message for failed links.
	Error string `json:"error,omitempty"`

	// Stage is the name of the pipeline step that failed, if any.
	Stage string `json:"stage,omitempty"`

	// Strategy names the JSON recovery strategy that produced the record.
	Strategy string `json:"strategy,omitempty"`

	// CaseNumber is copied from the extracted record for quick reference.
	CaseNumber string `json:"case_number,omitempty"`

	// PageHash is the content hash of the fetched page text.
	PageHash string `json:"page_hash,omitempty"`

	// Duration is the wall time spent on this link.
	Duration time.Duration `json:"duration"`
}

// RunReport summarizes one extraction run.
type RunReport struct {
	// RunID is the history database identifier, or zero if history is disabled.
	RunID int64 `json:"run_id,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// LinksFile is the input file the links were read from.
	LinksFile string `json:"links_file,omitempty"`

	// OutputPath is the workbook the records were written to.
	OutputPath string `json:"output_path,omitempty"`

	// SinkMode describes how the workbook was written (created, appended, overwritten).
	SinkMode string `json:"sink_mode,omitempty"`

	// TotalRows is the number of data rows in the workbook after the write.
	TotalRows int `json:"total_rows,omitempty"`

	// TruncatedCells is the number of values cut to the xlsx cell limit.
	TruncatedCells int `json:"truncated_cells,omitempty"`

	// Outcomes lists every processed link in input order.
	Outcomes []LinkOutcome `json:"outcomes"`

	// Error contains a run-level failure message, if any.
	Error string `json:"error,omitempty"`
}

// NewRunReport creates an empty report stamped with the start time.
func NewRunReport(linksFile string) *RunReport {
	return &RunReport{
		StartedAt: time.Now(),
		LinksFile: linksFile,
		Outcomes:  make([]LinkOutcome, 0),
	}
}

// SuccessCount returns the number of links that produced a record.
func (r *RunReport) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == LinkStatusOK {
			n++
		}
	}
	return n
}

// FailureCount returns the number of links that were skipped.
func (r *RunReport) FailureCount() int {
	return len(r.Outcomes) - r.SuccessCount()
}

// Failures returns only the failed outcomes.
func (r *RunReport) Failures() []LinkOutcome {
	out := make([]LinkOutcome, 0)
	for _, o := range r.Outcomes {
		if o.Status == LinkStatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Duration returns the elapsed run time, or zero if the run is unfinished.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
