package pipeline

import (
	"time"

	"github.com/nao1215/caselift/internal/model"
)

// Job carries the state of one link through the pipeline.
// Steps fill in the fields in order; a field is only valid once the
// step that produces it has succeeded.
type Job struct {
	// Index is the 1-based position of the link in the run.
	Index int

	// Link is the case document URL.
	Link string

	// Page is the raw fetched body.
	Page []byte

	// PageHash is the content hash of Page.
	PageHash string

	// Text is the plain page text, truncated to the character budget.
	Text string

	// Prompt is the user content sent to the model.
	Prompt string

	// Response is the trimmed model answer.
	Response string

	// Decoded is the JSON value recovered from Response.
	Decoded any

	// Strategy names the recovery strategy that produced Decoded.
	Strategy string

	// Record is the validated case record.
	Record model.CaseRecord

	// Steps lists the steps that completed, in order.
	Steps []string

	// StartedAt is when processing began.
	StartedAt time.Time
}

// NewJob creates a job for link.
func NewJob(index int, link string) *Job {
	return &Job{
		Index:     index,
		Link:      link,
		Steps:     make([]string, 0, 5),
		StartedAt: time.Now(),
	}
}
