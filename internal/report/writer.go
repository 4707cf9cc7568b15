package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/caselift/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ForPath picks a writer from the file extension of path:
// ".md" and ".markdown" give Markdown, ".json" gives JSON, anything else text.
func ForPath(path string, output io.Writer) Writer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownWriter(output)
	case ".json":
		return NewJSONWriter(output, WithPrettyPrint())
	default:
		return NewSimpleWriter(output, WithVerbose(true))
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText summarizes the run result in a few words.
func statusText(report *model.RunReport) string {
	switch {
	case report.Error != "":
		return "FAILED - " + report.Error
	case report.FailureCount() > 0:
		return "Completed with failures"
	default:
		return "Complete"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
