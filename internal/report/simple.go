package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/caselift/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every link, not only the failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every processed link.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if w.verbose {
		w.writeLinks(&sb, report)
	}
	w.writeFailures(&sb, report)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        CASELIFT RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.RunID != 0 {
		fmt.Fprintf(sb, "Run:        #%d\n", report.RunID)
	}
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if d := report.Duration(); d > 0 {
		fmt.Fprintf(sb, "Duration:   %s\n", d.Round(time.Second))
	}
	if report.LinksFile != "" {
		fmt.Fprintf(sb, "Links file: %s\n", report.LinksFile)
	}
	if report.OutputPath != "" {
		fmt.Fprintf(sb, "Workbook:   %s", report.OutputPath)
		if report.SinkMode != "" {
			fmt.Fprintf(sb, " (%s)", report.SinkMode)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "Status:     %s\n\n", statusText(report))
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  Links processed:  %d\n", len(report.Outcomes))
	fmt.Fprintf(sb, "  Cases extracted:  %d\n", report.SuccessCount())
	fmt.Fprintf(sb, "  Links failed:     %d\n", report.FailureCount())
	if report.OutputPath != "" {
		fmt.Fprintf(sb, "  Rows in workbook: %d\n", report.TotalRows)
	}
	if report.TruncatedCells > 0 {
		fmt.Fprintf(sb, "  Truncated cells:  %d (xlsx limit is 32767 characters)\n", report.TruncatedCells)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeLinks(sb *strings.Builder, report *model.RunReport) {
	if len(report.Outcomes) == 0 {
		return
	}
	sb.WriteString("LINKS\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	for i, o := range report.Outcomes {
		mark := "ok  "
		detail := o.CaseNumber
		if o.Status == model.LinkStatusFailed {
			mark = "FAIL"
			detail = o.Stage
		}
		fmt.Fprintf(sb, "  %3d. [%s] %s", i+1, mark, o.URL)
		if detail != "" {
			fmt.Fprintf(sb, "  %s", detail)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	for _, f := range failures {
		fmt.Fprintf(sb, "  %s\n", f.URL)
		if f.Stage != "" {
			fmt.Fprintf(sb, "    Stage: %s\n", f.Stage)
		}
		fmt.Fprintf(sb, "    Error: %s\n", truncateString(f.Error, 200))
	}
	sb.WriteString("\n")
}
