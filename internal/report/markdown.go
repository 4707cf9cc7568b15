package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/caselift/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeLinks(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("caselift Run Summary")
	md.PlainText("")

	rows := [][]string{}
	if report.RunID != 0 {
		rows = append(rows, []string{"Run", "#" + strconv.FormatInt(report.RunID, 10)})
	}
	rows = append(rows, []string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")})
	if d := report.Duration(); d > 0 {
		rows = append(rows, []string{"Duration", d.Round(time.Second).String()})
	}
	if report.LinksFile != "" {
		rows = append(rows, []string{"Links file", "`" + report.LinksFile + "`"})
	}
	if report.OutputPath != "" {
		rows = append(rows, []string{"Workbook", fmt.Sprintf("`%s` (%s)", report.OutputPath, report.SinkMode)})
	}
	rows = append(rows, []string{"Status", statusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Links processed", strconv.Itoa(len(report.Outcomes))},
			{"Cases extracted", strconv.Itoa(report.SuccessCount())},
			{"Links failed", strconv.Itoa(report.FailureCount())},
			{"Rows in workbook", strconv.Itoa(report.TotalRows)},
			{"Truncated cells", strconv.Itoa(report.TruncatedCells)},
		},
	})
	md.PlainText("")

	if report.TruncatedCells > 0 {
		md.Warningf("%d cell value(s) exceeded the xlsx limit of 32767 characters and were truncated.",
			report.TruncatedCells)
		md.PlainText("")
	}

	if len(report.Outcomes) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Link Outcomes"),
			piechart.WithShowData(true),
		)
		if n := report.SuccessCount(); n > 0 {
			chart.LabelAndIntValue("Extracted", uint64(n))
		}
		if n := report.FailureCount(); n > 0 {
			chart.LabelAndIntValue("Failed", uint64(n))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.Error != "":
		md.Cautionf("The run failed: %s", report.Error)
	case report.FailureCount() > 0:
		md.Warningf("%d link(s) could not be extracted. See the failures below.", report.FailureCount())
	default:
		md.Tip("Every link was extracted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Links")
	md.PlainText("")

	if len(report.Outcomes) == 0 {
		md.PlainText("No links were processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Outcomes))
	for i, o := range report.Outcomes {
		status := "✅"
		detail := o.CaseNumber
		if o.Status == model.LinkStatusFailed {
			status = "❌"
			detail = o.Stage
		}
		if detail == "" {
			detail = "-"
		}
		strategy := o.Strategy
		if strategy == "" {
			strategy = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			status,
			truncateString(o.URL, 80),
			truncateString(detail, 40),
			strategy,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Status", "URL", "Case / Stage", "JSON recovery"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	for _, f := range failures {
		md.Details(f.URL, f.Error)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by caselift*")
}
