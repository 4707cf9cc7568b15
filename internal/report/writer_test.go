package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/caselift/internal/model"
)

// createTestReport creates a run report with one success and one failure.
func createTestReport() *model.RunReport {
	started := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	return &model.RunReport{
		RunID:      7,
		StartedAt:  started,
		FinishedAt: started.Add(95 * time.Second),
		LinksFile:  "links.txt",
		OutputPath: "excel_files/may.xlsx",
		SinkMode:   "appended",
		TotalRows:  12,
		Outcomes: []model.LinkOutcome{
			{
				URL:        "https://elibrary.judiciary.gov.ph/thebookshelf/showdocs/1/67357",
				Status:     model.LinkStatusOK,
				Strategy:   "direct",
				CaseNumber: "G.R. No. 221424",
			},
			{
				URL:    "https://elibrary.judiciary.gov.ph/thebookshelf/showdocs/1/67358",
				Status: model.LinkStatusFailed,
				Stage:  "decode",
				Error:  "could not parse JSON response even with repairs",
			},
		},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and failures", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		out := buf.String()
		for _, want := range []string{
			"CASELIFT RUN SUMMARY",
			"Run:        #7",
			"Duration:   1m35s",
			"Workbook:   excel_files/may.xlsx (appended)",
			"Status:     Completed with failures",
			"Cases extracted:  1",
			"Links failed:     1",
			"Rows in workbook: 12",
			"FAILURES",
			"Stage: decode",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
		if strings.Contains(out, "LINKS\n") {
			t.Error("expected link list only in verbose mode")
		}
	})

	t.Run("verbose lists every link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "[ok  ] https://elibrary.judiciary.gov.ph/thebookshelf/showdocs/1/67357  G.R. No. 221424") {
			t.Errorf("expected ok line\n%s", out)
		}
		if !strings.Contains(out, "[FAIL] https://elibrary.judiciary.gov.ph/thebookshelf/showdocs/1/67358  decode") {
			t.Errorf("expected failed line\n%s", out)
		}
	})

	t.Run("run error is the status", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		r.Error = "no case data was extracted"
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Status:     FAILED - no case data was extracted") {
			t.Errorf("expected failed status\n%s", buf.String())
		}
	})

	t.Run("truncated cells are reported", func(t *testing.T) {
		t.Parallel()

		r := createTestReport()
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Truncated cells") {
			t.Errorf("expected no truncation line\n%s", buf.String())
		}

		r.TruncatedCells = 3
		buf.Reset()
		if _, err := NewSimpleWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Truncated cells:  3") {
			t.Errorf("expected truncation line\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# caselift Run Summary",
		"## Summary",
		"```mermaid",
		"Extracted",
		"[!WARNING]",
		"## Links",
		"G.R. No. 221424",
		"## Failures",
		"<details>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_AllExtracted(t *testing.T) {
	t.Parallel()

	r := createTestReport()
	r.Outcomes = r.Outcomes[:1]

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "[!TIP]") {
		t.Errorf("expected tip alert\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "## Failures") {
		t.Error("expected no failures section")
	}
}

func TestMarkdownWriter_TruncatedCells(t *testing.T) {
	t.Parallel()

	r := createTestReport()
	r.TruncatedCells = 2

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "2 cell value(s) exceeded the xlsx limit") {
		t.Errorf("expected truncation warning\n%s", buf.String())
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["succeeded"] != float64(1) || got["failed"] != float64(1) {
		t.Errorf("unexpected counts: %v / %v", got["succeeded"], got["failed"])
	}
	if got["run_id"] != float64(7) {
		t.Errorf("expected embedded run_id, got %v", got["run_id"])
	}
	if got["duration_ms"] != float64(95000) {
		t.Errorf("unexpected duration %v", got["duration_ms"])
	}
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Error("expected indented output")
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"summary.md", "*report.MarkdownWriter"},
		{"summary.MARKDOWN", "*report.MarkdownWriter"},
		{"summary.json", "*report.JSONWriter"},
		{"summary.txt", "*report.SimpleWriter"},
		{"summary", "*report.SimpleWriter"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := ForPath(tt.path, &buf)
		got := typeName(w)
		if got != tt.want {
			t.Errorf("ForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	case *JSONWriter:
		return "*report.JSONWriter"
	case *SimpleWriter:
		return "*report.SimpleWriter"
	default:
		return "unknown"
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write(*model.RunReport) (int, error) { return 0, f.err }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b)).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("expected total %d, got %d", a.Len()+b.Len(), n)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		var b bytes.Buffer
		_, err := NewMultiWriter(failingWriter{err: boom}, NewSimpleWriter(&b)).Write(createTestReport())
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if b.Len() != 0 {
			t.Error("expected second writer not to run")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"Señor Santos", 6, "Señ..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
