package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/caselift/internal/database"
	"github.com/nao1215/caselift/internal/model"
)

// seedHistory creates a database with one finished run of two links.
func seedHistory(t *testing.T, dir string) int64 {
	t.Helper()

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runID, err := db.StartRun(ctx, database.RunInfo{
		LinksFile:  "links.txt",
		OutputPath: "excel_files/may.xlsx",
		Model:      "gemini-test",
		StartedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	r := model.NewRunReport("links.txt")
	r.OutputPath = "excel_files/may.xlsx"
	r.SinkMode = "created"
	r.TotalRows = 1
	r.Outcomes = []model.LinkOutcome{
		{URL: "https://example.com/showdocs/1/1", Status: model.LinkStatusOK, CaseNumber: "G.R. No. 1"},
		{URL: "https://example.com/showdocs/1/2", Status: model.LinkStatusFailed, Stage: "fetch", Error: "404"},
	}
	for i, o := range r.Outcomes {
		if err := db.RecordLink(ctx, runID, i+1, o); err != nil {
			t.Fatalf("failed to record link: %v", err)
		}
	}
	r.FinishedAt = time.Now()
	if err := db.FinishRun(ctx, runID, r); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}
	return runID
}

// historyCmd returns the root command configured to use dbDir.
func historyCmd(t *testing.T, dbDir string, args ...string) (*bytes.Buffer, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "caselift.yaml")
	if err := os.WriteFile(configPath, []byte("db_dir: "+dbDir+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"history", "--config", configPath}, args...))
	return &out, cmd.Execute()
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedHistory(t, dir)

		out, err := historyCmd(t, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Runs (1)", "excel_files/may.xlsx", "created"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("shows one run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		runID := seedHistory(t, dir)

		out, err := historyCmd(t, dir, strconv.FormatInt(runID, 10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"[ok]", "G.R. No. 1", "[failed]", "fetch: 404", "gemini-test"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedHistory(t, dir)

		if _, err := historyCmd(t, dir, "999"); err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("invalid run ID", func(t *testing.T) {
		t.Parallel()

		if _, err := historyCmd(t, t.TempDir(), "abc"); err == nil {
			t.Error("expected error for invalid run ID")
		}
	})

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		if _, err := historyCmd(t, filepath.Join(t.TempDir(), "none")); err == nil {
			t.Error("expected error when no database exists")
		}
	})
}
