package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/caselift/internal/database"
	"github.com/nao1215/caselift/internal/model"
)

// timeLayout is used for timestamps in history listings.
const timeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past extraction runs",
		Long: `History lists the extraction runs stored in the history database,
newest first. Given a run ID, it shows the outcome of every link of that run.

Examples:
  # List the last 20 runs
  caselift history

  # Show the links of run 7
  caselift history 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var runID int64
	if len(args) == 1 {
		runID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil || runID <= 0 {
			return fmt.Errorf("invalid run ID: %q", args[0])
		}
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if runID != 0 {
		return showRun(ctx, db, runID, cmd.OutOrStdout())
	}
	return listRuns(ctx, db, limit, cmd.OutOrStdout())
}

// listRuns prints a table of recent runs.
func listRuns(ctx context.Context, db *database.HistoryDB, limit int, w io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in the database.")
		fmt.Fprintln(w, "\nUse 'caselift extract <workbook-name>' to extract cases.")
		return nil
	}

	fmt.Fprintf(w, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-19s  %-9s  %-6s  %-11s  %s\n", "ID", "Started", "Succeeded", "Failed", "Mode", "Workbook")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 76))

	for _, r := range runs {
		mode := r.SinkMode
		if mode == "" {
			mode = "-"
		}
		if !r.Finished() {
			mode = "unfinished"
		}
		fmt.Fprintf(w, "  %-6d  %-19s  %-9d  %-6d  %-11s  %s\n",
			r.ID,
			r.StartedAt.Local().Format(timeLayout),
			r.Succeeded,
			r.Failed,
			mode,
			r.OutputPath,
		)
	}

	fmt.Fprintln(w, "\nUse 'caselift history <id>' to see the links of a run.")
	return nil
}

// showRun prints the stored outcome of every link of a run.
func showRun(ctx context.Context, db *database.HistoryDB, runID int64, w io.Writer) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	fmt.Fprintf(w, "Run %d\n", run.ID)
	fmt.Fprintf(w, "  Started:    %s\n", run.StartedAt.Local().Format(timeLayout))
	if run.Finished() {
		fmt.Fprintf(w, "  Finished:   %s\n", run.FinishedAt.Local().Format(timeLayout))
	}
	fmt.Fprintf(w, "  Links file: %s\n", run.LinksFile)
	fmt.Fprintf(w, "  Workbook:   %s\n", run.OutputPath)
	fmt.Fprintf(w, "  Model:      %s\n", run.Model)
	if run.SinkMode != "" {
		fmt.Fprintf(w, "  Written:    %s (%d rows)\n", run.SinkMode, run.TotalRows)
	}
	if run.Error != "" {
		fmt.Fprintf(w, "  Error:      %s\n", run.Error)
	}

	outcomes, err := db.GetLinkResults(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nLinks (%d ok, %d failed):\n", run.Succeeded, run.Failed)
	for i, o := range outcomes {
		if o.Status == model.LinkStatusOK {
			fmt.Fprintf(w, "  %3d. [ok]     %s  %s\n", i+1, o.URL, o.CaseNumber)
			continue
		}
		fmt.Fprintf(w, "  %3d. [failed] %s  (%s: %s)\n", i+1, o.URL, o.Stage, o.Error)
	}
	return nil
}
