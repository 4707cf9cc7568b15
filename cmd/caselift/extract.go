package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nao1215/caselift/internal/config"
	"github.com/nao1215/caselift/internal/database"
	"github.com/nao1215/caselift/internal/fetch"
	"github.com/nao1215/caselift/internal/inference"
	"github.com/nao1215/caselift/internal/log"
	"github.com/nao1215/caselift/internal/metrics"
	"github.com/nao1215/caselift/internal/model"
	"github.com/nao1215/caselift/internal/pipeline"
	"github.com/nao1215/caselift/internal/report"
	"github.com/nao1215/caselift/internal/sink"
)

// apiKeyEnv is the environment variable that holds the Gemini API key.
const apiKeyEnv = "GEMINI_API_KEY"

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <workbook-name>",
		Short: "Extract case records from the links file into a workbook",
		Long: `Extract reads the links file, fetches every case, asks the model for the
case number, title, facts, decision, ruling and verdict, and merges the records
into <excel-dir>/<workbook-name>.xlsx.

A link that fails at any stage is logged and skipped. The command fails only
when no link produced a record or the workbook cannot be written. Close the
workbook in your spreadsheet program before running.

If the workbook exists, new rows are appended. A workbook with a different
header is only replaced when --overwrite-mismatch is given.

Examples:
  # Extract links.txt into excel_files/may_2021.xlsx
  caselift extract may_2021

  # Use another links file and write a Markdown summary
  caselift extract --links june.txt --report june.md june_2021`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("links", "l", config.DefaultLinksFile,
		"Newline-delimited file of case URLs")
	cmd.Flags().StringP("excel-dir", "d", config.DefaultExcelDir,
		"Directory for output workbooks")
	cmd.Flags().StringP("model", "m", inference.DefaultModel,
		"Gemini model identifier")
	cmd.Flags().Bool("overwrite-mismatch", false,
		"Replace an existing workbook whose header differs")
	cmd.Flags().StringP("report", "r", "",
		"Also write the run summary to this file (.md, .json or text)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file")
	cmd.Flags().String("debug-dir", "",
		"Directory for debug_empty_response_<n>.txt and debug_bad_json_<n>.txt")
	cmd.Flags().Bool("no-history", false,
		"Do not record the run in the history database")
	cmd.Flags().Int("max-chars", 0,
		"Maximum page characters sent to the model (default 285000)")

	return cmd
}

// extractOptions holds extract settings that are not part of Config.
type extractOptions struct {
	workbook          string
	overwriteMismatch bool
	reportPath        string
	metricsFile       string
	noHistory         bool
	apiKey            string
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyExtractFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts := extractOptions{workbook: cfg.WorkbookPath(args[0])}
	if opts.overwriteMismatch, err = cmd.Flags().GetBool("overwrite-mismatch"); err != nil {
		return err
	}
	if opts.reportPath, err = cmd.Flags().GetString("report"); err != nil {
		return err
	}
	if opts.metricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return err
	}
	if opts.noHistory, err = cmd.Flags().GetBool("no-history"); err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	// A missing .env file is fine; the key may come from the environment.
	_ = godotenv.Load()
	opts.apiKey = os.Getenv(apiKeyEnv)
	if opts.apiKey == "" {
		return fmt.Errorf("%w: set %s in your .env file or environment", inference.ErrMissingAPIKey, apiKeyEnv)
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runExtraction(ctx, cfg, opts, logger, cmd.OutOrStdout())
}

// applyExtractFlags copies explicitly set flags over the loaded configuration.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	flags := cmd.Flags()
	if flags.Changed("links") {
		if cfg.LinksFile, err = flags.GetString("links"); err != nil {
			return err
		}
	}
	if flags.Changed("excel-dir") {
		if cfg.ExcelDir, err = flags.GetString("excel-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("model") {
		if cfg.Model, err = flags.GetString("model"); err != nil {
			return err
		}
	}
	if flags.Changed("debug-dir") {
		if cfg.DebugDir, err = flags.GetString("debug-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("max-chars") {
		if cfg.MaxPageChars, err = flags.GetInt("max-chars"); err != nil {
			return err
		}
	}
	return nil
}

// runExtraction performs one run: preflight the workbook, extract every link,
// merge the batch into the workbook, then report, record history and export
// metrics. Per-link failures never abort the run.
func runExtraction(ctx context.Context, cfg *config.Config, opts extractOptions, logger *slog.Logger, stdout io.Writer) error {
	sinkOpts := []sink.Option{
		sink.WithOverwriteMismatch(opts.overwriteMismatch),
		sink.WithLogger(log.Component(logger, "sink")),
	}
	if err := sink.Check(opts.workbook, sinkOpts...); err != nil {
		if errors.Is(err, sink.ErrFileLocked) {
			return fmt.Errorf("%w: close it in your spreadsheet program and try again", err)
		}
		return err
	}

	links, err := pipeline.LoadLinks(cfg.LinksFile)
	if err != nil {
		return err
	}

	gemini, err := inference.NewGeminiClient(opts.apiKey,
		inference.WithBaseURL(cfg.APIBaseURL),
		inference.WithModel(cfg.Model),
		inference.WithRequestTimeout(cfg.InferenceTimeout),
		inference.WithClientLogger(log.Component(logger, "gemini")),
	)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	artifacts := pipeline.NewArtifacts(cfg.DebugDir, log.Component(logger, "artifacts"))

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxAttempts(cfg.FetchAttempts),
		fetch.WithInitialDelay(cfg.FetchDelay),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(log.Component(logger, "fetch")),
		fetch.WithAttemptHook(recorder.ObserveFetch),
	)

	caller := inference.NewCaller(gemini, pipeline.SystemInstruction,
		inference.WithMaxAttempts(cfg.InferenceAttempts),
		inference.WithInitialDelay(cfg.InferenceDelay),
		inference.WithLogger(log.Component(logger, "inference")),
		inference.WithAttemptHook(func(_ int, err error) {
			code, _ := inference.StatusCode(err)
			recorder.ObserveInference(code, err)
		}),
		inference.WithEmptyHook(func(prompt string) {
			if _, err := artifacts.WriteEmptyResponse(prompt); err != nil {
				logger.Warn("failed to write debug artifact", "error", err)
			}
		}),
	)

	extractor := pipeline.NewExtractor(pipeline.ExtractorConfig{
		Fetcher:      fetcher,
		Inferer:      caller,
		Artifacts:    artifacts,
		MaxPageChars: cfg.MaxPageChars,
		OnStrategy:   recorder.ObserveRecovery,
		Logger:       log.Component(logger, "pipeline"),
	})

	runReport := model.NewRunReport(cfg.LinksFile)
	runReport.OutputPath = opts.workbook

	history := openHistory(ctx, cfg, opts, runReport, logger)
	if history != nil {
		defer history.Close()
	}

	runner := pipeline.NewRunner(extractor,
		pipeline.WithRunnerLogger(log.Component(logger, "runner")),
		pipeline.WithObserver(recorder.ObserveLink),
		pipeline.WithObserver(history.observe),
	)

	batch, outcomes, runErr := runner.Run(ctx, links)
	runReport.Outcomes = outcomes

	if batch.Len() > 0 {
		result, err := sink.MergeAndWrite(opts.workbook, batch.Records(), sinkOpts...)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to write workbook: %w", err))
		} else {
			runReport.SinkMode = string(result.Mode)
			runReport.TotalRows = result.TotalRows
			runReport.TruncatedCells = result.TruncatedCells
			recorder.SetWorkbookRows(result.TotalRows)
			recorder.AddTruncatedCells(result.TruncatedCells)
		}
	}

	runReport.FinishedAt = time.Now()
	if runErr != nil {
		runReport.Error = runErr.Error()
	}

	if _, err := report.NewSimpleWriter(stdout).Write(runReport); err != nil {
		logger.Error("failed to print summary", "error", err)
	}
	if opts.reportPath != "" {
		if err := writeReportFile(opts.reportPath, runReport); err != nil {
			logger.Error("failed to write report", "path", opts.reportPath, "error", err)
		}
	}

	history.finish(runReport)

	if opts.metricsFile != "" {
		if err := writeMetrics(recorder, opts.metricsFile); err != nil {
			logger.Error("failed to write metrics", "path", opts.metricsFile, "error", err)
		}
	}

	if errors.Is(runErr, pipeline.ErrNoRecords) {
		return fmt.Errorf("no data extracted successfully: %w", runErr)
	}
	return runErr
}

// runHistory records a run in the history database. A nil *runHistory is a
// valid no-op, used when history is disabled or the database cannot be opened.
type runHistory struct {
	db       *database.HistoryDB
	runID    int64
	position int
	ctx      context.Context
	logger   *slog.Logger
}

// openHistory starts a run in the history database. Failures are logged and
// disable history for this run.
func openHistory(ctx context.Context, cfg *config.Config, opts extractOptions, r *model.RunReport, logger *slog.Logger) *runHistory {
	if opts.noHistory || cfg.DBDir == "" {
		return nil
	}
	logger = log.Component(logger, "history")

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}

	runID, err := db.StartRun(ctx, database.RunInfo{
		LinksFile:  r.LinksFile,
		OutputPath: r.OutputPath,
		Model:      cfg.Model,
		StartedAt:  r.StartedAt,
	})
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil
	}
	r.RunID = runID
	logger.Debug("run started", "run_id", runID, "db", db.Path())

	// History writes must survive an interrupted run.
	return &runHistory{db: db, runID: runID, ctx: context.WithoutCancel(ctx), logger: logger}
}

// observe stores a link outcome and notes whether the page changed since it
// was last extracted.
func (h *runHistory) observe(o model.LinkOutcome) {
	if h == nil {
		return
	}
	if o.PageHash != "" {
		prev, err := h.db.LastPageHash(h.ctx, o.URL)
		switch {
		case err != nil:
			h.logger.Warn("failed to look up previous page hash", "link", o.URL, "error", err)
		case prev != "" && prev != o.PageHash:
			h.logger.Info("case page changed since last extraction", "link", o.URL, "page_hash", o.PageHash)
		case prev != "":
			h.logger.Debug("case page unchanged since last extraction", "link", o.URL)
		}
	}
	h.position++
	if err := h.db.RecordLink(h.ctx, h.runID, h.position, o); err != nil {
		h.logger.Warn("failed to record link", "link", o.URL, "error", err)
	}
}

func (h *runHistory) finish(r *model.RunReport) {
	if h == nil {
		return
	}
	if err := h.db.FinishRun(h.ctx, h.runID, r); err != nil {
		h.logger.Warn("failed to finish run", "error", err)
	}
}

func (h *runHistory) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}

// writeReportFile writes the run summary in the format chosen by the extension.
func writeReportFile(path string, r *model.RunReport) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	_, err = report.ForPath(path, f).Write(r)
	return err
}

func writeMetrics(recorder *metrics.Recorder, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	return recorder.WriteTextfile(path)
}
