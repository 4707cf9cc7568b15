package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/caselift/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "caselift.db"

// HistoryDB provides SQLite-based storage for run history.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run an extraction first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		links_file TEXT,
		output_path TEXT,
		model TEXT,
		sink_mode TEXT,
		total_rows INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS link_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		stage TEXT,
		error TEXT,
		strategy TEXT,
		case_number TEXT,
		page_hash TEXT,
		duration_ms INTEGER,
		recorded_at TEXT NOT NULL,
		UNIQUE(run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_link_results_url ON link_results(url);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// RunInfo describes a run at start time.
type RunInfo struct {
	LinksFile  string
	OutputPath string
	Model      string
	StartedAt  time.Time
}

// RunSummary is a stored run.
type RunSummary struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	LinksFile  string
	OutputPath string
	Model      string
	SinkMode   string
	TotalRows  int
	Succeeded  int
	Failed     int
	Error      string
}

// Finished reports whether the run was completed.
func (r RunSummary) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// StartRun inserts a new run and returns its ID.
func (h *HistoryDB) StartRun(ctx context.Context, info RunInfo) (int64, error) {
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	result, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, links_file, output_path, model) VALUES (?, ?, ?, ?)`,
		formatTimestamp(started),
		info.LinksFile,
		info.OutputPath,
		info.Model,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// RecordLink stores the outcome of the link at position (1-based) in run.
func (h *HistoryDB) RecordLink(ctx context.Context, runID int64, position int, outcome model.LinkOutcome) error {
	_, err := h.db.ExecContext(ctx, `
	INSERT INTO link_results (run_id, position, url, status, stage, error, strategy, case_number, page_hash, duration_ms, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, position) DO UPDATE SET
		status = excluded.status,
		stage = excluded.stage,
		error = excluded.error,
		strategy = excluded.strategy,
		case_number = excluded.case_number,
		page_hash = excluded.page_hash,
		duration_ms = excluded.duration_ms,
		recorded_at = excluded.recorded_at
	`,
		runID,
		position,
		outcome.URL,
		string(outcome.Status),
		outcome.Stage,
		outcome.Error,
		outcome.Strategy,
		outcome.CaseNumber,
		outcome.PageHash,
		outcome.Duration.Milliseconds(),
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert link result: %w", err)
	}
	return nil
}

// FinishRun stores the final state of a run.
func (h *HistoryDB) FinishRun(ctx context.Context, runID int64, report *model.RunReport) error {
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	result, err := h.db.ExecContext(ctx, `
	UPDATE runs SET finished_at = ?, output_path = ?, sink_mode = ?, total_rows = ?, succeeded = ?, failed = ?, error = ?
	WHERE id = ?
	`,
		formatTimestamp(finished),
		report.OutputPath,
		report.SinkMode,
		report.TotalRows,
		report.SuccessCount(),
		report.FailureCount(),
		report.Error,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, started_at, finished_at, links_file, output_path, model, sink_mode, total_rows, succeeded, failed, error
	FROM runs
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns a run by ID, or nil if it doesn't exist.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*RunSummary, error) {
	row := h.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, links_file, output_path, model, sink_mode, total_rows, succeeded, failed, error
	FROM runs
	WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetLinkResults returns the outcomes of a run in input order.
func (h *HistoryDB) GetLinkResults(ctx context.Context, runID int64) ([]model.LinkOutcome, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT url, status, stage, error, strategy, case_number, page_hash, duration_ms
	FROM link_results
	WHERE run_id = ?
	ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query link results: %w", err)
	}
	defer rows.Close()

	outcomes := make([]model.LinkOutcome, 0)
	for rows.Next() {
		var (
			o          model.LinkOutcome
			status     string
			stage      sql.NullString
			errMsg     sql.NullString
			strategy   sql.NullString
			caseNumber sql.NullString
			pageHash   sql.NullString
			durationMS sql.NullInt64
		)
		if err := rows.Scan(&o.URL, &status, &stage, &errMsg, &strategy, &caseNumber, &pageHash, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan link result: %w", err)
		}
		o.Status = model.LinkStatus(status)
		o.Stage = stage.String
		o.Error = errMsg.String
		o.Strategy = strategy.String
		o.CaseNumber = caseNumber.String
		o.PageHash = pageHash.String
		o.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// LastPageHash returns the most recent successful page hash recorded for
// url, or "" if the link was never extracted.
func (h *HistoryDB) LastPageHash(ctx context.Context, url string) (string, error) {
	var hash sql.NullString
	err := h.db.QueryRowContext(ctx, `
	SELECT page_hash FROM link_results
	WHERE url = ? AND status = ? AND page_hash != ''
	ORDER BY id DESC
	LIMIT 1
	`, url, string(model.LinkStatusOK)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query page hash: %w", err)
	}
	return hash.String, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*RunSummary, error) {
	var (
		r          RunSummary
		startedAt  string
		finishedAt sql.NullString
		linksFile  sql.NullString
		outputPath sql.NullString
		modelName  sql.NullString
		sinkMode   sql.NullString
		totalRows  sql.NullInt64
		succeeded  sql.NullInt64
		failed     sql.NullInt64
		errMsg     sql.NullString
	)
	err := s.Scan(&r.ID, &startedAt, &finishedAt, &linksFile, &outputPath, &modelName, &sinkMode, &totalRows, &succeeded, &failed, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTimestamp(finishedAt.String)
	}
	r.LinksFile = linksFile.String
	r.OutputPath = outputPath.String
	r.Model = modelName.String
	r.SinkMode = sinkMode.String
	r.TotalRows = int(totalRows.Int64)
	r.Succeeded = int(succeeded.Int64)
	r.Failed = int(failed.Int64)
	r.Error = errMsg.String
	return &r, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning zero time on failure.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
