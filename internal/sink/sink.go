package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/caselift/internal/model"
)

// DefaultSheet is the sheet name of newly created workbooks.
const DefaultSheet = "Sheet1"

// Mode describes how the workbook was written.
type Mode string

const (
	// ModeCreated means no workbook existed.
	ModeCreated Mode = "created"

	// ModeAppended means the records were added after the existing rows.
	ModeAppended Mode = "appended"

	// ModeOverwritten means the existing content was replaced.
	ModeOverwritten Mode = "overwritten"
)

// Result describes a completed write.
type Result struct {
	// Path is the workbook path.
	Path string

	// Mode is how the workbook was written.
	Mode Mode

	// NewRows is the number of records written by this call.
	NewRows int

	// TotalRows is the number of data rows in the workbook after the write.
	TotalRows int

	// DiscardedRows is the number of existing data rows dropped by an overwrite.
	DiscardedRows int

	// TruncatedCells is the number of values cut to excelize.TotalCellChars.
	TruncatedCells int
}

// Option configures MergeAndWrite.
type Option func(*options)

type options struct {
	overwriteMismatch bool
	logger            *slog.Logger
}

// WithOverwriteMismatch allows replacing a workbook whose header differs
// or that cannot be read.
func WithOverwriteMismatch(allow bool) Option {
	return func(o *options) {
		o.overwriteMismatch = allow
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MergeAndWrite writes records to the workbook at path.
func MergeAndWrite(path string, records []model.CaseRecord, opts ...Option) (*Result, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if err := CheckWritable(path); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		truncated, err := writeFresh(path, records, o.logger)
		if err != nil {
			return nil, err
		}
		o.logger.Info("created workbook", "path", path, "rows", len(records))
		return &Result{
			Path:           path,
			Mode:           ModeCreated,
			NewRows:        len(records),
			TotalRows:      len(records),
			TruncatedCells: truncated,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat workbook: %w", err)
	}

	existing, err := readExisting(path)
	if err != nil {
		if !o.overwriteMismatch {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableWorkbook, path, err)
		}
		o.logger.Warn("existing workbook is unreadable, overwriting", "path", path, "error", err)
		truncated, err := writeFresh(path, records, o.logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Path:           path,
			Mode:           ModeOverwritten,
			NewRows:        len(records),
			TotalRows:      len(records),
			TruncatedCells: truncated,
		}, nil
	}

	dataRows := existing.dataRows()
	switch {
	case dataRows == 0:
		truncated, err := writeFresh(path, records, o.logger)
		if err != nil {
			return nil, err
		}
		o.logger.Info("existing workbook was empty, replaced", "path", path, "rows", len(records))
		return &Result{
			Path:           path,
			Mode:           ModeOverwritten,
			NewRows:        len(records),
			TotalRows:      len(records),
			TruncatedCells: truncated,
		}, nil

	case !existing.headerMatches():
		if !o.overwriteMismatch {
			return nil, fmt.Errorf("%w: found %q", ErrHeaderMismatch, existing.header())
		}
		o.logger.Warn("existing workbook header differs, overwriting",
			"path", path,
			"header", strings.Join(existing.header(), ", "),
			"discarded_rows", dataRows,
		)
		truncated, err := writeFresh(path, records, o.logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Path:           path,
			Mode:           ModeOverwritten,
			NewRows:        len(records),
			TotalRows:      len(records),
			DiscardedRows:  dataRows,
			TruncatedCells: truncated,
		}, nil
	}

	truncated, err := appendRows(path, existing, records, o.logger)
	if err != nil {
		return nil, err
	}
	o.logger.Info("appended to workbook", "path", path, "existing_rows", dataRows, "new_rows", len(records))
	return &Result{
		Path:           path,
		Mode:           ModeAppended,
		NewRows:        len(records),
		TotalRows:      dataRows + len(records),
		TruncatedCells: truncated,
	}, nil
}

// Check reports, before any records exist, whether MergeAndWrite could
// write to path with the same options. It returns ErrFileLocked,
// ErrUnreadableWorkbook or ErrHeaderMismatch; a missing workbook passes.
func Check(path string, opts ...Option) error {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckWritable(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to stat workbook: %w", err)
	}
	if o.overwriteMismatch {
		return nil
	}

	existing, err := readExisting(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadableWorkbook, path, err)
	}
	if existing.dataRows() > 0 && !existing.headerMatches() {
		return fmt.Errorf("%w: found %q", ErrHeaderMismatch, existing.header())
	}
	return nil
}

// ReadRecords returns the data rows of the workbook at path.
func ReadRecords(path string) ([]model.CaseRecord, error) {
	existing, err := readExisting(path)
	if err != nil {
		return nil, err
	}
	if len(existing.rows) <= 1 {
		return []model.CaseRecord{}, nil
	}
	out := make([]model.CaseRecord, 0, len(existing.rows)-1)
	for _, row := range existing.rows[1:] {
		out = append(out, model.RecordFromValues(row))
	}
	return out, nil
}

// sheetContent is the first sheet of an existing workbook.
type sheetContent struct {
	sheet string
	rows  [][]string
}

func (s *sheetContent) header() []string {
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[0]
}

func (s *sheetContent) headerMatches() bool {
	got := make([]string, 0, len(s.header()))
	for _, h := range s.header() {
		got = append(got, strings.TrimSpace(h))
	}
	return slices.Equal(got, model.Header())
}

// dataRows counts non-blank rows below the header.
func (s *sheetContent) dataRows() int {
	n := 0
	for i, row := range s.rows {
		if i == 0 {
			continue
		}
		if slices.ContainsFunc(row, func(c string) bool { return strings.TrimSpace(c) != "" }) {
			n++
		}
	}
	return n
}

func readExisting(path string) (*sheetContent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return &sheetContent{sheet: sheets[0], rows: rows}, nil
}

func writeFresh(path string, records []model.CaseRecord, logger *slog.Logger) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := writeRow(f, DefaultSheet, 1, model.Header(), logger); err != nil {
		return 0, err
	}
	truncated := 0
	for i, r := range records {
		n, err := writeRow(f, DefaultSheet, i+2, r.Values(), logger)
		if err != nil {
			return 0, err
		}
		truncated += n
	}
	if err := f.SetColWidth(DefaultSheet, "A", "B", 28); err != nil {
		return 0, err
	}
	if err := f.SetColWidth(DefaultSheet, "C", "F", 60); err != nil {
		return 0, err
	}
	return truncated, save(f, path)
}

func appendRows(path string, existing *sheetContent, records []model.CaseRecord, logger *slog.Logger) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	next := len(existing.rows) + 1
	truncated := 0
	for i, r := range records {
		n, err := writeRow(f, existing.sheet, next+i, r.Values(), logger)
		if err != nil {
			return 0, err
		}
		truncated += n
	}
	return truncated, save(f, path)
}

// writeRow writes values into row and returns how many of them excelize
// cut to its per-cell limit. Each cut is logged when logger is non-nil.
func writeRow(f *excelize.File, sheet string, row int, values []string, logger *slog.Logger) (int, error) {
	truncated := 0
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return 0, err
		}
		if n := utf8.RuneCountInString(v); n > excelize.TotalCellChars {
			truncated++
			if logger != nil {
				logger.Warn("cell value exceeds the xlsx limit and was truncated",
					"cell", cell,
					"row", row,
					"column", columnName(col),
					"chars", n,
					"limit", excelize.TotalCellChars,
				)
			}
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return 0, fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return truncated, nil
}

// columnName returns the header of the zero-based column index.
func columnName(col int) string {
	header := model.Header()
	if col < len(header) {
		return header[col]
	}
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return strconv.Itoa(col + 1)
	}
	return name
}

// save writes the workbook next to path and renames it into place.
func save(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".caselift-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temporary workbook: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := f.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	return nil
}
