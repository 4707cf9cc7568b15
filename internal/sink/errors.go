package sink

import "errors"

var (
	// ErrFileLocked is returned when the workbook is open in another program.
	ErrFileLocked = errors.New("output file is locked by another process; close it and retry")

	// ErrHeaderMismatch is returned when the existing workbook has data rows
	// under a different header and overwriting was not allowed.
	ErrHeaderMismatch = errors.New("existing workbook header does not match the case columns")

	// ErrUnreadableWorkbook is returned when the existing file cannot be
	// read as a workbook and overwriting was not allowed.
	ErrUnreadableWorkbook = errors.New("existing workbook cannot be read")

	// ErrNoRecords is returned when there is nothing to write.
	ErrNoRecords = errors.New("no records to write")
)
