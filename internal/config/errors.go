package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoLinksFile is returned when no links file is configured.
	ErrNoLinksFile = errors.New("no links file specified")

	// ErrNoExcelDir is returned when the workbook directory is empty.
	ErrNoExcelDir = errors.New("no excel directory specified")

	// ErrNoModel is returned when the model identifier is empty.
	ErrNoModel = errors.New("no model specified")

	// ErrInvalidTimeout is returned when any timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAttempts is returned when a retry budget is below one attempt.
	ErrInvalidAttempts = errors.New("invalid attempts: must be at least 1")

	// ErrInvalidDelay is returned when a backoff delay is negative.
	ErrInvalidDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidMaxPageChars is returned when the page character budget is not positive.
	ErrInvalidMaxPageChars = errors.New("invalid max page chars: must be positive")

	// ErrInvalidLogFormat is returned for a log format other than text or json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)
