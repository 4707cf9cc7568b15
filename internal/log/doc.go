// Package log builds the application's slog loggers.
//
// Every logger is wrapped in a SecureHandler that masks secrets before
// they are written: API key headers, anything keyed like a password or
// token, and Google API keys wherever they appear in a string value or an
// error message. Even in verbose mode the Gemini key never reaches the
// terminal or a log file.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, log.FormatText)
//	slog.SetDefault(logger)
//
//	fetchLog := log.Component(logger, "fetch")
//	fetchLog.Info("fetched page", "url", link)
package log
