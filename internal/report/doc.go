// Package report renders run summaries.
//
// A RunReport can be written as plain text for the terminal, as Markdown
// for sharing, or as JSON for other tools. All writers implement Writer.
package report
