// Package model defines the core data structures used throughout caselift.
//
// This package contains the following main types:
//   - CaseRecord: The six extracted fields of one court decision
//   - Batch: The ordered, append-only accumulation of records for one run
//   - RunReport: A summary of one extraction run for display and storage
//
// Multiple packages (pipeline, sink, report, database) use these types, so
// they are kept in a leaf package to prevent import cycles.
package model
