// Package sink merges case records into an .xlsx workbook.
//
// The workbook has a single sheet whose first row is the six-column case
// header. New records are appended after the existing rows. A workbook
// with no data rows is simply replaced. A workbook whose header differs is
// only replaced when the caller explicitly allows it, since that discards
// the rows already in the file.
package sink
