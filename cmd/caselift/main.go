// Package main provides the entry point for the caselift CLI.
//
// caselift collects case links from the Philippine judiciary eLibrary,
// extracts six structured fields from every case with a Gemini model and
// merges the records into an .xlsx workbook.
//
// Usage:
//
//	caselift links <listing-url> -o links.txt
//	caselift extract <workbook-name>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
