// Package crawler extracts links and readable text from eLibrary pages.
//
// # Components
//
//   - Parser: walks an HTML document with golang.org/x/net/html and returns
//     every hyperlink resolved to an absolute URL, deduplicated in document order
//   - Filter: case-insensitive regular expression applied to resolved links;
//     by default only case document links (showdocs/<id>/<id>) are kept
//   - PageText: converts a case document to newline separated plain text for
//     the language model, bounded by a character budget
//
// # Usage
//
//	filter, _ := crawler.ResolveFilter(false, "")
//	links, err := crawler.ExtractLinks(listingURL, resp.Body, filter)
package crawler
