package crawler

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxPageChars bounds the page text sent to the model.
const DefaultMaxPageChars = 285000

// nonContentSelector lists elements whose text is never part of a decision.
const nonContentSelector = "script, style, noscript, template"

// PageText converts an HTML document to plain text.
//
// Every non-blank text node becomes one trimmed line, in document order.
// The result is NFC-normalized and truncated to maxChars runes; a
// non-positive maxChars disables truncation.
func PageText(body []byte, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find(nonContentSelector).Remove()

	lines := make([]string, 0, 256)
	for _, n := range doc.Nodes {
		collectText(n, &lines)
	}

	text := norm.NFC.String(strings.Join(lines, "\n"))
	return Truncate(text, maxChars), nil
}

// collectText appends the trimmed text of every descendant text node.
func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*lines = append(*lines, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}

// Truncate returns at most maxChars runes of s.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
