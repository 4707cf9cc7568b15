package crawler

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DefaultCasePattern matches case document pages on the Supreme Court eLibrary.
const DefaultCasePattern = `^https?://elibrary\.judiciary\.gov\.ph/thebookshelf/showdocs/\d+/\d+$`

// Parser extracts hyperlinks from HTML content.
type Parser struct {
	// baseURL is the page URL with a single trailing slash, so that
	// relative hrefs resolve underneath it.
	baseURL *url.URL

	// filter keeps only matching absolute URLs. Nil keeps everything.
	filter *regexp.Regexp
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string, filter *regexp.Regexp) (*Parser, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Parser{baseURL: u, filter: filter}, nil
}

// Links parses content and returns unique absolute links in first-seen order.
func (p *Parser) Links(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				if abs := p.resolveURL(href); abs != "" && p.matches(abs) {
					if _, dup := seen[abs]; !dup {
						seen[abs] = struct{}{}
						links = append(links, abs)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveURL resolves href against the base URL.
// It returns "" for empty or fragment-only hrefs and for results that lack
// a scheme or a host (mailto:, javascript:, unparsable values).
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := p.baseURL.ResolveReference(ref)
	if abs.Scheme == "" || abs.Host == "" {
		return ""
	}
	return abs.String()
}

// matches applies the filter, if any.
func (p *Parser) matches(link string) bool {
	return p.filter == nil || p.filter.MatchString(link)
}

// ExtractLinks is a convenience wrapper around NewParser and Parser.Links.
func ExtractLinks(baseURL string, content io.Reader, filter *regexp.Regexp) ([]string, error) {
	p, err := NewParser(baseURL, filter)
	if err != nil {
		return nil, err
	}
	return p.Links(content)
}

// CompileFilter compiles a case-insensitive link filter.
func CompileFilter(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	return re, nil
}

// ResolveFilter picks the link filter for the links command.
// An explicit pattern wins; otherwise all=false selects DefaultCasePattern
// and all=true disables filtering.
func ResolveFilter(all bool, pattern string) (*regexp.Regexp, error) {
	switch {
	case pattern != "":
		return CompileFilter(pattern)
	case !all:
		return CompileFilter(DefaultCasePattern)
	default:
		return nil, nil
	}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
