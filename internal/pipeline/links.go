package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoLinks is returned when a links file contains no URLs.
var ErrNoLinks = errors.New("no links to process")

// LoadLinks reads newline-delimited URLs from path.
// Surrounding whitespace is trimmed and blank lines are skipped.
func LoadLinks(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open links file: %w", err)
	}
	defer f.Close()

	links, err := ReadLinks(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read links file %s: %w", path, err)
	}
	return links, nil
}

// ReadLinks reads newline-delimited URLs from r.
func ReadLinks(r io.Reader) ([]string, error) {
	links := make([]string, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return links, nil
}

// WriteLinks writes one URL per line.
func WriteLinks(w io.Writer, links []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range links {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
