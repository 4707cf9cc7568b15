package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact kinds.
const (
	ArtifactEmptyResponse = "debug_empty_response"
	ArtifactBadJSON       = "debug_bad_json"
)

// Artifacts writes numbered debug files for failed model interactions.
// Numbering is sequential per kind within one Artifacts value: the first
// bad JSON answer of a run goes to debug_bad_json_1.txt, the second to
// debug_bad_json_2.txt, and so on. An Artifacts value is used by one run at a time.
type Artifacts struct {
	dir    string
	logger *slog.Logger
	counts map[string]int
}

// NewArtifacts creates an artifact writer rooted at dir.
// An empty dir means the current working directory.
func NewArtifacts(dir string, logger *slog.Logger) *Artifacts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Artifacts{
		dir:    dir,
		logger: logger,
		counts: make(map[string]int),
	}
}

// WriteEmptyResponse stores the prompt that produced an empty answer.
func (a *Artifacts) WriteEmptyResponse(prompt string) (string, error) {
	return a.write(ArtifactEmptyResponse, prompt)
}

// WriteBadJSON stores a model answer that could not be parsed.
func (a *Artifacts) WriteBadJSON(response string) (string, error) {
	return a.write(ArtifactBadJSON, response)
}

// Count returns how many artifacts of kind were written.
func (a *Artifacts) Count(kind string) int {
	return a.counts[kind]
}

func (a *Artifacts) write(kind, content string) (string, error) {
	a.counts[kind]++
	n := a.counts[kind]

	if a.dir != "" {
		if err := os.MkdirAll(a.dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create debug directory: %w", err)
		}
	}

	path := filepath.Join(a.dir, fmt.Sprintf("%s_%d.txt", kind, n))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write debug artifact: %w", err)
	}

	a.logger.Info("wrote debug artifact",
		"kind", kind,
		"path", path,
		"bytes", len(content),
	)
	return path, nil
}
