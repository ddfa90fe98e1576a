package prompt

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// Categories the pipeline stages look up.
const (
	RelevancyCheck = "relevancy_check"
	Summarization  = "summarization"
)

//go:embed prompts/*.json
var defaultPrompts embed.FS

// entry holds the two templates of one prompt category.
type entry struct {
	System       string `json:"system"`
	UserTemplate string `json:"user_template"`
}

// Library is a read-only lookup of prompt templates keyed by category.
// It is built once at startup and passed into the stages that need it.
type Library struct {
	entries map[string]entry
}

// NewLibrary loads the embedded default prompt files.
func NewLibrary() (*Library, error) {
	return loadLibrary(defaultPrompts, "prompts")
}

func loadLibrary(fsys fs.FS, dir string) (*Library, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob prompt files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no prompt files found in %s", dir)
	}

	entries := make(map[string]entry, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", file, err)
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parse prompt file %s: %w", file, err)
		}
		if e.System == "" || e.UserTemplate == "" {
			return nil, fmt.Errorf("prompt file %s: system and user_template are required", file)
		}

		category := strings.TrimSuffix(path.Base(file), ".json")
		entries[category] = e
	}

	return &Library{entries: entries}, nil
}

// System returns the system prompt for a category.
func (l *Library) System(category string) (string, error) {
	e, ok := l.entries[category]
	if !ok {
		return "", fmt.Errorf("unknown prompt category %q", category)
	}
	return e.System, nil
}

// UserTemplate returns the user template for a category.
func (l *Library) UserTemplate(category string) (string, error) {
	e, ok := l.entries[category]
	if !ok {
		return "", fmt.Errorf("unknown prompt category %q", category)
	}
	return e.UserTemplate, nil
}
