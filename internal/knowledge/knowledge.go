// Package knowledge loads the project knowledge base and the planner persona.
package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jumppad-labs/spektacular/internal/config"
	"github.com/jumppad-labs/spektacular/internal/defaults"
)

// Entry is one knowledge document. Name is its slash-separated path relative
// to the knowledge directory, e.g. "gotchas/sqlite.md".
type Entry struct {
	Name    string
	Content string
}

// Dir returns the knowledge directory of a project
func Dir(projectDir string) string {
	return filepath.Join(projectDir, config.DirName, "knowledge")
}

// Load reads every markdown file under the project's knowledge directory,
// sorted by name. A missing directory yields no entries.
func Load(projectDir string) ([]Entry, error) {
	root := Dir(projectDir)
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// PersonaPath is where a project can override the built-in planner persona
func PersonaPath(projectDir string) string {
	return filepath.Join(projectDir, config.DirName, "agents", "planner.md")
}

// LoadPersona returns the project's planner persona, or the built-in one when
// the project does not define its own.
func LoadPersona(projectDir string) (string, error) {
	data, err := os.ReadFile(PersonaPath(projectDir))
	if errors.Is(err, os.ErrNotExist) {
		return defaults.MustRead("planner.md"), nil
	}
	if err != nil {
		return "", fmt.Errorf("read persona: %w", err)
	}
	return string(data), nil
}
