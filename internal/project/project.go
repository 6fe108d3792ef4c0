// Package project scaffolds the .spektacular directory and new specs.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jumppad-labs/spektacular/internal/config"
	"github.com/jumppad-labs/spektacular/internal/defaults"
)

// ErrAlreadyInitialized is returned by Init when the project directory exists
// and force is not set.
var ErrAlreadyInitialized = errors.New("project already initialized")

// ErrSpecExists is returned by NewSpec when the target spec file exists.
var ErrSpecExists = errors.New("spec file already exists")

var knowledgeDirs = []string{"learnings", "architecture", "gotchas"}

var titleCaser = cases.Title(language.English)

// Root returns the .spektacular directory of a project
func Root(path string) string {
	return filepath.Join(path, config.DirName)
}

// Init creates the .spektacular directory structure with default config,
// .gitignore, conventions and knowledge READMEs. An existing directory is
// reused only when force is true.
func Init(path string, force bool) error {
	root := Root(path)
	if _, err := os.Stat(root); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrAlreadyInitialized, root)
	}

	dirs := []string{
		root,
		filepath.Join(root, "plans"),
		filepath.Join(root, "specs"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "knowledge"),
	}
	for _, name := range knowledgeDirs {
		dirs = append(dirs, filepath.Join(root, "knowledge", name))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	files := map[string]string{
		filepath.Join(root, config.FileName):               defaults.MustRead("config.yaml"),
		filepath.Join(root, ".gitignore"):                  strings.TrimSpace(defaults.MustRead("gitignore")),
		filepath.Join(root, "knowledge", "conventions.md"): strings.TrimSpace(defaults.MustRead("conventions.md")),
	}
	for _, name := range knowledgeDirs {
		readme := fmt.Sprintf("# %s\n\nThis directory contains %s documentation.\n", titleCaser.String(name), name)
		files[filepath.Join(root, "knowledge", name, "README.md")] = readme
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// SpecPath returns where a spec with the given name is stored
func SpecPath(path, name string) string {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return filepath.Join(Root(path), "specs", name)
}

// NewSpec writes a spec from the embedded template and returns its path. An
// empty title is derived from the name and an empty description gets a
// placeholder sentence.
func NewSpec(path, name, title, description string) (string, error) {
	if title == "" {
		title = titleCaser.String(strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSuffix(name, ".md")))
	}
	if description == "" {
		description = fmt.Sprintf("Add description for %s here.", title)
	}

	replacer := strings.NewReplacer(
		"{title}", title,
		"{description}", description,
		"{requirement_1}", "Add first requirement",
		"{requirement_2}", "Add second requirement",
		"{requirement_3}", "Add third requirement",
		"{constraint_1}", "Add first constraint",
		"{constraint_2}", "Add second constraint",
		"{criteria_1}", "Add first acceptance criterion",
		"{criteria_2}", "Add second acceptance criterion",
		"{criteria_3}", "Add third acceptance criterion",
		"{technical_notes}", "Add technical approach details",
		"{success_metrics}", "Add success metrics",
		"{non_goals}", "Add non-goals",
	)
	content := replacer.Replace(defaults.MustRead("spec-template.md"))

	specPath := SpecPath(path, name)
	if err := os.MkdirAll(filepath.Dir(specPath), 0755); err != nil {
		return "", fmt.Errorf("create specs directory: %w", err)
	}

	f, err := os.OpenFile(specPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrSpecExists, specPath)
	}
	if err != nil {
		return "", fmt.Errorf("create spec: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("write spec: %w", err)
	}
	return specPath, nil
}

// PlanDir returns the output directory for the plan of a spec file,
// .spektacular/plans/<spec name without extension>.
func PlanDir(path, specFile string) string {
	stem := strings.TrimSuffix(filepath.Base(specFile), filepath.Ext(specFile))
	return filepath.Join(Root(path), "plans", stem)
}

// LogDir returns the directory for log files and transcripts
func LogDir(path string) string {
	return filepath.Join(Root(path), "logs")
}

// DatabasePath returns the location of the run ledger database
func DatabasePath(path string) string {
	return filepath.Join(Root(path), "spektacular.db")
}
