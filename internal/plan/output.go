package plan

import (
	"fmt"
	"os"
	"path/filepath"
)

// PlanFile is the name of the plan written into the plan directory
const PlanFile = "plan.md"

// WritePlan writes text to <dir>/plan.md, creating dir if needed, and
// returns the file path.
func WritePlan(dir, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create plan directory: %w", err)
	}
	path := filepath.Join(dir, PlanFile)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	return path, nil
}
