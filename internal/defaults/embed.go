// Package defaults embeds the files written into a new project and the
// built-in planner instructions.
package defaults

import "embed"

//go:embed config.yaml gitignore conventions.md spec-template.md planner.md
var FS embed.FS

// MustRead returns the named embedded file. It panics when the file is not
// part of the embedded set, which can only happen through a programming error.
func MustRead(name string) string {
	data, err := FS.ReadFile(name)
	if err != nil {
		panic("defaults: " + err.Error())
	}
	return string(data)
}
