package runner

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jumppad-labs/spektacular/internal/config"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Runner{}
)

// Register adds a runner constructor for a given command name.
// It is typically called from an init() function in the runner's package.
func Register(name string, constructor func() Runner) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = constructor
}

// New returns a Runner for the agent command specified in the config. The
// command may be a path; only its base name selects the runner.
func New(cfg config.Config) (Runner, error) {
	name := filepath.Base(cfg.Agent.Command)

	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnsupportedRunner, name, registeredNames())
	}
	return constructor(), nil
}

func registeredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
