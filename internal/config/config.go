package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jumppad-labs/spektacular/internal/defaults"
)

// DirName is the per-project directory holding config, specs, plans and knowledge.
const DirName = ".spektacular"

// FileName is the config file name inside DirName.
const FileName = "config.yaml"

// Config represents the project configuration
type Config struct {
	Agent    AgentConfig `yaml:"agent"`
	LogLevel string      `yaml:"log_level,omitempty"`
}

// AgentConfig describes how the agent executable is invoked
type AgentConfig struct {
	Command                    string   `yaml:"command"`
	Args                       []string `yaml:"args,omitempty"`
	AllowedTools               []string `yaml:"allowed_tools,omitempty"`
	DangerouslySkipPermissions bool     `yaml:"dangerously_skip_permissions"`
}

// Default returns the default configuration, decoded from the embedded
// config.yaml so that `init` and the in-memory defaults never drift apart.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaults.MustRead("config.yaml")), &cfg); err != nil {
		panic("config: embedded default config is invalid: " + err.Error())
	}
	return cfg
}

// ProjectPath returns the config file path for a project root
func ProjectPath(projectDir string) string {
	return filepath.Join(projectDir, DirName, FileName)
}

// Exists checks if a project config file exists
func Exists(projectDir string) bool {
	_, err := os.Stat(ProjectPath(projectDir))
	return err == nil
}

// Load reads the config at path. Fields missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadProject reads the project config, falling back to defaults when the
// project has none.
func LoadProject(projectDir string) (Config, error) {
	cfg, err := Load(ProjectPath(projectDir))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the config to path, creating parent directories
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the runner depends on
func (c Config) Validate() error {
	if c.Agent.Command == "" {
		return errors.New("agent.command must not be empty")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}
