package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Config is the process-wide configuration at ~/.ctxport/config.json.
type Config struct {
	HTTPBind    string   `json:"httpBind,omitempty"`
	HTTPTokens  []string `json:"httpTokens,omitempty"`
	AutoDetect  *bool    `json:"autoDetect,omitempty"`  // nil means enabled
	SearchDepth int      `json:"searchDepth,omitempty"` // 0 means the detector default
	MaxSessions int      `json:"maxSessions,omitempty"` // 0 means the store default

	// DefaultWorkspace is the fallback workspace for stdio connections when
	// no --workspace launch argument is given, typically written by the
	// picker.
	DefaultWorkspace string `json:"defaultWorkspace,omitempty"`

	// Workspaces maps aliases to directory paths.
	Workspaces map[string]string `json:"workspaces,omitempty"`
}

// ConfigPath is the config file location, overridable in tests.
var ConfigPath string

func init() {
	homeDir, _ := os.UserHomeDir()
	ConfigPath = filepath.Join(homeDir, ".ctxport", "config.json")
}

// LoadConfig reads the config file. A missing file yields an empty config.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(ConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigPath, err)
	}
	return &cfg, nil
}

// SaveConfig writes the config file, creating its directory if needed.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(ConfigPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath, data, 0o644)
}

// AutoDetectEnabled reports whether filesystem auto-detection is on.
// Enabled unless explicitly disabled.
func (c *Config) AutoDetectEnabled() bool {
	return c.AutoDetect == nil || *c.AutoDetect
}

// AddWorkspace registers an alias for a directory path.
func AddWorkspace(name, path string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]string)
	}
	if _, exists := cfg.Workspaces[name]; exists {
		return fmt.Errorf("workspace alias %q already exists", name)
	}
	cfg.Workspaces[name] = path
	return SaveConfig(cfg)
}

// RemoveWorkspace drops an alias.
func RemoveWorkspace(name string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if _, exists := cfg.Workspaces[name]; !exists {
		return fmt.Errorf("workspace alias %q not found", name)
	}
	delete(cfg.Workspaces, name)
	return SaveConfig(cfg)
}

// WorkspaceEntry is one alias row for listing.
type WorkspaceEntry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ListWorkspaces returns the configured aliases sorted by name.
func ListWorkspaces() ([]WorkspaceEntry, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cfg.Workspaces))
	for name := range cfg.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]WorkspaceEntry, 0, len(names))
	for _, name := range names {
		path := cfg.Workspaces[name]
		info, err := os.Stat(path)
		entries = append(entries, WorkspaceEntry{
			Name:   name,
			Path:   path,
			Exists: err == nil && info.IsDir(),
		})
	}
	return entries, nil
}
