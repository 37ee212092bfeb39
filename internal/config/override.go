package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OverrideFile is the optional per-workspace settings file.
const OverrideFile = ".ctxport.yaml"

// WorkspaceOverride carries per-workspace detection settings read from a
// .ctxport.yaml in the workspace (or detection start) directory.
type WorkspaceOverride struct {
	// Name is a display name for the workspace, used in diagnostics.
	Name string `yaml:"name,omitempty"`
	// Indicators are extra project-root markers, treated as strong.
	Indicators []string `yaml:"indicators,omitempty"`
	// SearchDepth overrides the ancestor-walk limit for this workspace.
	SearchDepth int `yaml:"searchDepth,omitempty"`
}

// LoadOverride reads dir/.ctxport.yaml. A missing file is not an error; it
// returns (nil, nil).
func LoadOverride(dir string) (*WorkspaceOverride, error) {
	path := filepath.Join(dir, OverrideFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ov WorkspaceOverride
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ov, nil
}
