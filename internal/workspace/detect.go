package workspace

import (
	"os"
	"path/filepath"
)

// MarkerDir is the fixed subdirectory the context store keeps inside a
// workspace. Its presence marks a directory that has been used as a workspace
// before, which outranks any manifest heuristic.
const MarkerDir = "context_portal"

// DefaultDepthLimit bounds how many ancestor directories Detect examines.
const DefaultDepthLimit = 10

// Method describes how a detection call arrived at its root.
type Method string

const (
	MethodExplicit           Method = "explicit"
	MethodSingleRoot         Method = "singleRoot"
	MethodStrongIndicator    Method = "strongIndicator"
	MethodMultipleIndicators Method = "multipleIndicators"
	MethodExistingMarker     Method = "existingMarker"
	MethodEnvironmentHint    Method = "environmentHint"
	MethodCwdFallback        Method = "cwdFallback"
)

// Indicator is one entry in the ranked project-root marker table. A strong
// indicator identifies a root on its own; weak indicators only count when two
// or more appear in the same directory.
type Indicator struct {
	Name   string
	Strong bool
}

// DefaultIndicators is the built-in marker table. Version-control directories
// are strong; language manifests are weak.
var DefaultIndicators = []Indicator{
	{Name: ".git", Strong: true},
	{Name: ".hg", Strong: true},
	{Name: ".svn", Strong: true},
	{Name: "go.mod"},
	{Name: "package.json"},
	{Name: "pyproject.toml"},
	{Name: "Cargo.toml"},
	{Name: "pom.xml"},
	{Name: "build.gradle"},
	{Name: "requirements.txt"},
	{Name: "Gemfile"},
	{Name: "composer.json"},
}

// Environment variables consulted before any filesystem walking.
const (
	EnvWorkspace       = "CTXPORT_WORKSPACE"
	EnvWorkspaceFolder = "WORKSPACE_FOLDER_PATHS"
)

// DetectionResult is the outcome of one detection call. It is reproducible
// given identical filesystem state and never persisted.
type DetectionResult struct {
	Root     string   `json:"root"`
	Method   Method   `json:"method"`
	Evidence []string `json:"evidence,omitempty"`
}

// Detector walks ancestor directories from a start path looking for a project
// root. Zero-value fields fall back to the package defaults; Getenv is
// injectable so tests can supply deterministic hints.
type Detector struct {
	Indicators []Indicator
	DepthLimit int
	Getenv     func(string) string
}

func (d *Detector) indicators() []Indicator {
	if len(d.Indicators) > 0 {
		return d.Indicators
	}
	return DefaultIndicators
}

func (d *Detector) depthLimit() int {
	if d.DepthLimit > 0 {
		return d.DepthLimit
	}
	return DefaultDepthLimit
}

func (d *Detector) getenv(key string) string {
	if d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

// Detect finds the project root for start. Environment hints win over any
// filesystem walk; otherwise ancestors are examined up to the depth limit.
// Detection never fails outright once start itself is valid — with no usable
// indicator it degrades to start with MethodCwdFallback.
func (d *Detector) Detect(start string) (DetectionResult, error) {
	if hint, name := d.envHint(); hint != "" {
		return DetectionResult{Root: hint, Method: MethodEnvironmentHint, Evidence: []string{name}}, nil
	}

	root, err := Normalize(start)
	if err != nil {
		return DetectionResult{}, err
	}

	dir := root
	for depth := 0; depth < d.depthLimit(); depth++ {
		if res, ok := d.examine(dir); ok {
			return res, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return DetectionResult{Root: root, Method: MethodCwdFallback}, nil
}

// examine checks a single directory's immediate children against the marker
// table. It never descends into subdirectories.
func (d *Detector) examine(dir string) (DetectionResult, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return DetectionResult{}, false
	}
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		present[e.Name()] = true
	}

	if present[MarkerDir] {
		return DetectionResult{Root: dir, Method: MethodExistingMarker, Evidence: []string{MarkerDir}}, true
	}

	var weak []string
	for _, ind := range d.indicators() {
		if !present[ind.Name] {
			continue
		}
		if ind.Strong {
			return DetectionResult{Root: dir, Method: MethodStrongIndicator, Evidence: []string{ind.Name}}, true
		}
		weak = append(weak, ind.Name)
	}
	// A single manifest is too thin on its own; two or more agreeing weak
	// indicators are as good as a strong one.
	if len(weak) >= 2 {
		return DetectionResult{Root: dir, Method: MethodMultipleIndicators, Evidence: weak}, true
	}
	return DetectionResult{}, false
}

// envHint returns the first valid environment-provided workspace, plus the
// variable it came from. Invalid values are ignored, not fatal.
func (d *Detector) envHint() (string, string) {
	if v := d.getenv(EnvWorkspace); v != "" {
		if p, err := Normalize(v); err == nil {
			return p, EnvWorkspace
		}
	}
	if v := d.getenv(EnvWorkspaceFolder); v != "" {
		for _, candidate := range filepath.SplitList(v) {
			if p, err := Normalize(candidate); err == nil {
				return p, EnvWorkspaceFolder
			}
		}
	}
	return "", ""
}

// Hints reports the raw values of the hint variables, for diagnostics.
func (d *Detector) Hints() map[string]string {
	hints := make(map[string]string, 2)
	for _, key := range []string{EnvWorkspace, EnvWorkspaceFolder} {
		if v := d.getenv(key); v != "" {
			hints[key] = v
		}
	}
	return hints
}
