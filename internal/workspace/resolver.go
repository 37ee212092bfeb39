package workspace

import (
	"path/filepath"
	"strings"
	"time"
)

// TransportKind selects which resolution defaults apply: stdio connections
// inherit the server process environment, HTTP requests carry their own
// workspace signals.
type TransportKind int

const (
	TransportStdio TransportKind = iota
	TransportHTTP
)

func (t TransportKind) String() string {
	if t == TransportHTTP {
		return "http"
	}
	return "stdio"
}

// ProcessDefaults is the process-wide launch configuration, set once at
// startup and read-only afterwards.
type ProcessDefaults struct {
	ExplicitArg    string // --workspace launch argument, already validated
	Cwd            string // process working directory
	Transport      TransportKind
	AutoDetect     bool
	DetectionStart string // optional override for where detection begins
}

// Source names which resolution strategy produced a workspace.
type Source string

const (
	SourceRequest    Source = "request"     // per-request header or tool argument
	SourceExplicit   Source = "explicit"    // prior set_workspace on this session
	SourceSession    Source = "session"     // sticky header from an earlier request
	SourceSingleRoot Source = "single-root" // lone declared client root
	SourceProcess    Source = "process"     // launch argument or process cwd
	SourceDetected   Source = "detected"    // filesystem auto-detection
)

// Resolution is one authoritative workspace choice for one request.
type Resolution struct {
	Path   string `json:"path"`
	Source Source `json:"source"`
}

// Event is published after every successful resolution or session mutation,
// for observers on the diagnostic event stream.
type Event struct {
	Time       time.Time `json:"time"`
	SessionKey string    `json:"sessionKey"`
	Path       string    `json:"path"`
	Source     Source    `json:"source"`
}

// EventSink receives resolver events. Publish must not block.
type EventSink interface {
	Publish(Event)
}

// Resolver combines the session store, the declared client roots, the
// detector, and the process defaults into one deterministic workspace choice
// per request. It owns none of its inputs; its only side effects are the two
// session-cache writes the priority hierarchy calls for.
type Resolver struct {
	Sessions *SessionStore
	Roots    *RootsRegistry
	Detector *Detector
	Defaults ProcessDefaults
	Events   EventSink // optional
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(sessions *SessionStore, roots *RootsRegistry, det *Detector, defaults ProcessDefaults) *Resolver {
	return &Resolver{Sessions: sessions, Roots: roots, Detector: det, Defaults: defaults}
}

// stepInput is the full, explicit input of one resolution strategy. Steps are
// pure with respect to it (plus bounded filesystem existence checks); the
// resolver performs any caching their outcome calls for.
type stepInput struct {
	State    SessionState
	Roots    []RootDeclaration
	Defaults ProcessDefaults
	Override string
	Detect   func(string) (DetectionResult, error)
}

// stepFunc returns a resolution, "no opinion" (ok=false), or a terminal
// error.
type stepFunc func(in stepInput) (res Resolution, ok bool, err error)

type resolveStep struct {
	name string
	eval stepFunc
}

// steps is the priority hierarchy, most specific first. Order is load-bearing
// and covered by tests per strategy.
var steps = []resolveStep{
	{"request-override", stepRequestOverride},
	{"session-explicit", stepSessionExplicit},
	{"session-header", stepSessionHeader},
	{"single-root", stepSingleRoot},
	{"process-default", stepProcessDefault},
	{"ambiguous-roots", stepAmbiguousRoots},
}

// Resolve produces the workspace for one request. override is the
// request-scoped signal (transport header value or workspace_id tool
// argument), empty when absent.
func (r *Resolver) Resolve(sessionKey, override string) (Resolution, error) {
	in := stepInput{
		State:    r.Sessions.Get(sessionKey),
		Roots:    r.Roots.All(),
		Defaults: r.Defaults,
		Override: override,
		Detect:   r.Detector.Detect,
	}

	for _, step := range steps {
		res, ok, err := step.eval(in)
		if err != nil {
			return Resolution{}, err
		}
		if !ok {
			continue
		}
		switch res.Source {
		case SourceRequest:
			// Request-scoped signals stick to the session.
			r.Sessions.RecordHeaderWorkspace(sessionKey, res.Path)
		case SourceSingleRoot:
			r.Sessions.SetExplicitIfUnset(sessionKey, res.Path)
		}
		r.publish(sessionKey, res)
		return res, nil
	}
	return Resolution{}, &NoWorkspaceAvailableError{AutoDetect: r.Defaults.AutoDetect}
}

// SetExplicit validates and records an explicit workspace for the session,
// enforcing the declared-roots boundary.
func (r *Resolver) SetExplicit(sessionKey, identifier string) (string, error) {
	path, err := Normalize(identifier)
	if err != nil {
		return "", err
	}
	if err := checkAgainstRoots(path, r.Roots.All()); err != nil {
		return "", err
	}
	r.Sessions.SetExplicitWorkspace(sessionKey, path)
	r.publish(sessionKey, Resolution{Path: path, Source: SourceExplicit})
	return path, nil
}

func (r *Resolver) publish(sessionKey string, res Resolution) {
	if r.Events != nil {
		r.Events.Publish(Event{Time: time.Now(), SessionKey: sessionKey, Path: res.Path, Source: res.Source})
	}
}

// Diagnosis reports what detection would decide for a start point, and why.
// Producing one never mutates resolver state.
type Diagnosis struct {
	Start      string            `json:"start"`
	Result     DetectionResult   `json:"result"`
	Hints      map[string]string `json:"hints,omitempty"`
	DepthLimit int               `json:"depthLimit"`
}

// Diagnose runs detection from start (the process default when empty) and
// reports the outcome together with the environment hints in effect.
func (r *Resolver) Diagnose(start string) (Diagnosis, error) {
	if start == "" {
		start = r.Defaults.DetectionStart
	}
	if start == "" {
		start = r.Defaults.Cwd
	}
	result, err := r.Detector.Detect(start)
	if err != nil {
		return Diagnosis{}, err
	}
	return Diagnosis{
		Start:      start,
		Result:     result,
		Hints:      r.Detector.Hints(),
		DepthLimit: r.Detector.depthLimit(),
	}, nil
}

func stepRequestOverride(in stepInput) (Resolution, bool, error) {
	if in.Override == "" {
		return Resolution{}, false, nil
	}
	path, err := Normalize(in.Override)
	if err != nil {
		return Resolution{}, false, err
	}
	if err := checkAgainstRoots(path, in.Roots); err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Path: path, Source: SourceRequest}, true, nil
}

func stepSessionExplicit(in stepInput) (Resolution, bool, error) {
	if in.State.ExplicitWorkspace == "" {
		return Resolution{}, false, nil
	}
	// Re-validate: the directory may have vanished since it was recorded.
	path, err := Normalize(in.State.ExplicitWorkspace)
	if err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Path: path, Source: SourceExplicit}, true, nil
}

func stepSessionHeader(in stepInput) (Resolution, bool, error) {
	if in.State.HeaderWorkspace == "" {
		return Resolution{}, false, nil
	}
	path, err := Normalize(in.State.HeaderWorkspace)
	if err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Path: path, Source: SourceSession}, true, nil
}

func stepSingleRoot(in stepInput) (Resolution, bool, error) {
	if len(in.Roots) != 1 || in.State.ExplicitWorkspace != "" {
		return Resolution{}, false, nil
	}
	path, err := Normalize(in.Roots[0].URI)
	if err != nil {
		return Resolution{}, false, err
	}
	return Resolution{Path: path, Source: SourceSingleRoot}, true, nil
}

func stepProcessDefault(in stepInput) (Resolution, bool, error) {
	if in.Defaults.Transport != TransportStdio {
		return Resolution{}, false, nil
	}
	if in.Defaults.ExplicitArg != "" {
		path, err := Normalize(in.Defaults.ExplicitArg)
		if err != nil {
			return Resolution{}, false, err
		}
		return Resolution{Path: path, Source: SourceProcess}, true, nil
	}
	if in.Defaults.AutoDetect {
		start := in.Defaults.DetectionStart
		if start == "" {
			start = in.Defaults.Cwd
		}
		if start != "" {
			result, err := in.Detect(start)
			if err != nil {
				return Resolution{}, false, err
			}
			return Resolution{Path: result.Root, Source: SourceDetected}, true, nil
		}
	}
	if in.Defaults.Cwd != "" {
		path, err := Normalize(in.Defaults.Cwd)
		if err != nil {
			return Resolution{}, false, err
		}
		return Resolution{Path: path, Source: SourceProcess}, true, nil
	}
	return Resolution{}, false, nil
}

func stepAmbiguousRoots(in stepInput) (Resolution, bool, error) {
	if len(in.Roots) <= 1 {
		return Resolution{}, false, nil
	}
	names := make([]string, len(in.Roots))
	for i, d := range in.Roots {
		names[i] = d.DisplayName()
	}
	return Resolution{}, false, &AmbiguousWorkspaceError{Candidates: names}
}

// checkAgainstRoots rejects a path outside every declared root. An empty
// declaration set imposes no boundary.
func checkAgainstRoots(path string, roots []RootDeclaration) error {
	if len(roots) == 0 {
		return nil
	}
	declared := make([]string, 0, len(roots))
	for _, d := range roots {
		root, err := Normalize(d.URI)
		if err != nil {
			continue // an undecodable root cannot admit anything
		}
		declared = append(declared, root)
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return nil
		}
	}
	return &RootsMismatchError{Path: path, Roots: declared}
}
