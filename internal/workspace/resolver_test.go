package workspace

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestResolver(t *testing.T, defaults ProcessDefaults) *Resolver {
	t.Helper()
	return NewResolver(NewSessionStore(0), NewRootsRegistry(), &Detector{Getenv: noEnv}, defaults)
}

func TestResolveStdioFallsBackToCwd(t *testing.T) {
	// Connection-oriented transport, no roots, no explicit or header signal:
	// the process cwd is the workspace.
	cwd := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Cwd: cwd, Transport: TransportStdio})

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != cwd || res.Source != SourceProcess {
		t.Errorf("got %q via %q, want %q via %q", res.Path, res.Source, cwd, SourceProcess)
	}
}

func TestResolveRequestOverrideSticks(t *testing.T) {
	// Request-scoped transport: a file:// override resolves and later
	// requests on the same session inherit it without repeating the header.
	dir := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})

	res, err := r.Resolve("s1", "file://"+dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != dir || res.Source != SourceRequest {
		t.Errorf("got %q via %q, want %q via %q", res.Path, res.Source, dir, SourceRequest)
	}

	again, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Path != dir || again.Source != SourceSession {
		t.Errorf("sticky resolve = %q via %q, want %q via %q", again.Path, again.Source, dir, SourceSession)
	}
}

func TestResolveExplicitDominatesHeader(t *testing.T) {
	explicit := mustNormalize(t, t.TempDir())
	header := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})

	r.Sessions.RecordHeaderWorkspace("s1", header)
	if _, err := r.SetExplicit("s1", explicit); err != nil {
		t.Fatal(err)
	}

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != explicit || res.Source != SourceExplicit {
		t.Errorf("got %q via %q, want explicit %q", res.Path, res.Source, explicit)
	}
}

func TestResolveFreshOverrideBeatsStoredExplicit(t *testing.T) {
	// A signal on the request itself is the most current client intent.
	stored := mustNormalize(t, t.TempDir())
	fresh := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	if _, err := r.SetExplicit("s1", stored); err != nil {
		t.Fatal(err)
	}

	res, err := r.Resolve("s1", fresh)
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != fresh || res.Source != SourceRequest {
		t.Errorf("got %q via %q, want fresh override %q", res.Path, res.Source, fresh)
	}
}

func TestResolveSingleRootAdoption(t *testing.T) {
	root := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	r.Roots.SetRoots([]RootDeclaration{{URI: "file://" + root, Name: "only"}})

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != root || res.Source != SourceSingleRoot {
		t.Errorf("got %q via %q, want %q via %q", res.Path, res.Source, root, SourceSingleRoot)
	}
	if got := r.Sessions.Get("s1").ExplicitWorkspace; got != root {
		t.Errorf("adoption not cached: ExplicitWorkspace = %q", got)
	}

	// The second resolve reads the cached session value, not the registry.
	again, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Path != root || again.Source != SourceExplicit {
		t.Errorf("second resolve = %q via %q, want %q via %q", again.Path, again.Source, root, SourceExplicit)
	}
}

func TestResolveAmbiguousRootsEnumeratesNames(t *testing.T) {
	a := mustNormalize(t, t.TempDir())
	b := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	r.Roots.SetRoots([]RootDeclaration{
		{URI: "file://" + a, Name: "alpha"},
		{URI: "file://" + b}, // unnamed: falls back to the URI
	})

	_, err := r.Resolve("s1", "")
	var ambiguous *AmbiguousWorkspaceError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want AmbiguousWorkspaceError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 || ambiguous.Candidates[0] != "alpha" || ambiguous.Candidates[1] != "file://"+b {
		t.Errorf("candidates = %v", ambiguous.Candidates)
	}
	if !strings.Contains(err.Error(), "alpha") {
		t.Errorf("error text should enumerate candidates: %v", err)
	}
}

func TestResolveNoSignalAtAll(t *testing.T) {
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	_, err := r.Resolve("s1", "")
	var none *NoWorkspaceAvailableError
	if !errors.As(err, &none) {
		t.Fatalf("want NoWorkspaceAvailableError, got %v", err)
	}
}

func TestResolveRootsMismatchRejected(t *testing.T) {
	root := mustNormalize(t, t.TempDir())
	outside := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	r.Roots.SetRoots([]RootDeclaration{
		{URI: "file://" + root, Name: "a"},
		{URI: "file://" + root, Name: "b"}, // two roots so single-root adoption stays out
	})

	_, err := r.Resolve("s1", outside)
	var mismatch *RootsMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want RootsMismatchError, got %v", err)
	}

	if _, err := r.SetExplicit("s1", outside); err == nil {
		t.Fatal("SetExplicit outside declared roots must be rejected")
	}
}

func TestResolveOverrideInsideRootsAccepted(t *testing.T) {
	root := mustNormalize(t, t.TempDir())
	sub := mkdirAll(t, filepath.Join(root, "nested"))
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	r.Roots.SetRoots([]RootDeclaration{{URI: "file://" + root, Name: "a"}, {URI: "file://" + root, Name: "b"}})

	res, err := r.Resolve("s1", sub)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustNormalize(t, sub); res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}
}

func TestResolveStdioExplicitArgWins(t *testing.T) {
	arg := mustNormalize(t, t.TempDir())
	cwd := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{ExplicitArg: arg, Cwd: cwd, Transport: TransportStdio})

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != arg || res.Source != SourceProcess {
		t.Errorf("got %q via %q, want launch arg %q", res.Path, res.Source, arg)
	}
}

func TestResolveStdioAutoDetect(t *testing.T) {
	project := mustNormalize(t, t.TempDir())
	mkdirAll(t, filepath.Join(project, ".git"))
	start := mkdirAll(t, filepath.Join(project, "src", "pkg"))
	r := newTestResolver(t, ProcessDefaults{Cwd: start, Transport: TransportStdio, AutoDetect: true})

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != project || res.Source != SourceDetected {
		t.Errorf("got %q via %q, want detected %q", res.Path, res.Source, project)
	}
}

func TestResolveInvalidOverride(t *testing.T) {
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})
	_, err := r.Resolve("s1", "ftp://host/x")
	var invalid *InvalidIdentifierError
	if !errors.As(err, &invalid) {
		t.Fatalf("want InvalidIdentifierError, got %v", err)
	}
}

func TestResolveConcurrentSameSession(t *testing.T) {
	a := mustNormalize(t, t.TempDir())
	b := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Transport: TransportHTTP})

	var wg sync.WaitGroup
	for _, ws := range []string{a, b} {
		wg.Add(1)
		go func(ws string) {
			defer wg.Done()
			if _, err := r.SetExplicit("s1", ws); err != nil {
				t.Errorf("SetExplicit(%q): %v", ws, err)
			}
		}(ws)
	}
	wg.Wait()

	res, err := r.Resolve("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != a && res.Path != b {
		t.Errorf("resolved %q, want one of the two concurrently set values", res.Path)
	}
	if got := r.Sessions.Get("s1").ExplicitWorkspace; got != res.Path {
		t.Errorf("resolve disagrees with surviving session value: %q vs %q", res.Path, got)
	}
}

func TestDiagnoseDoesNotMutateState(t *testing.T) {
	project := mustNormalize(t, t.TempDir())
	mkdirAll(t, filepath.Join(project, ".git"))
	r := newTestResolver(t, ProcessDefaults{Cwd: project, Transport: TransportStdio})

	diag, err := r.Diagnose("")
	if err != nil {
		t.Fatal(err)
	}
	if diag.Result.Root != project || diag.Result.Method != MethodStrongIndicator {
		t.Errorf("diagnosis = %+v", diag.Result)
	}
	if r.Sessions.Len() != 0 {
		t.Error("Diagnose created session state")
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func TestResolvePublishesEvents(t *testing.T) {
	cwd := mustNormalize(t, t.TempDir())
	r := newTestResolver(t, ProcessDefaults{Cwd: cwd, Transport: TransportStdio})
	sink := &captureSink{}
	r.Events = sink

	if _, err := r.Resolve("s1", ""); err != nil {
		t.Fatal(err)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0].Path != cwd || sink.events[0].SessionKey != "s1" {
		t.Errorf("events = %+v", sink.events)
	}
}
