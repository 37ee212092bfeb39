package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ctxport/internal/store"
	"ctxport/internal/workspace"
)

func noEnv(string) string { return "" }

func newTestServer(t *testing.T, cwd string) *Server {
	t.Helper()
	resolver := workspace.NewResolver(
		workspace.NewSessionStore(0),
		workspace.NewRootsRegistry(),
		&workspace.Detector{Getenv: noEnv},
		workspace.ProcessDefaults{Cwd: cwd, Transport: workspace.TransportStdio},
	)
	stores := store.NewManager()
	t.Cleanup(stores.CloseAll)
	return NewServer(resolver, stores, "test")
}

func normalized(t *testing.T, path string) string {
	t.Helper()
	p, err := workspace.Normalize(path)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGetWorkspaceUsesProcessDefault(t *testing.T) {
	cwd := normalized(t, t.TempDir())
	s := newTestServer(t, cwd)

	_, out, err := s.getWorkspaceHandler(context.Background(), nil, getWorkspaceInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Path != cwd || out.Source != string(workspace.SourceProcess) {
		t.Errorf("got %q via %q", out.Path, out.Source)
	}
}

func TestSetWorkspacePinsSession(t *testing.T) {
	cwd := normalized(t, t.TempDir())
	pinned := normalized(t, t.TempDir())
	s := newTestServer(t, cwd)

	_, set, err := s.setWorkspaceHandler(context.Background(), nil, setWorkspaceInput{Workspace: pinned})
	if err != nil {
		t.Fatal(err)
	}
	if set.Path != pinned {
		t.Errorf("set path = %q", set.Path)
	}

	_, out, err := s.getWorkspaceHandler(context.Background(), nil, getWorkspaceInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Path != pinned || out.Source != string(workspace.SourceExplicit) {
		t.Errorf("after pin got %q via %q", out.Path, out.Source)
	}
}

func TestSetWorkspaceRequiresArgument(t *testing.T) {
	s := newTestServer(t, normalized(t, t.TempDir()))
	if _, _, err := s.setWorkspaceHandler(context.Background(), nil, setWorkspaceInput{}); err == nil {
		t.Error("empty workspace should be rejected")
	}
}

func TestContextToolsRoundTrip(t *testing.T) {
	cwd := normalized(t, t.TempDir())
	s := newTestServer(t, cwd)
	ctx := context.Background()

	_, updated, err := s.updateProductContextHandler(ctx, nil, updateContextInput{
		Content: map[string]any{"goal": "ship"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Workspace != cwd || updated.Content["goal"] != "ship" {
		t.Errorf("update output = %+v", updated)
	}

	_, patched, err := s.updateProductContextHandler(ctx, nil, updateContextInput{
		PatchContent: map[string]any{"goal": store.DeleteSentinel, "phase": "beta"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := patched.Content["goal"]; ok {
		t.Error("deleted key survived")
	}
	if patched.Content["phase"] != "beta" {
		t.Errorf("patched = %v", patched.Content)
	}

	_, got, err := s.getProductContextHandler(ctx, nil, getContextInput{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Content["phase"] != "beta" {
		t.Errorf("reread = %v", got.Content)
	}
}

func TestUpdateContextInputValidation(t *testing.T) {
	both := updateContextInput{Content: map[string]any{}, PatchContent: map[string]any{}}
	if err := both.validate(); err == nil {
		t.Error("content and patch_content together should be rejected")
	}
	if err := (updateContextInput{}).validate(); err == nil {
		t.Error("neither content nor patch_content should be rejected")
	}
}

func TestWorkspaceIDOverrideTargetsOtherStore(t *testing.T) {
	cwd := normalized(t, t.TempDir())
	other := normalized(t, t.TempDir())
	s := newTestServer(t, cwd)
	ctx := context.Background()

	_, _, err := s.updateActiveContextHandler(ctx, nil, updateContextInput{
		WorkspaceID: other,
		Content:     map[string]any{"focus": "billing"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The override is request-scoped but sticks to the session, so a plain
	// read now targets the same workspace.
	_, got, err := s.getActiveContextHandler(ctx, nil, getContextInput{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Workspace != other || got.Content["focus"] != "billing" {
		t.Errorf("got %q content %v", got.Workspace, got.Content)
	}
}

func TestDecisionAndProgressTools(t *testing.T) {
	cwd := normalized(t, t.TempDir())
	s := newTestServer(t, cwd)
	ctx := context.Background()

	_, d, err := s.logDecisionHandler(ctx, nil, logDecisionInput{Summary: "adopt sqlite", Tags: []string{"storage"}})
	if err != nil {
		t.Fatal(err)
	}
	if d.Decision.ID == 0 || d.Workspace != cwd {
		t.Errorf("decision output = %+v", d)
	}
	if _, _, err := s.logDecisionHandler(ctx, nil, logDecisionInput{}); err == nil {
		t.Error("missing summary should be rejected")
	}

	_, list, err := s.getDecisionsHandler(ctx, nil, getDecisionsInput{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Decisions) != 1 || list.Decisions[0].Summary != "adopt sqlite" {
		t.Errorf("decisions = %+v", list.Decisions)
	}

	_, p, err := s.logProgressHandler(ctx, nil, logProgressInput{Status: "TODO", Description: "write docs"})
	if err != nil {
		t.Fatal(err)
	}
	_, upd, err := s.updateProgressHandler(ctx, nil, updateProgressInput{ID: p.Entry.ID, Status: "DONE"})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Entry.Status != "DONE" {
		t.Errorf("updated entry = %+v", upd.Entry)
	}
}

func TestDiagnosticsHandlerReportsDetection(t *testing.T) {
	project := normalized(t, t.TempDir())
	if err := mkdir(project, ".git"); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, project)

	_, out, err := s.diagnosticsHandler(context.Background(), nil, diagnosticsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Root != project || out.Method != string(workspace.MethodStrongIndicator) {
		t.Errorf("diagnostics = %+v", out)
	}
	if out.DepthLimit != workspace.DefaultDepthLimit {
		t.Errorf("depth limit = %d", out.DepthLimit)
	}
}

func TestResolutionErrorSurfacesToCaller(t *testing.T) {
	// HTTP transport with no signal at all: the tool must fail with the
	// remediation-bearing error, not fall back silently.
	resolver := workspace.NewResolver(
		workspace.NewSessionStore(0),
		workspace.NewRootsRegistry(),
		&workspace.Detector{Getenv: noEnv},
		workspace.ProcessDefaults{Transport: workspace.TransportHTTP},
	)
	stores := store.NewManager()
	t.Cleanup(stores.CloseAll)
	s := NewServer(resolver, stores, "test")

	if _, _, err := s.getProductContextHandler(context.Background(), nil, getContextInput{}); err == nil {
		t.Error("want a resolution error with no workspace signal")
	}
}

func mkdir(parent, name string) error {
	return os.MkdirAll(filepath.Join(parent, name), 0o755)
}
