package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ctxport/internal/config"
	"ctxport/internal/httpserver"
	mcpserver "ctxport/internal/mcp"
	"ctxport/internal/store"
	"ctxport/internal/ui"
	"ctxport/internal/workspace"
)

// ServeOptions are the `ctxport serve` flags.
type ServeOptions struct {
	Workspace    string
	HTTPBind     string
	NoAutoDetect bool
	Depth        int
	DetectFrom   string
}

// RunServe is the single entry point for `ctxport serve`.
//
// Always starts (single port :7331):
//   - HTTP server with the streamable MCP transport at /mcp
//   - WebSocket resolution-event stream at /events
//   - stdio MCP when stdin is a pipe (e.g. spawned by an IDE)
func RunServe(opts ServeOptions) {
	// Detect whether we were spawned with a pipe on stdin (IDE MCP mode).
	stdioMCP := isStdinPipe()

	// When stdio MCP is active, redirect all log/print output to stderr so we
	// don't corrupt the JSON-RPC stream on stdout.
	var out io.Writer = os.Stdout
	if stdioMCP {
		out = os.Stderr
		log.SetOutput(os.Stderr)
	}

	// ── Config & auth token ───────────────────────────────────────────────────
	cfg, err := config.LoadConfig()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}
	if len(cfg.HTTPTokens) == 0 {
		token, err := generateToken()
		if err != nil {
			ui.ShowError("Failed to generate token", err)
			os.Exit(1)
		}
		cfg.HTTPTokens = []string{token}
		if saveErr := config.SaveConfig(cfg); saveErr != nil {
			fmt.Fprintf(os.Stderr, "[warn] could not save generated token: %v\n", saveErr)
		}
		fmt.Fprintf(out, "Generated token: %s\n", token)
		fmt.Fprintf(out, "(saved to ~/.ctxport/config.json — pass it as 'Authorization: Bearer <token>')\n")
	}

	if opts.Depth > 0 {
		cfg.SearchDepth = opts.Depth
	}

	httpAddr := opts.HTTPBind
	if httpAddr == "" {
		httpAddr = cfg.HTTPBind
	}
	if httpAddr == "" {
		httpAddr = ":7331"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ── Workspace resolution wiring ───────────────────────────────────────────
	cwd, err := os.Getwd()
	if err != nil {
		ui.ShowError("Cannot determine working directory", err)
		os.Exit(1)
	}

	explicitArg := resolveLaunchArg(opts.Workspace, cfg, out)
	warnServerOwnRoot(explicitArg, out)

	defaults := workspace.ProcessDefaults{
		ExplicitArg:    explicitArg,
		Cwd:            cwd,
		AutoDetect:     cfg.AutoDetectEnabled() && !opts.NoAutoDetect,
		DetectionStart: opts.DetectFrom,
	}
	sessions := workspace.NewSessionStore(cfg.MaxSessions)
	roots := workspace.NewRootsRegistry()
	detector := buildDetector(cfg, cwd)
	stores := store.NewManager()
	defer stores.CloseAll()

	// stdio and HTTP clients carry different default hierarchies but share the
	// session, roots and store state.
	stdioDefaults := defaults
	stdioDefaults.Transport = workspace.TransportStdio
	httpDefaults := defaults
	httpDefaults.Transport = workspace.TransportHTTP

	stdioResolver := workspace.NewResolver(sessions, roots, detector, stdioDefaults)
	httpResolver := workspace.NewResolver(sessions, roots, detector, httpDefaults)

	stdioMCPServer := mcpserver.NewServer(stdioResolver, stores, Version)
	httpMCPServer := mcpserver.NewServer(httpResolver, stores, Version)

	// ── HTTP server + event stream (goroutine) ────────────────────────────────
	fmt.Fprintf(out, "HTTP + MCP server listening on %s\n", httpAddr)
	httpServer := httpserver.NewHTTPServer(cfg.HTTPTokens, Version, sessions, httpMCPServer.HTTPHandler())
	stdioResolver.Events = httpServer.Hub()
	httpResolver.Events = httpServer.Hub()
	go func() {
		if err := httpServer.ListenAndServe(httpAddr); err != nil && err.Error() != "http: Server closed" {
			fmt.Fprintf(os.Stderr, "[http] error: %v\n", err)
		}
	}()

	// ── stdio MCP (blocking) or wait for signal ───────────────────────────────
	if stdioMCP {
		// Stdout is now exclusively for the MCP JSON-RPC protocol.
		if err := stdioMCPServer.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "[mcp-stdio] error: %v\n", err)
			os.Exit(1)
		}
	} else {
		<-ctx.Done()
		fmt.Fprintf(out, "\nShutting down...\n")
	}
}

// resolveLaunchArg picks the explicit stdio workspace: the --workspace flag
// first, then the configured default. IDE launch configs sometimes pass
// template variables verbatim; those are warned about and dropped rather than
// treated as paths.
func resolveLaunchArg(workspaceArg string, cfg *config.Config, out io.Writer) string {
	arg := workspaceArg
	if arg == "" {
		arg = cfg.DefaultWorkspace
	}
	if arg == "" {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(arg), "${") {
		fmt.Fprintf(out, "[warn] workspace argument %q looks like an unexpanded IDE variable; ignoring it\n", arg)
		return ""
	}
	path, err := workspace.Normalize(arg)
	if err != nil {
		fmt.Fprintf(out, "[warn] workspace argument rejected: %v\n", err)
		return ""
	}
	return path
}

// warnServerOwnRoot flags the common misconfiguration of pointing the
// workspace at the server's own installation directory.
func warnServerOwnRoot(path string, out io.Writer) {
	if path == "" {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	if filepath.Dir(exe) == path {
		fmt.Fprintf(out, "[warn] workspace %q is the server's own directory; this is usually a client misconfiguration\n", path)
	}
}

// buildDetector assembles the detector from the config plus any .ctxport.yaml
// override found at the working directory.
func buildDetector(cfg *config.Config, cwd string) *workspace.Detector {
	det := &workspace.Detector{DepthLimit: cfg.SearchDepth}

	ov, err := config.LoadOverride(cwd)
	if err != nil {
		log.Printf("[config] ignoring workspace override: %v", err)
		return det
	}
	if ov == nil {
		return det
	}
	if len(ov.Indicators) > 0 {
		indicators := append([]workspace.Indicator{}, workspace.DefaultIndicators...)
		for _, name := range ov.Indicators {
			indicators = append(indicators, workspace.Indicator{Name: name, Strong: true})
		}
		det.Indicators = indicators
	}
	if ov.SearchDepth > 0 {
		det.DepthLimit = ov.SearchDepth
	}
	return det
}

// isStdinPipe returns true when stdin is a pipe or file (not a terminal),
// i.e. ctxport was spawned by another process feeding it data.
func isStdinPipe() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// generateToken returns a random 32-byte hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
