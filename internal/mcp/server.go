package mcpserver

import (
	"context"
	"log"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"ctxport/internal/store"
	"ctxport/internal/workspace"
)

// Server binds the MCP tool surface to the workspace resolver and the
// per-workspace context stores.
type Server struct {
	resolver *workspace.Resolver
	stores   *store.Manager
	mcp      *mcpsdk.Server
}

// NewServer builds the MCP server and registers all tools. Client root
// declarations are pulled into the resolver's registry on initialization and
// whenever the client announces a change.
func NewServer(resolver *workspace.Resolver, stores *store.Manager, version string) *Server {
	s := &Server{resolver: resolver, stores: stores}

	s.mcp = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "ctxport",
			Version: version,
		},
		&mcpsdk.ServerOptions{
			InitializedHandler: func(ctx context.Context, req *mcpsdk.InitializedRequest) {
				s.refreshRoots(ctx, req.Session)
			},
			RootsListChangedHandler: func(ctx context.Context, req *mcpsdk.RootsListChangedRequest) {
				s.refreshRoots(ctx, req.Session)
			},
		},
	)

	s.registerTools()
	return s
}

// refreshRoots replaces the declared-roots registry with the client's current
// list. Clients without the roots capability are fine; the registry just
// stays empty.
func (s *Server) refreshRoots(ctx context.Context, session *mcpsdk.ServerSession) {
	result, err := session.ListRoots(ctx, &mcpsdk.ListRootsParams{})
	if err != nil {
		log.Printf("[mcp] roots/list failed: %v", err)
		return
	}
	decls := make([]workspace.RootDeclaration, 0, len(result.Roots))
	for _, root := range result.Roots {
		decls = append(decls, workspace.RootDeclaration{URI: root.URI, Name: root.Name})
	}
	s.resolver.Roots.SetRoots(decls)
	log.Printf("[mcp] client declared %d root(s)", len(decls))
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_workspace",
		Description: "Resolve and return the workspace directory in effect for this session",
	}, s.getWorkspaceHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "set_workspace",
		Description: "Pin an explicit workspace directory for this session",
	}, s.setWorkspaceHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "workspace_diagnostics",
		Description: "Explain what workspace auto-detection would decide and why, without changing anything",
	}, s.diagnosticsHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_product_context",
		Description: "Get the long-lived project description document for the workspace",
	}, s.getProductContextHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_product_context",
		Description: "Replace or patch the project description document; a __DELETE__ value removes a key",
	}, s.updateProductContextHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_active_context",
		Description: "Get the current-session focus document for the workspace",
	}, s.getActiveContextHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_active_context",
		Description: "Replace or patch the current-session focus document; a __DELETE__ value removes a key",
	}, s.updateActiveContextHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "log_decision",
		Description: "Record an architectural or implementation decision for the workspace",
	}, s.logDecisionHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_decisions",
		Description: "List recorded decisions for the workspace, newest first",
	}, s.getDecisionsHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "log_progress",
		Description: "Record a task progress entry for the workspace",
	}, s.logProgressHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_progress",
		Description: "Update the status of an existing progress entry",
	}, s.updateProgressHandler)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_progress",
		Description: "List progress entries for the workspace, newest first",
	}, s.getProgressHandler)
}

// Run serves a single stdio connection until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcpsdk.StdioTransport{})
}

// HTTPHandler exposes the server over the streamable HTTP transport. All
// requests share one tool surface; per-session state lives in the resolver's
// session store keyed by the transport session id.
func (s *Server) HTTPHandler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.mcp
	}, nil)
}

// stdioSessionKey keys session state for transports that carry no session id.
const stdioSessionKey = "stdio"

// sessionKey extracts the stable per-connection key used by the session
// store.
func sessionKey(req *mcpsdk.CallToolRequest) string {
	if req != nil && req.Session != nil {
		if id := req.Session.ID(); id != "" {
			return id
		}
	}
	return stdioSessionKey
}
