package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"ctxport/internal/store"
	"ctxport/internal/workspace"
)

// storeFor resolves the workspace for a session (honoring a per-call
// workspace_id override) and returns its context database.
func (s *Server) storeFor(key, override string) (*store.DB, workspace.Resolution, error) {
	res, err := s.resolver.Resolve(key, override)
	if err != nil {
		return nil, workspace.Resolution{}, err
	}
	db, err := s.stores.ForWorkspace(res.Path)
	if err != nil {
		return nil, workspace.Resolution{}, err
	}
	return db, res, nil
}

// get_workspace

type getWorkspaceInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
}

type getWorkspaceOutput struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

func (s *Server) getWorkspaceHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input getWorkspaceInput) (*mcpsdk.CallToolResult, getWorkspaceOutput, error) {
	res, err := s.resolver.Resolve(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getWorkspaceOutput{}, err
	}
	return nil, getWorkspaceOutput{Path: res.Path, Source: string(res.Source)}, nil
}

// set_workspace

type setWorkspaceInput struct {
	Workspace string `json:"workspace" jsonschema:"Workspace directory path or file URI to pin for this session"`
}

type setWorkspaceOutput struct {
	Path string `json:"path"`
}

func (s *Server) setWorkspaceHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input setWorkspaceInput) (*mcpsdk.CallToolResult, setWorkspaceOutput, error) {
	if input.Workspace == "" {
		return nil, setWorkspaceOutput{}, fmt.Errorf("workspace is required")
	}
	path, err := s.resolver.SetExplicit(sessionKey(req), input.Workspace)
	if err != nil {
		return nil, setWorkspaceOutput{}, err
	}
	return nil, setWorkspaceOutput{Path: path}, nil
}

// workspace_diagnostics

type diagnosticsInput struct {
	Start string `json:"start,omitempty" jsonschema:"Directory to start detection from; defaults to the server working directory"`
}

type diagnosticsOutput struct {
	Start      string            `json:"start"`
	Root       string            `json:"root"`
	Method     string            `json:"method"`
	Evidence   []string          `json:"evidence,omitempty"`
	Hints      map[string]string `json:"hints,omitempty"`
	DepthLimit int               `json:"depthLimit"`
}

func (s *Server) diagnosticsHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input diagnosticsInput) (*mcpsdk.CallToolResult, diagnosticsOutput, error) {
	diag, err := s.resolver.Diagnose(input.Start)
	if err != nil {
		return nil, diagnosticsOutput{}, err
	}
	return nil, diagnosticsOutput{
		Start:      diag.Start,
		Root:       diag.Result.Root,
		Method:     string(diag.Result.Method),
		Evidence:   diag.Result.Evidence,
		Hints:      diag.Hints,
		DepthLimit: diag.DepthLimit,
	}, nil
}
