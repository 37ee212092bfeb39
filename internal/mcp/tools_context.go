package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"ctxport/internal/store"
)

// get_product_context

type getContextInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
}

type getContextOutput struct {
	Workspace string         `json:"workspace"`
	Content   map[string]any `json:"content"`
}

func (s *Server) getProductContextHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input getContextInput) (*mcpsdk.CallToolResult, getContextOutput, error) {
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	content, err := db.GetProductContext(ctx)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	return nil, getContextOutput{Workspace: res.Path, Content: content}, nil
}

// update_product_context

type updateContextInput struct {
	WorkspaceID  string         `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	Content      map[string]any `json:"content,omitempty" jsonschema:"Full replacement document; mutually exclusive with patch_content"`
	PatchContent map[string]any `json:"patch_content,omitempty" jsonschema:"Keys to merge into the document; a __DELETE__ value removes the key"`
}

func (in updateContextInput) validate() error {
	if in.Content != nil && in.PatchContent != nil {
		return fmt.Errorf("content and patch_content are mutually exclusive")
	}
	if in.Content == nil && in.PatchContent == nil {
		return fmt.Errorf("one of content or patch_content is required")
	}
	return nil
}

func (s *Server) updateProductContextHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input updateContextInput) (*mcpsdk.CallToolResult, getContextOutput, error) {
	if err := input.validate(); err != nil {
		return nil, getContextOutput{}, err
	}
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	content := input.Content
	if input.PatchContent != nil {
		content, err = db.PatchProductContext(ctx, input.PatchContent)
	} else {
		err = db.SetProductContext(ctx, content)
	}
	if err != nil {
		return nil, getContextOutput{}, err
	}
	return nil, getContextOutput{Workspace: res.Path, Content: content}, nil
}

// get_active_context

func (s *Server) getActiveContextHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input getContextInput) (*mcpsdk.CallToolResult, getContextOutput, error) {
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	content, err := db.GetActiveContext(ctx)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	return nil, getContextOutput{Workspace: res.Path, Content: content}, nil
}

// update_active_context

func (s *Server) updateActiveContextHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input updateContextInput) (*mcpsdk.CallToolResult, getContextOutput, error) {
	if err := input.validate(); err != nil {
		return nil, getContextOutput{}, err
	}
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getContextOutput{}, err
	}
	content := input.Content
	if input.PatchContent != nil {
		content, err = db.PatchActiveContext(ctx, input.PatchContent)
	} else {
		err = db.SetActiveContext(ctx, content)
	}
	if err != nil {
		return nil, getContextOutput{}, err
	}
	return nil, getContextOutput{Workspace: res.Path, Content: content}, nil
}

// log_decision

type logDecisionInput struct {
	WorkspaceID string   `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	Summary     string   `json:"summary" jsonschema:"One-line summary of the decision"`
	Rationale   string   `json:"rationale,omitempty" jsonschema:"Why the decision was made"`
	Tags        []string `json:"tags,omitempty" jsonschema:"Free-form labels for later filtering"`
}

type decisionOutput struct {
	Workspace string         `json:"workspace"`
	Decision  store.Decision `json:"decision"`
}

func (s *Server) logDecisionHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input logDecisionInput) (*mcpsdk.CallToolResult, decisionOutput, error) {
	if input.Summary == "" {
		return nil, decisionOutput{}, fmt.Errorf("summary is required")
	}
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, decisionOutput{}, err
	}
	d, err := db.LogDecision(ctx, store.Decision{
		Summary:   input.Summary,
		Rationale: input.Rationale,
		Tags:      input.Tags,
	})
	if err != nil {
		return nil, decisionOutput{}, err
	}
	return nil, decisionOutput{Workspace: res.Path, Decision: d}, nil
}

// get_decisions

type getDecisionsInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum number of decisions to return; 0 means all"`
}

type getDecisionsOutput struct {
	Workspace string           `json:"workspace"`
	Decisions []store.Decision `json:"decisions"`
}

func (s *Server) getDecisionsHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input getDecisionsInput) (*mcpsdk.CallToolResult, getDecisionsOutput, error) {
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getDecisionsOutput{}, err
	}
	decisions, err := db.GetDecisions(ctx, input.Limit)
	if err != nil {
		return nil, getDecisionsOutput{}, err
	}
	return nil, getDecisionsOutput{Workspace: res.Path, Decisions: decisions}, nil
}

// log_progress

type logProgressInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	Status      string `json:"status" jsonschema:"Entry status such as TODO, IN_PROGRESS or DONE"`
	Description string `json:"description" jsonschema:"What the entry tracks"`
}

type progressOutput struct {
	Workspace string              `json:"workspace"`
	Entry     store.ProgressEntry `json:"entry"`
}

func (s *Server) logProgressHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input logProgressInput) (*mcpsdk.CallToolResult, progressOutput, error) {
	if input.Status == "" || input.Description == "" {
		return nil, progressOutput{}, fmt.Errorf("status and description are required")
	}
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, progressOutput{}, err
	}
	p, err := db.LogProgress(ctx, store.ProgressEntry{Status: input.Status, Description: input.Description})
	if err != nil {
		return nil, progressOutput{}, err
	}
	return nil, progressOutput{Workspace: res.Path, Entry: p}, nil
}

// update_progress

type updateProgressInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	ID          int64  `json:"id" jsonschema:"Id of the progress entry to update"`
	Status      string `json:"status" jsonschema:"New status for the entry"`
	Description string `json:"description,omitempty" jsonschema:"Optional replacement description"`
}

func (s *Server) updateProgressHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input updateProgressInput) (*mcpsdk.CallToolResult, progressOutput, error) {
	if input.ID == 0 || input.Status == "" {
		return nil, progressOutput{}, fmt.Errorf("id and status are required")
	}
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, progressOutput{}, err
	}
	p, err := db.UpdateProgress(ctx, input.ID, input.Status, input.Description)
	if err != nil {
		return nil, progressOutput{}, err
	}
	return nil, progressOutput{Workspace: res.Path, Entry: p}, nil
}

// get_progress

type getProgressInput struct {
	WorkspaceID string `json:"workspace_id,omitempty" jsonschema:"Optional workspace path or file URI overriding the session default"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Maximum number of entries to return; 0 means all"`
}

type getProgressOutput struct {
	Workspace string                `json:"workspace"`
	Entries   []store.ProgressEntry `json:"entries"`
}

func (s *Server) getProgressHandler(ctx context.Context, req *mcpsdk.CallToolRequest, input getProgressInput) (*mcpsdk.CallToolResult, getProgressOutput, error) {
	db, res, err := s.storeFor(sessionKey(req), input.WorkspaceID)
	if err != nil {
		return nil, getProgressOutput{}, err
	}
	entries, err := db.GetProgress(ctx, input.Limit)
	if err != nil {
		return nil, getProgressOutput{}, err
	}
	return nil, getProgressOutput{Workspace: res.Path, Entries: entries}, nil
}
