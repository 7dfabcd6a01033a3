package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flowkit-io/flowkit/internal/engine"
	"github.com/flowkit-io/flowkit/internal/parser"
	"github.com/flowkit-io/flowkit/internal/validation"
)

// handleList returns every workflow in the configured directory.
func (s *FlowkitServer) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, broken, err := parser.ListWorkflows(s.workflowsDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list workflows: %v", err)), nil
	}

	type listed struct {
		Path        string `json:"path"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Version     string `json:"version,omitempty"`
		Steps       int    `json:"steps"`
		Schedule    string `json:"schedule,omitempty"`
	}
	out := struct {
		Workflows []listed          `json:"workflows"`
		Broken    map[string]string `json:"broken,omitempty"`
	}{}
	for _, entry := range entries {
		item := listed{
			Path:        entry.Path,
			Name:        entry.Workflow.Name,
			Description: entry.Workflow.Description,
			Version:     entry.Workflow.Version,
			Steps:       len(entry.Workflow.Steps),
		}
		if entry.Workflow.Triggers != nil {
			item.Schedule = entry.Workflow.Triggers.Schedule
		}
		out.Workflows = append(out.Workflows, item)
	}
	if len(broken) > 0 {
		out.Broken = make(map[string]string, len(broken))
		for path, loadErr := range broken {
			out.Broken[path] = loadErr.Error()
		}
	}
	return marshalResult(out)
}

// handleValidate loads and validates a workflow file.
func (s *FlowkitServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	wf, loadErr := parser.Load(s.resolvePath(path))
	if loadErr != nil {
		return mcp.NewToolResultError(loadErr.Error()), nil
	}
	return marshalResult(validation.Validate(wf))
}

// handleRun validates and executes a workflow file.
func (s *FlowkitServer) handleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}
	dryRun := req.GetBool("dry_run", false)

	variables := map[string]string{}
	for k, v := range mcp.ParseStringMap(req, "variables", nil) {
		if sv, ok := v.(string); ok {
			variables[k] = sv
		}
	}

	wf, loadErr := parser.Load(s.resolvePath(path))
	if loadErr != nil {
		return mcp.NewToolResultError(loadErr.Error()), nil
	}
	if vr := validation.Validate(wf); !vr.Valid() {
		return marshalResult(vr)
	}

	result := s.engine.Run(ctx, wf, engine.Options{
		DryRun:    dryRun,
		Variables: variables,
	})
	return marshalResult(result)
}

// resolvePath keeps relative paths relative to the workflow directory.
func (s *FlowkitServer) resolvePath(path string) string {
	if filepath.IsAbs(path) || s.workflowsDir == "" {
		return path
	}
	return filepath.Join(s.workflowsDir, path)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
