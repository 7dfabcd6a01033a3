package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-io/flowkit/internal/engine"
	"github.com/flowkit-io/flowkit/internal/runner"
	"github.com/flowkit-io/flowkit/pkg/schema"
)

// stubRunner reports success with a fixed stdout for every invocation.
type stubRunner struct {
	stdout string
	calls  int
}

func (s *stubRunner) Run(ctx context.Context, spec runner.Spec) (*runner.Result, error) {
	s.calls++
	return &runner.Result{Stdout: s.stdout}, nil
}

func newTestServer(t *testing.T, dir string) (*FlowkitServer, *stubRunner) {
	t.Helper()
	sr := &stubRunner{stdout: "ok\n"}
	s := NewFlowkitServer(FlowkitServerDeps{
		Engine:       engine.New(sr, nil, nil, nil),
		WorkflowsDir: dir,
	})
	return s, sr
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const helloWorkflow = `
name: hello
description: greets
steps:
  - name: s1
    run: echo hi ${who}
`

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

func TestListTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.yaml", helloWorkflow)
	writeFile(t, dir, "broken.yaml", "name: [\n")
	s, _ := newTestServer(t, dir)

	result, err := s.handleList(context.Background(), buildRequest("workflow_list", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Workflows []struct {
			Path  string `json:"path"`
			Name  string `json:"name"`
			Steps int    `json:"steps"`
		} `json:"workflows"`
		Broken map[string]string `json:"broken"`
	}
	unmarshalResult(t, result, &out)

	require.Len(t, out.Workflows, 1)
	assert.Equal(t, "hello", out.Workflows[0].Name)
	assert.Equal(t, 1, out.Workflows[0].Steps)
	assert.Len(t, out.Broken, 1)
}

func TestListToolMissingDir(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "nope"))

	result, err := s.handleList(context.Background(), buildRequest("workflow_list", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestValidateTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.yaml", helloWorkflow)
	s, _ := newTestServer(t, dir)

	req := buildRequest("workflow_validate", map[string]any{"path": "hello.yaml"})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var vr schema.ValidationResult
	unmarshalResult(t, result, &vr)
	assert.True(t, vr.Valid())
}

func TestValidateToolReportsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: bad\nsteps:\n  - run: echo hi\n    timeout: -1\n")
	s, _ := newTestServer(t, dir)

	req := buildRequest("workflow_validate", map[string]any{"path": "bad.yaml"})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError, "validation findings are data, not a tool error")

	var vr schema.ValidationResult
	unmarshalResult(t, result, &vr)
	assert.False(t, vr.Valid())
}

func TestValidateToolMissingParams(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir())

	result, err := s.handleValidate(context.Background(), buildRequest("workflow_validate", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestValidateToolFileNotFound(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir())

	req := buildRequest("workflow_validate", map[string]any{"path": "missing.yaml"})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRunTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.yaml", helloWorkflow)
	s, sr := newTestServer(t, dir)

	req := buildRequest("workflow_run", map[string]any{"path": "hello.yaml"})
	result, err := s.handleRun(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var wr schema.WorkflowResult
	unmarshalResult(t, result, &wr)
	assert.True(t, wr.Success)
	require.Len(t, wr.Steps, 1)
	assert.Equal(t, 1, sr.calls)
}

func TestRunToolDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.yaml", helloWorkflow)
	s, sr := newTestServer(t, dir)

	req := buildRequest("workflow_run", map[string]any{
		"path":      "hello.yaml",
		"dry_run":   true,
		"variables": map[string]any{"who": "world"},
	})
	result, err := s.handleRun(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var wr schema.WorkflowResult
	unmarshalResult(t, result, &wr)
	require.Len(t, wr.Steps, 1)
	assert.Equal(t, "would execute: echo hi world", wr.Steps[0].Stdout)
	assert.Equal(t, 0, sr.calls, "dry_run never reaches the command runner")
}

func TestRunToolInvalidWorkflow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "name: bad\nsteps:\n  - run: echo hi\n    retries: -2\n")
	s, sr := newTestServer(t, dir)

	req := buildRequest("workflow_run", map[string]any{"path": "bad.yaml"})
	result, err := s.handleRun(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var vr schema.ValidationResult
	unmarshalResult(t, result, &vr)
	assert.False(t, vr.Valid())
	assert.Equal(t, 0, sr.calls)
}

func TestRunToolMissingParams(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir())

	result, err := s.handleRun(context.Background(), buildRequest("workflow_run", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestResolvePath(t *testing.T) {
	s, _ := newTestServer(t, "/flows")
	assert.Equal(t, filepath.Join("/flows", "a.yaml"), s.resolvePath("a.yaml"))
	assert.Equal(t, "/abs/a.yaml", s.resolvePath("/abs/a.yaml"))

	bare, _ := newTestServer(t, "")
	assert.Equal(t, "a.yaml", bare.resolvePath("a.yaml"))
}
