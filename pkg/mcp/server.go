// Package mcp exposes the workflow engine over the Model Context Protocol
// so agent hosts can list, validate, and run workflows.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flowkit-io/flowkit/internal/engine"
)

// FlowkitServerDeps holds the dependencies for creating a FlowkitServer.
type FlowkitServerDeps struct {
	Engine       *engine.Engine
	WorkflowsDir string
	Logger       *slog.Logger
}

// FlowkitServer wraps an MCP server with workflow tool handlers.
type FlowkitServer struct {
	engine       *engine.Engine
	workflowsDir string
	logger       *slog.Logger
	mcpServer    *server.MCPServer
}

// NewFlowkitServer creates a FlowkitServer with the three workflow tools
// registered.
func NewFlowkitServer(deps FlowkitServerDeps) *FlowkitServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &FlowkitServer{
		engine:       deps.Engine,
		workflowsDir: deps.WorkflowsDir,
		logger:       logger,
	}

	mcpSrv := server.NewMCPServer(
		"flowkit",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowkit runs declarative multi-step automation workflows. Use workflow_list to discover workflows, workflow_validate to check a definition, and workflow_run to execute one (set dry_run to simulate without side effects)."),
	)
	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or
// stdin closes.
func (s *FlowkitServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom
// transports.
func (s *FlowkitServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *FlowkitServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: listTool(), Handler: s.handleList},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: runTool(), Handler: s.handleRun},
	}
}

// --- Tool definitions ---

func listTool() mcp.Tool {
	return mcp.NewTool("workflow_list",
		mcp.WithDescription("List the workflows available in the workflow directory"),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("workflow_validate",
		mcp.WithDescription("Validate a workflow file and report errors and warnings"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the workflow YAML file")),
	)
}

func runTool() mcp.Tool {
	return mcp.NewTool("workflow_run",
		mcp.WithDescription("Execute a workflow file and return the per-step results"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the workflow YAML file")),
		mcp.WithBoolean("dry_run", mcp.Description("Simulate the run without executing commands")),
		mcp.WithObject("variables", mcp.Description("Extra context variables (string values)")),
	)
}
