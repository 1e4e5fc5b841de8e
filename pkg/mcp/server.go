// Package mcp exposes the harness to AI agents over the Model Context
// Protocol: the scenario catalog, the JSON Schemas, and summaries of past
// runs. It never starts a run.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the thinkuc tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"thinkuc",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("thinkuc/list",
			mcp.WithDescription("List the use-case scenarios in run order"),
			mcp.WithString("only", mcp.Description("Comma-separated scenario names to keep (optional)")),
			mcp.WithString("where", mcp.Description("expr-lang condition over name, description, tags and index (optional)")),
		),
		HandleList,
	)

	s.AddTool(
		mcp.NewTool("thinkuc/schema",
			mcp.WithDescription("Export a thinkuc JSON Schema (config or record)"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'config' or 'record'")),
		),
		HandleSchema,
	)

	s.AddTool(
		mcp.NewTool("thinkuc/report",
			mcp.WithDescription("Summarize a finished run directory"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the run's log directory")),
			mcp.WithString("format", mcp.Description("markdown (default) or json")),
		),
		HandleReport,
	)

	return s
}
