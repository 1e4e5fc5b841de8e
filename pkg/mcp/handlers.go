package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/thinkuc/pkg/report"
	"github.com/ormasoftchile/thinkuc/pkg/scenario"
	"github.com/ormasoftchile/thinkuc/pkg/usecases"
)

// Entry describes one catalog scenario.
type Entry struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// HandleList implements the thinkuc/list MCP tool.
func HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	only, _ := args["only"].(string)
	where, _ := args["where"].(string)

	all := usecases.Catalog()
	selected, err := scenario.Select(all, splitNames(only), where)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	positions := make(map[string]int, len(all))
	for i, sc := range all {
		positions[sc.Name] = i + 1
	}
	entries := make([]Entry, 0, len(selected))
	for _, sc := range selected {
		entries = append(entries, Entry{Index: positions[sc.Name], Name: sc.Name, Description: sc.Description, Tags: sc.Tags})
	}
	return jsonResult(entries, false)
}

// HandleSchema implements the thinkuc/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kind, _ := args["type"].(string)
	data, err := report.Schema(kind)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleReport implements the thinkuc/report MCP tool.
func HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	format, _ := args["format"].(string)

	run, err := report.Load(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	failed := run.Status == "failed"
	switch format {
	case "", "markdown":
		res := textResult(run.Markdown())
		res.IsError = failed
		return res, nil
	case "json":
		return jsonResult(map[string]any{
			"dir":       run.Dir,
			"run_id":    run.RunID,
			"status":    run.Status,
			"failure":   run.Failure,
			"stats":     run.Stats(),
			"scenarios": run.Scenarios,
			"steps":     run.Steps,
		}, failed)
	default:
		return errorResult(fmt.Sprintf("unknown format %q, use 'markdown' or 'json'", format)), nil
	}
}

func splitNames(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func jsonResult(v any, isErr bool) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
