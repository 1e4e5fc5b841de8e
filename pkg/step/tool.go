package step

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ormasoftchile/thinkuc/pkg/jsonv"
	"github.com/ormasoftchile/thinkuc/pkg/runctx"
)

// EncodeToolArgs serializes tool arguments compactly with sorted keys and
// without HTML escaping.
func EncodeToolArgs(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ToolArgs builds the argv for `tools run`.
func ToolArgs(tool string, args map[string]any) ([]string, error) {
	encoded, err := EncodeToolArgs(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", tool, err)
	}
	return []string{"tools", "run", tool, "--args", encoded, "--format", "json"}, nil
}

// RunTool invokes one of the target's built-in tools and returns its
// decoded JSON response (Absent when tolerated and unparseable).
func (e *Executor) RunTool(ctx context.Context, rc runctx.Context, name, tool string, args map[string]any, opts ...Option) (jsonv.Value, error) {
	argv, err := ToolArgs(tool, args)
	if err != nil {
		return jsonv.Value{}, err
	}
	res, err := e.Run(ctx, rc, name, argv, append(opts, JSON())...)
	if err != nil {
		return jsonv.Value{}, err
	}
	return res.JSON, nil
}
