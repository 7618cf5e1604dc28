// CLAUDE:SUMMARY Registers citenav MCP tools: jump_to, page_texts, force_extraction.
package viewer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/citenav/kit"
	"github.com/hazyhaar/citenav/nav"
)

// RegisterMCP registers the viewer's tools on an MCP server.
func (v *Viewer) RegisterMCP(srv *mcp.Server) {
	v.registerJumpTool(srv)
	v.registerPagesTool(srv)
	v.registerExtractTool(srv)
}

// toolLogging records each tool invocation with its duration.
func (v *Viewer) toolLogging(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			v.logger.Info("viewer: tool call",
				"tool", name, "duration", time.Since(start), "error", err)
			return resp, err
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- jump_to ---

func (v *Viewer) registerJumpTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "citenav_jump_to",
		Description: "Locate a quoted passage in the hosted document, scroll to it and highlight it. Page hints are advisory.",
		InputSchema: inputSchema(map[string]any{
			"quote":        map[string]any{"type": "string", "description": "Quoted text to locate"},
			"page":         map[string]any{"type": "integer", "description": "Advisory page hint"},
			"search_pages": map[string]any{"type": "array", "items": map[string]any{"type": "integer"}, "description": "Restrict the candidate pages"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		cit := req.(*nav.Citation)
		return v.JumpToWait(ctx, *cit), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var cit nav.Citation
		if err := json.Unmarshal(req.Params.Arguments, &cit); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &cit}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(v.toolLogging(tool.Name))(endpoint), decode)
}

// --- page_texts ---

func (v *Viewer) registerPagesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "citenav_page_texts",
		Description: "Snapshot the extracted text of every page; empty text means the page was not extracted yet.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"pages": v.PageTexts()}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(v.toolLogging(tool.Name))(endpoint), decode)
}

// --- force_extraction ---

func (v *Viewer) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "citenav_force_extraction",
		Description: "Synchronously re-extract the text of every rendered page, overwriting cached entries.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		v.ForceTextExtraction(ctx)
		return map[string]any{"status": "ok"}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, kit.Chain(v.toolLogging(tool.Name))(endpoint), decode)
}
