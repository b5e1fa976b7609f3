package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleTreeResource handles the lookout://tree resource
func (s *MCPServer) handleTreeResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	roots, err := s.app.GetTree()
	if err != nil {
		return nil, fmt.Errorf("failed to get widget tree: %w", err)
	}
	if roots == nil {
		roots = []TreeNode{}
	}
	return jsonResource(request.Params.URI, roots)
}

// handleScriptsResource handles the lookout://scripts resource
func (s *MCPServer) handleScriptsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scripts, err := s.app.ListScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	if scripts == nil {
		scripts = []ScriptInfo{}
	}
	return jsonResource(request.Params.URI, scripts)
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
