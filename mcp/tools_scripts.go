package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultRecordingLimit = 20

// registerScriptTools registers script and recording tools
func (s *MCPServer) registerScriptTools() {
	// script_list - List saved scripts
	s.server.AddTool(
		mcp.NewTool("script_list",
			mcp.WithDescription("List saved step scripts"),
		),
		s.handleScriptList,
	)

	// recording_list - List recorded sessions
	s.server.AddTool(
		mcp.NewTool("recording_list",
			mcp.WithDescription("List recorded sessions, newest first"),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of sessions (default: 20)"),
			),
		),
		s.handleRecordingList,
	)
}

func (s *MCPServer) handleScriptList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scripts, err := s.app.ListScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	if len(scripts) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("No scripts found")},
		}, nil
	}

	jsonData, err := json.MarshalIndent(scripts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize scripts: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(jsonData))},
	}, nil
}

func (s *MCPServer) handleRecordingList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	limit := defaultRecordingLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	sessions, err := s.app.ListRecordings(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	if len(sessions) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("No recordings found")},
		}, nil
	}

	jsonData, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize recordings: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(jsonData))},
	}, nil
}
