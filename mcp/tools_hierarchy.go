package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerHierarchyTools registers widget tree tools
func (s *MCPServer) registerHierarchyTools() {
	// hierarchy_load - Load a UI dump
	s.server.AddTool(
		mcp.NewTool("hierarchy_load",
			mcp.WithDescription("Load a UI hierarchy dump (uiautomator XML or JSON) as the current window"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Path to the dump file"),
			),
			mcp.WithString("title",
				mcp.Description("Window title (default: package of the root node)"),
			),
		),
		s.handleHierarchyLoad,
	)

	// hierarchy_tree - Show the visible tree
	s.server.AddTool(
		mcp.NewTool("hierarchy_tree",
			mcp.WithDescription("Get the visible widget tree of all loaded windows"),
		),
		s.handleHierarchyTree,
	)
}

// registerLocatorTools registers widget lookup tools
func (s *MCPServer) registerLocatorTools() {
	// widget_find - Resolve a locator
	s.server.AddTool(
		mcp.NewTool("widget_find",
			mcp.WithDescription("Resolve a locator to exactly one widget. Reports every candidate when the locator is ambiguous"),
			mcp.WithString("locator",
				mcp.Required(),
				mcp.Description("Locator in YAML, e.g. \"class: Button\\nname: ok\\nindex: 1\""),
			),
		),
		s.handleWidgetFind,
	)

	// locator_suggest - Suggest locators at a point
	s.server.AddTool(
		mcp.NewTool("locator_suggest",
			mcp.WithDescription("Suggest ranked locators for the innermost widget at a screen point"),
			mcp.WithNumber("x",
				mcp.Required(),
				mcp.Description("X coordinate"),
			),
			mcp.WithNumber("y",
				mcp.Required(),
				mcp.Description("Y coordinate"),
			),
		),
		s.handleLocatorSuggest,
	)
}

// Tool handlers

func (s *MCPServer) handleHierarchyLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("path is required")
	}
	title, _ := args["title"].(string)

	info, err := s.app.LoadDump(path, title)
	if err != nil {
		return nil, fmt.Errorf("failed to load dump: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("failed to load dump: no window created")
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Loaded window %q (%s) with %d components from %s",
				info.Title, info.Kind, info.Components, info.Source)),
		},
	}, nil
}

func (s *MCPServer) handleHierarchyTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots, err := s.app.GetTree()
	if err != nil {
		return nil, fmt.Errorf("failed to get widget tree: %w", err)
	}
	if len(roots) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent("No windows loaded")},
		}, nil
	}

	var b strings.Builder
	for _, root := range roots {
		writeTree(&b, root, 0)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(b.String())},
	}, nil
}

func writeTree(b *strings.Builder, n TreeNode, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind)
	if n.Name != "" {
		fmt.Fprintf(b, " name=%q", n.Name)
	}
	if n.Title != "" {
		fmt.Fprintf(b, " title=%q", n.Title)
	} else if n.Text != "" {
		fmt.Fprintf(b, " text=%q", n.Text)
	}
	if n.Bounds != "" {
		b.WriteString(" " + n.Bounds)
	}
	if !n.Showing {
		b.WriteString(" (hidden)")
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
}

func (s *MCPServer) handleWidgetFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	locator, ok := args["locator"].(string)
	if !ok || strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("locator is required")
	}

	info, err := s.app.FindWidget(locator)
	if err != nil {
		// Lookup failures carry the candidate list; hand it to the client as-is.
		return errorResult(err), nil
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize widget: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(jsonData))},
	}, nil
}

func (s *MCPServer) handleLocatorSuggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return nil, fmt.Errorf("x and y are required")
	}

	suggestions, err := s.app.SuggestLocators(int(x), int(y))
	if err != nil {
		return errorResult(err), nil
	}
	if len(suggestions) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("No widget at (%d, %d)", int(x), int(y)))},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Suggestions for (%d, %d):\n", int(x), int(y))
	for i, sg := range suggestions {
		unique := ""
		if !sg.Unique {
			unique = " [ambiguous]"
		}
		fmt.Fprintf(&b, "%d. [%s] %s (priority %d)%s\n   key: %s\n", i+1, sg.Type, sg.Locator, sg.Priority, unique, sg.Key)
		if sg.Description != "" {
			fmt.Fprintf(&b, "   %s\n", sg.Description)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(b.String())},
	}, nil
}
