// Package mcp provides the MCP (Model Context Protocol) server for Lookout.
// It lets external AI clients load UI dumps, inspect the widget hierarchy and
// build locators for widgets.
package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"Lookout/pkg/types"
)

// Type aliases from shared types package
type (
	WindowInfo    = types.WindowInfo
	TreeNode      = types.TreeNode
	WidgetInfo    = types.WidgetInfo
	Suggestion    = types.Suggestion
	ScriptInfo    = types.ScriptInfo
	RecordingInfo = types.RecordingInfo
)

// LookoutApp defines the methods the MCP server needs from the main App.
type LookoutApp interface {
	GetAppVersion() string

	// Hierarchy
	LoadDump(path, title string) (*WindowInfo, error)
	GetTree() ([]TreeNode, error)

	// Locators
	FindWidget(locatorYAML string) (*WidgetInfo, error)
	SuggestLocators(x, y int) ([]Suggestion, error)

	// Scripts and recordings
	ListScripts() ([]ScriptInfo, error)
	ListRecordings(limit int) ([]RecordingInfo, error)
}

// MCPServer wraps the MCP server and provides Lookout-specific functionality
type MCPServer struct {
	app       LookoutApp
	server    *server.MCPServer
	stdio     *server.StdioServer
	mu        sync.Mutex
	isRunning bool
}

// NewMCPServer creates a new MCP server for Lookout
func NewMCPServer(app LookoutApp) *MCPServer {
	mcpServer := server.NewMCPServer(
		"lookout",
		app.GetAppVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	s := &MCPServer{
		app:    app,
		server: mcpServer,
	}
	s.registerTools()
	s.registerResources()
	return s
}

func (s *MCPServer) registerTools() {
	s.registerHierarchyTools()
	s.registerLocatorTools()
	s.registerScriptTools()
}

func (s *MCPServer) registerResources() {
	s.server.AddResource(
		mcp.NewResource(
			"lookout://tree",
			"Visible widget hierarchy",
			mcp.WithMIMEType("application/json"),
		),
		s.handleTreeResource,
	)

	s.server.AddResource(
		mcp.NewResource(
			"lookout://scripts",
			"Saved scripts",
			mcp.WithMIMEType("application/json"),
		),
		s.handleScriptsResource,
	)
}

// Start starts the MCP server (blocking - for CLI mode)
func (s *MCPServer) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("MCP server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	return s.run()
}

func (s *MCPServer) run() error {
	s.stdio = server.NewStdioServer(s.server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintln(os.Stderr, "[MCP] Lookout MCP Server started")
	err := s.stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[MCP] Server error: %v\n", err)
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	return err
}

// Stop stops the MCP server
func (s *MCPServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The server will stop when stdin is closed or context is cancelled
	s.isRunning = false
}

// IsRunning returns whether the MCP server is running
func (s *MCPServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("Error: %v", err))},
		IsError: true,
	}
}
