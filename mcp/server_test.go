package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// Helper to create a CallToolRequest
func makeToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// Helper to get text content from result
func getTextContent(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// TestNewMCPServer tests server creation
func TestNewMCPServer(t *testing.T) {
	mock := NewMockLookoutApp()
	server := NewMCPServer(mock)

	if server == nil {
		t.Fatal("NewMCPServer should not return nil")
	}
	if server.app == nil {
		t.Error("server.app should not be nil")
	}
	if server.server == nil {
		t.Error("server.server (underlying MCP server) should not be nil")
	}

	// Verify GetAppVersion was called during initialization
	if !mock.WasMethodCalled("GetAppVersion") {
		t.Error("GetAppVersion should be called during server creation")
	}
}

func TestMCPServer_IsRunning(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	if server.IsRunning() {
		t.Error("Server should not be running initially")
	}
}

func TestMCPServer_Stop(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	// Stop should not panic even when not running
	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop")
	}
}

// TestMockLookoutApp_Interface verifies MockLookoutApp implements LookoutApp
func TestMockLookoutApp_Interface(t *testing.T) {
	var _ LookoutApp = (*MockLookoutApp)(nil)
}

func TestMockLookoutApp_RecordsCalls(t *testing.T) {
	mock := NewMockLookoutApp()

	mock.LoadDump("dump.xml", "Main")
	mock.FindWidget("class: Button\n")
	mock.SuggestLocators(10, 20)

	calls := mock.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("Expected 3 calls, got %d", len(calls))
	}
	if calls[0].Method != "LoadDump" || calls[0].Args[1] != "Main" {
		t.Errorf("Unexpected first call: %+v", calls[0])
	}
	if calls[2].Method != "SuggestLocators" || calls[2].Args[0] != 10 || calls[2].Args[1] != 20 {
		t.Errorf("Unexpected third call: %+v", calls[2])
	}

	last := mock.GetLastCallByMethod("FindWidget")
	if last == nil || last.Args[0] != "class: Button\n" {
		t.Errorf("Expected FindWidget call with locator, got %+v", last)
	}

	mock.ResetCalls()
	if len(mock.GetCalls()) != 0 {
		t.Error("Calls should be empty after ResetCalls")
	}
	if mock.GetLastCall() != nil {
		t.Error("GetLastCall should return nil when no calls made")
	}
}

func TestMockLookoutApp_SetupWithError(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.SetupWithError("GetTree", ErrNoWindow)

	_, err := mock.GetTree()
	if err != ErrNoWindow {
		t.Errorf("Expected ErrNoWindow, got %v", err)
	}
}
