package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// ==================== hierarchy_load ====================

func TestHandleHierarchyLoad_Success(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.LoadDumpResult = &WindowInfo{ID: 1, Kind: "Frame", Title: "Login", Components: 5, Source: "login.xml"}
	server := NewMCPServer(mock)

	result, err := server.handleHierarchyLoad(context.Background(), makeToolRequest(map[string]interface{}{
		"path":  "login.xml",
		"title": "Login",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, `"Login"`) || !strings.Contains(text, "5 components") {
		t.Errorf("Unexpected result: %s", text)
	}

	lastCall := mock.GetLastCall()
	if lastCall.Args[0] != "login.xml" || lastCall.Args[1] != "Login" {
		t.Errorf("Unexpected arguments: %v", lastCall.Args)
	}
}

func TestHandleHierarchyLoad_DefaultTitle(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.LoadDumpResult = &WindowInfo{ID: 1, Kind: "Frame", Title: "com.example"}
	server := NewMCPServer(mock)

	_, err := server.handleHierarchyLoad(context.Background(), makeToolRequest(map[string]interface{}{
		"path": "dump.xml",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mock.GetLastCall().Args[1] != "" {
		t.Errorf("Expected empty title, got %v", mock.GetLastCall().Args[1])
	}
}

func TestHandleHierarchyLoad_MissingPath(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	_, err := server.handleHierarchyLoad(context.Background(), makeToolRequest(nil))
	if err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestHandleHierarchyLoad_Error(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.SetupWithError("LoadDump", ErrDumpNotFound)
	server := NewMCPServer(mock)

	_, err := server.handleHierarchyLoad(context.Background(), makeToolRequest(map[string]interface{}{
		"path": "missing.xml",
	}))
	if err == nil {
		t.Error("Expected error, got nil")
	}
}

// ==================== hierarchy_tree ====================

func TestHandleHierarchyTree_Success(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.GetTreeResult = SampleTree()
	server := NewMCPServer(mock)

	result, err := server.handleHierarchyTree(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	for _, want := range []string{
		`Frame title="Login" [0,0][1080,2400]`,
		`  TextField name="username"`,
		`  Button name="login" text="Log in"`,
		`Button name="help" (hidden)`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Tree should contain %q, got:\n%s", want, text)
		}
	}
}

func TestHandleHierarchyTree_Empty(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	result, err := server.handleHierarchyTree(context.Background(), makeToolRequest(nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "No windows") {
		t.Error("Should report that no windows are loaded")
	}
}

// ==================== widget_find ====================

func TestHandleWidgetFind_Success(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.FindWidgetResult = SampleWidget()
	server := NewMCPServer(mock)

	result, err := server.handleWidgetFind(context.Background(), makeToolRequest(map[string]interface{}{
		"locator": "class: Button\nname: login\n",
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected error result: %s", getTextContent(result))
	}

	var info WidgetInfo
	if err := json.Unmarshal([]byte(getTextContent(result)), &info); err != nil {
		t.Fatalf("Result should be valid JSON: %v", err)
	}
	if info.Name != "login" || info.Key != "button" {
		t.Errorf("Unexpected widget: %+v", info)
	}
}

func TestHandleWidgetFind_NotFoundIsToolError(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.SetupWithError("FindWidget", ErrWidgetNotFound)
	server := NewMCPServer(mock)

	result, err := server.handleWidgetFind(context.Background(), makeToolRequest(map[string]interface{}{
		"locator": "class: Button\nname: missing\n",
	}))
	if err != nil {
		t.Fatalf("Lookup failures should be tool results, got %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError result")
	}
	if !strings.Contains(getTextContent(result), `Name("missing")`) {
		t.Errorf("Error should carry the diagnostic, got %s", getTextContent(result))
	}
}

func TestHandleWidgetFind_MissingLocator(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	_, err := server.handleWidgetFind(context.Background(), makeToolRequest(map[string]interface{}{
		"locator": "   ",
	}))
	if err == nil {
		t.Error("Expected error for blank locator")
	}
}

// ==================== locator_suggest ====================

func TestHandleLocatorSuggest_Success(t *testing.T) {
	mock := NewMockLookoutApp()
	mock.SuggestLocatorsResult = []Suggestion{
		{Type: "name", Value: "login", Locator: `Button "login"`, Key: "button", Priority: 5, Unique: true},
		{Type: "class", Value: "Button", Locator: `Button [1]`, Key: "button", Priority: 2, Unique: false},
	}
	server := NewMCPServer(mock)

	result, err := server.handleLocatorSuggest(context.Background(), makeToolRequest(map[string]interface{}{
		"x": float64(100),
		"y": float64(950),
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	text := getTextContent(result)
	if !strings.Contains(text, `1. [name] Button "login" (priority 5)`) {
		t.Errorf("Unexpected ranking output:\n%s", text)
	}
	if !strings.Contains(text, "[ambiguous]") {
		t.Error("Non-unique suggestions should be marked")
	}

	lastCall := mock.GetLastCall()
	if lastCall.Args[0] != 100 || lastCall.Args[1] != 950 {
		t.Errorf("Unexpected coordinates: %v", lastCall.Args)
	}
}

func TestHandleLocatorSuggest_MissingCoordinates(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	_, err := server.handleLocatorSuggest(context.Background(), makeToolRequest(map[string]interface{}{
		"x": float64(1),
	}))
	if err == nil {
		t.Error("Expected error for missing y")
	}
}

func TestHandleLocatorSuggest_NoWidget(t *testing.T) {
	server := NewMCPServer(NewMockLookoutApp())

	result, err := server.handleLocatorSuggest(context.Background(), makeToolRequest(map[string]interface{}{
		"x": float64(5000),
		"y": float64(5000),
	}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(getTextContent(result), "No widget at (5000, 5000)") {
		t.Errorf("Unexpected result: %s", getTextContent(result))
	}
}
