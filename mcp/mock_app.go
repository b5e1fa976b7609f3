package mcp

import (
	"errors"
	"sync"
)

// MockCall records a method call for verification
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockLookoutApp is a mock implementation of LookoutApp for testing
type MockLookoutApp struct {
	mu    sync.Mutex
	Calls []MockCall

	// Hierarchy
	LoadDumpResult *WindowInfo
	LoadDumpError  error
	GetTreeResult  []TreeNode
	GetTreeError   error

	// Locators
	FindWidgetResult      *WidgetInfo
	FindWidgetError       error
	SuggestLocatorsResult []Suggestion
	SuggestLocatorsError  error

	// Scripts and recordings
	ListScriptsResult    []ScriptInfo
	ListScriptsError     error
	ListRecordingsResult []RecordingInfo
	ListRecordingsError  error

	AppVersion string
}

// NewMockLookoutApp creates a new MockLookoutApp with sensible defaults
func NewMockLookoutApp() *MockLookoutApp {
	return &MockLookoutApp{
		Calls:                make([]MockCall, 0),
		AppVersion:           "1.0.0-test",
		GetTreeResult:        []TreeNode{},
		ListScriptsResult:    []ScriptInfo{},
		ListRecordingsResult: []RecordingInfo{},
	}
}

// recordCall records a method call
func (m *MockLookoutApp) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls
func (m *MockLookoutApp) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall{}, m.Calls...)
}

// ResetCalls clears all recorded calls
func (m *MockLookoutApp) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// GetLastCall returns the last recorded call
func (m *MockLookoutApp) GetLastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// WasMethodCalled checks if a method was called
func (m *MockLookoutApp) WasMethodCalled(method string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.Calls {
		if call.Method == method {
			return true
		}
	}
	return false
}

// GetLastCallByMethod returns the last call to a specific method
func (m *MockLookoutApp) GetLastCallByMethod(method string) *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if m.Calls[i].Method == method {
			return &m.Calls[i]
		}
	}
	return nil
}

func (m *MockLookoutApp) GetAppVersion() string {
	m.recordCall("GetAppVersion")
	return m.AppVersion
}

// === Hierarchy ===

func (m *MockLookoutApp) LoadDump(path, title string) (*WindowInfo, error) {
	m.recordCall("LoadDump", path, title)
	return m.LoadDumpResult, m.LoadDumpError
}

func (m *MockLookoutApp) GetTree() ([]TreeNode, error) {
	m.recordCall("GetTree")
	return m.GetTreeResult, m.GetTreeError
}

// === Locators ===

func (m *MockLookoutApp) FindWidget(locatorYAML string) (*WidgetInfo, error) {
	m.recordCall("FindWidget", locatorYAML)
	return m.FindWidgetResult, m.FindWidgetError
}

func (m *MockLookoutApp) SuggestLocators(x, y int) ([]Suggestion, error) {
	m.recordCall("SuggestLocators", x, y)
	return m.SuggestLocatorsResult, m.SuggestLocatorsError
}

// === Scripts and recordings ===

func (m *MockLookoutApp) ListScripts() ([]ScriptInfo, error) {
	m.recordCall("ListScripts")
	return m.ListScriptsResult, m.ListScriptsError
}

func (m *MockLookoutApp) ListRecordings(limit int) ([]RecordingInfo, error) {
	m.recordCall("ListRecordings", limit)
	return m.ListRecordingsResult, m.ListRecordingsError
}

// SetupWithError configures a specific method to return an error
func (m *MockLookoutApp) SetupWithError(method string, err error) *MockLookoutApp {
	switch method {
	case "LoadDump":
		m.LoadDumpError = err
	case "GetTree":
		m.GetTreeError = err
	case "FindWidget":
		m.FindWidgetError = err
	case "SuggestLocators":
		m.SuggestLocatorsError = err
	case "ListScripts":
		m.ListScriptsError = err
	case "ListRecordings":
		m.ListRecordingsError = err
	}
	return m
}

// Common test errors
var (
	ErrNoWindow       = errors.New("no window loaded")
	ErrDumpNotFound   = errors.New("dump not found")
	ErrWidgetNotFound = errors.New("no component found matching Name(\"missing\")")
	ErrStoreClosed    = errors.New("store closed")
)

// Sample test data factories

// SampleTree returns a small window tree for testing
func SampleTree() []TreeNode {
	return []TreeNode{
		{
			ID:      1,
			Kind:    "Frame",
			Title:   "Login",
			Bounds:  "[0,0][1080,2400]",
			Showing: true,
			Children: []TreeNode{
				{ID: 2, Kind: "Label", Text: "User:", Showing: true},
				{ID: 3, Kind: "TextField", Name: "username", Showing: true},
				{ID: 4, Kind: "Button", Name: "login", Text: "Log in", Bounds: "[40,900][1040,1000]", Showing: true},
				{ID: 5, Kind: "Button", Name: "help", Showing: false},
			},
		},
	}
}

// SampleWidget returns a found widget for testing
func SampleWidget() *WidgetInfo {
	return &WidgetInfo{
		ID:          4,
		Kind:        "Button",
		Name:        "login",
		Text:        "Log in",
		Bounds:      "[40,900][1040,1000]",
		Path:        `Frame title="Login" / Button name="login"`,
		Key:         "button",
		Locator:     `Button "login" in Frame "Login"`,
		LocatorYAML: "class: Button\nname: login\n",
	}
}
