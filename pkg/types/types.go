// Package types holds the data shapes shared by the CLI and the MCP server.
package types

// WindowInfo describes a top-level window loaded from a dump.
type WindowInfo struct {
	ID         uint64 `json:"id"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Components int    `json:"components"`
	Source     string `json:"source,omitempty"`
}

// TreeNode is one widget of the visible hierarchy.
type TreeNode struct {
	ID       uint64     `json:"id"`
	Kind     string     `json:"kind"`
	Name     string     `json:"name,omitempty"`
	Text     string     `json:"text,omitempty"`
	Title    string     `json:"title,omitempty"`
	Bounds   string     `json:"bounds,omitempty"`
	Showing  bool       `json:"showing"`
	Children []TreeNode `json:"children,omitempty"`
}

// WidgetInfo describes a widget found by a locator.
type WidgetInfo struct {
	ID          uint64 `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name,omitempty"`
	Text        string `json:"text,omitempty"`
	Bounds      string `json:"bounds,omitempty"`
	Path        string `json:"path"`
	Key         string `json:"key"`
	Locator     string `json:"locator"`
	LocatorYAML string `json:"locatorYaml"`
}

// Suggestion is one way to locate the widget at a point, ranked by Priority
// (higher is better).
type Suggestion struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Locator     string `json:"locator"`
	LocatorYAML string `json:"locatorYaml"`
	Key         string `json:"key"`
	Priority    int    `json:"priority"`
	Unique      bool   `json:"unique"`
	Description string `json:"description"`
}

// ScriptInfo summarizes a saved script.
type ScriptInfo struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Steps    int    `json:"steps"`
	Modified int64  `json:"modified"`
}

// RecordingInfo summarizes a stored recording session.
type RecordingInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	Status    string `json:"status"`
	StepCount int    `json:"stepCount"`
}
