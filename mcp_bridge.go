package main

import (
	"Lookout/mcp"
	"Lookout/pkg/hierarchy"
	"Lookout/pkg/keygen"
	"Lookout/pkg/widget"
)

// MCPBridge bridges the main App to the MCP server
type MCPBridge struct {
	app *App
}

// NewMCPBridge creates a new MCP bridge
func NewMCPBridge(app *App) *MCPBridge {
	return &MCPBridge{app: app}
}

// Implement mcp.LookoutApp interface

func (b *MCPBridge) GetAppVersion() string {
	return b.app.GetAppVersion()
}

func (b *MCPBridge) LoadDump(path, title string) (*mcp.WindowInfo, error) {
	win, err := b.app.LoadDump(path, title)
	if err != nil {
		return nil, err
	}
	return b.windowInfo(win), nil
}

func (b *MCPBridge) windowInfo(w widget.Widget) *mcp.WindowInfo {
	return &mcp.WindowInfo{
		ID:         uint64(w.ID()),
		Kind:       widget.SimpleName(w.Kind()),
		Title:      widget.TitleOf(w),
		Components: b.app.countComponents(w),
		Source:     b.app.Source(w),
	}
}

func (b *MCPBridge) GetTree() ([]mcp.TreeNode, error) {
	return BuildTree(b.app.Hierarchy()), nil
}

// BuildTree converts the visible windows of h into tree nodes.
func BuildTree(h hierarchy.Hierarchy) []mcp.TreeNode {
	roots := h.Roots()
	out := make([]mcp.TreeNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, treeNode(h, r, map[widget.ID]bool{}))
	}
	return out
}

func treeNode(h hierarchy.Hierarchy, w widget.Widget, seen map[widget.ID]bool) mcp.TreeNode {
	seen[w.ID()] = true
	n := mcp.TreeNode{
		ID:      uint64(w.ID()),
		Kind:    widget.SimpleName(w.Kind()),
		Text:    w.Text(),
		Title:   widget.TitleOf(w),
		Showing: w.Showing(),
	}
	if name := w.Name(); !widget.IsDefaultName(name) {
		n.Name = name
	}
	if r, ok := widget.BoundsOf(w); ok {
		n.Bounds = r.String()
	}
	for _, c := range h.Components(w) {
		if seen[c.ID()] {
			continue
		}
		n.Children = append(n.Children, treeNode(h, c, seen))
	}
	return n
}

func (b *MCPBridge) FindWidget(locatorYAML string) (*mcp.WidgetInfo, error) {
	w, err := b.app.Find(locatorYAML)
	if err != nil {
		return nil, err
	}
	return b.widgetInfo(w)
}

func (b *MCPBridge) widgetInfo(w widget.Widget) (*mcp.WidgetInfo, error) {
	l, err := b.app.Infer(w)
	if err != nil {
		return nil, err
	}
	key, err := keygen.New().ForWidget(w)
	if err != nil {
		return nil, err
	}
	info := &mcp.WidgetInfo{
		ID:          uint64(w.ID()),
		Kind:        widget.SimpleName(w.Kind()),
		Name:        w.Name(),
		Text:        w.Text(),
		Path:        hierarchy.Path(b.app.Hierarchy(), w),
		Key:         key,
		Locator:     l.String(),
		LocatorYAML: LocatorYAML(l),
	}
	if r, ok := widget.BoundsOf(w); ok {
		info.Bounds = r.String()
	}
	return info, nil
}

func (b *MCPBridge) SuggestLocators(x, y int) ([]mcp.Suggestion, error) {
	return b.app.SuggestLocators(x, y)
}

func (b *MCPBridge) ListScripts() ([]mcp.ScriptInfo, error) {
	scripts, err := b.app.Scripts()
	if err != nil {
		return nil, err
	}
	result := make([]mcp.ScriptInfo, len(scripts))
	for i, s := range scripts {
		result[i] = mcp.ScriptInfo{
			Name:     s.Name,
			Path:     s.Path,
			Steps:    s.Steps,
			Modified: s.Modified.UnixMilli(),
		}
	}
	return result, nil
}

func (b *MCPBridge) ListRecordings(limit int) ([]mcp.RecordingInfo, error) {
	sessions, err := b.app.Recordings(limit)
	if err != nil {
		return nil, err
	}
	result := make([]mcp.RecordingInfo, len(sessions))
	for i, s := range sessions {
		result[i] = mcp.RecordingInfo{
			ID:        s.ID,
			Name:      s.Name,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Status:    s.Status,
			StepCount: s.StepCount,
		}
	}
	return result, nil
}

// StartMCPServer runs the MCP stdio server until stdin closes.
func StartMCPServer(app *App) error {
	LogInfo("mcp").Str("version", app.GetAppVersion()).Msg("Starting MCP server")
	return mcp.NewMCPServer(NewMCPBridge(app)).Start()
}
