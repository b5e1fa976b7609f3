package memtk

import "Lookout/pkg/widget"

// Node is a memtk widget. All of its accessors are safe from any goroutine.
type Node struct {
	tk   *Toolkit
	id   widget.ID
	kind widget.Kind

	name, text, title string
	visible           bool
	disposed          bool
	released          bool
	bounds            widget.Rect
	attrs             map[string]string

	parent   *Node
	children []*Node
	owner    *Node
	owned    []*Node
	menuBar  *Node
	popup    *Node
	invoker  *Node
	icon     *Node // desktop icon of an internal frame
	frame    *Node // internal frame a desktop icon stands for
	desktop  *Node // desktop pane of an iconified internal frame
	labelFor *Node

	onDispose func()
}

var (
	_ widget.Widget        = (*Node)(nil)
	_ widget.Titled        = (*Node)(nil)
	_ widget.Owned         = (*Node)(nil)
	_ widget.Owner         = (*Node)(nil)
	_ widget.MenuBarHolder = (*Node)(nil)
	_ widget.PopupHolder   = (*Node)(nil)
	_ widget.PopupInvoker  = (*Node)(nil)
	_ widget.Iconifiable   = (*Node)(nil)
	_ widget.IconProxy     = (*Node)(nil)
	_ widget.Labeler       = (*Node)(nil)
	_ widget.Bounded       = (*Node)(nil)
	_ widget.Attributed    = (*Node)(nil)
)

// asWidget keeps a nil *Node from becoming a non-nil interface.
func asWidget(n *Node) widget.Widget {
	if n == nil || n.released {
		return nil
	}
	return n
}

func (n *Node) ID() widget.ID     { return n.id }
func (n *Node) Kind() widget.Kind { return n.kind }

func (n *Node) Name() string {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.name
}

func (n *Node) Text() string {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.text
}

func (n *Node) Title() string {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.title
}

func (n *Node) Parent() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.parent)
}

func (n *Node) Children() []widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	out := make([]widget.Widget, 0, len(n.children))
	for _, c := range n.children {
		if !c.released {
			out = append(out, c)
		}
	}
	return out
}

// Released reports whether n was retired with Toolkit.Release.
func (n *Node) Released() bool {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.released
}

// Showing reports whether n and every container above it are visible. Windows
// and popup menus are showing on their own; other unparented widgets never are.
func (n *Node) Showing() bool {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.showingLocked()
}

func (n *Node) showingLocked() bool {
	for x := n; ; x = x.parent {
		if !x.visible || x.disposed || x.released {
			return false
		}
		if x.parent == nil {
			kinds := n.tk.kinds
			return kinds.IsA(x.kind, widget.KindWindow) || kinds.IsA(x.kind, widget.KindPopupMenu)
		}
	}
}

func (n *Node) Owner() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.owner)
}

func (n *Node) OwnedWindows() []widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	out := make([]widget.Widget, 0, len(n.owned))
	for _, o := range n.owned {
		if !o.released {
			out = append(out, o)
		}
	}
	return out
}

func (n *Node) MenuBar() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.menuBar)
}

func (n *Node) PopupMenu() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.popup)
}

func (n *Node) Invoker() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.invoker)
}

func (n *Node) DesktopIcon() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.icon)
}

func (n *Node) InternalFrame() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.frame)
}

func (n *Node) LabelFor() widget.Widget {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return asWidget(n.labelFor)
}

func (n *Node) Bounds() widget.Rect {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.bounds
}

func (n *Node) Attr(key string) string {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	return n.attrs[key]
}

// Attrs returns a copy of the raw attributes of n.
func (n *Node) Attrs() map[string]string {
	n.tk.mu.RLock()
	defer n.tk.mu.RUnlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

func (n *Node) String() string {
	return widget.Describe(n)
}

// detachLocked removes n from wherever it currently hangs.
func (n *Node) detachLocked() {
	p := n.parent
	if p == nil {
		return
	}
	if p.menuBar == n {
		p.menuBar = nil
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}
