// Package widget defines the contract between Lookout and a windowing toolkit binding.
//
// A binding exposes its live widgets as Widget handles. Lookout never owns widget
// lifetime; it only observes and queries it. Identity is handle identity (ID), not
// value identity.
//
// Capabilities that only some widgets have (owned windows, menu bars, popup menus,
// desktop icons, ...) are expressed as small optional interfaces which callers
// discover with a type assertion.
package widget

import (
	"fmt"
	"strings"
)

// ID is a stable identifier for a live widget handle. A binding never reuses an ID
// for a different widget.
type ID uint64

// Kind is the runtime type tag of a widget, e.g. "Frame" or "android.widget.Button".
type Kind string

// Widget is an opaque, toolkit-owned node of the containment tree.
type Widget interface {
	ID() ID
	Kind() Kind
	// Name returns the programmatic name assigned to the widget, "" if none.
	Name() string
	// Text returns the label or text content, "" if none.
	Text() string
	// Parent returns the toolkit parent, nil for top-level windows.
	Parent() Widget
	// Children returns the toolkit's direct children in z/insertion order.
	Children() []Widget
	// Showing reports whether the widget is currently visible on screen.
	Showing() bool
}

// Titled is implemented by frames and dialogs.
type Titled interface {
	Title() string
}

// Owned is implemented by windows that may have an owner window.
type Owned interface {
	Owner() Widget
}

// Owner is implemented by windows that may own other windows.
type Owner interface {
	OwnedWindows() []Widget
}

// MenuBarHolder is implemented by frame-like widgets carrying a menu bar.
type MenuBarHolder interface {
	MenuBar() Widget
}

// PopupHolder is implemented by menus; PopupMenu returns the popup listing the
// menu's items, nil if not yet created.
type PopupHolder interface {
	PopupMenu() Widget
}

// PopupInvoker is implemented by popup menus and returns the widget that invoked
// (or owns) the popup.
type PopupInvoker interface {
	Invoker() Widget
}

// Iconifiable is implemented by internal frames. DesktopIcon returns the icon
// proxy shown while the frame is iconified, nil otherwise.
type Iconifiable interface {
	DesktopIcon() Widget
}

// IconProxy is implemented by desktop icons and returns the internal frame they stand for.
type IconProxy interface {
	InternalFrame() Widget
}

// Labeler is implemented by captions that declare which widget they label.
type Labeler interface {
	LabelFor() Widget
}

// Bounded is implemented by widgets with known screen bounds.
type Bounded interface {
	Bounds() Rect
}

// Attributed exposes binding-specific raw attributes (e.g. resource ids of a dump).
type Attributed interface {
	Attr(key string) string
	Attrs() map[string]string
}

// Releasable is implemented by bindings whose handles can be retired. A
// released widget belongs to no hierarchy.
type Releasable interface {
	Released() bool
}

// IsReleased reports whether w is a retired handle.
func IsReleased(w Widget) bool {
	r, ok := w.(Releasable)
	return ok && r.Released()
}

// TitleOf returns the title of a titled widget, "" otherwise.
func TitleOf(w Widget) string {
	if t, ok := w.(Titled); ok {
		return t.Title()
	}
	return ""
}

// SimpleName returns the last dotted segment of a kind ("android.widget.Button" -> "Button").
func SimpleName(k Kind) string {
	s := string(k)
	if idx := strings.LastIndex(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}

// Describe returns a short display string for diagnostics, e.g. `Button "ok" (#12)`.
func Describe(w Widget) string {
	if w == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(SimpleName(w.Kind()))
	if name := w.Name(); name != "" {
		fmt.Fprintf(&b, " name=%q", name)
	}
	if title := TitleOf(w); title != "" {
		fmt.Fprintf(&b, " title=%q", title)
	} else if text := w.Text(); text != "" {
		fmt.Fprintf(&b, " text=%q", text)
	}
	if !w.Showing() {
		b.WriteString(" hidden")
	}
	fmt.Fprintf(&b, " (#%d)", w.ID())
	return b.String()
}

// Same reports whether a and b are the same widget handle.
func Same(a, b Widget) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// Label returns the identifying label of w: its name unless that is a toolkit
// default, otherwise its text, otherwise its title.
func Label(w Widget) string {
	if name := w.Name(); !IsDefaultName(name) {
		return name
	}
	if text := w.Text(); text != "" {
		return text
	}
	return TitleOf(w)
}
