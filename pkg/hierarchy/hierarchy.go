// Package hierarchy provides views over the live widget forest of a toolkit.
//
// Base exposes everything the toolkit knows about, adding the logical children
// a plain child enumeration misses (menu bars, owned windows, menu popups and
// iconified internal frames). Session layers a filter on top so that windows
// that existed before a test, or that the test disposed, stay invisible.
// Subtree restricts any hierarchy to the descendants of a single root.
//
// A hierarchy never freezes the tree. Each call reads the toolkit afresh, so a
// widget that disappears in the middle of a walk simply stops being enumerated.
package hierarchy

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"Lookout/pkg/widget"
)

// Hierarchy is a queryable, filterable view over the live widget tree.
type Hierarchy interface {
	// Roots returns the unfiltered top-level windows.
	Roots() []widget.Widget
	// Components returns the direct logical children of w.
	Components(w widget.Widget) []widget.Widget
	// Parent returns the logical parent of w, nil for roots.
	Parent(w widget.Widget) widget.Widget
	// Contains reports whether w is visible through this view.
	Contains(w widget.Widget) bool
	// Dispose disposes window w and the windows it owns. Failures are logged,
	// never returned.
	Dispose(ctx context.Context, w widget.Widget)
}

// DefaultDisposeTimeout bounds how long Dispose waits for the UI thread.
const DefaultDisposeTimeout = 10 * time.Second

// ShowConsoleWindow controls whether Session ever exposes console windows.
const ShowConsoleWindow = false

type config struct {
	console        bool
	ignoreExisting bool
	timeout        time.Duration
	log            zerolog.Logger
}

// Option configures Base and Session hierarchies.
type Option func(*config)

// WithConsole makes Base report console windows among its roots.
func WithConsole() Option {
	return func(c *config) { c.console = true }
}

// WithDisposeTimeout sets the bounded wait for UI-thread disposal.
func WithDisposeTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithLogger sets the logger used for disposal diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

// IgnoreExisting makes NewSession filter every window present at construction.
func IgnoreExisting() Option {
	return func(c *config) { c.ignoreExisting = true }
}

func newConfig(opts []Option) config {
	c := config{timeout: DefaultDisposeTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&c)
	}
	c.log = c.log.With().Str("module", "hierarchy").Logger()
	return c
}

// ========================================
// Traversal
// ========================================

// Walk visits every widget reachable from the roots of h in post-order: all of a
// widget's components are visited before the widget itself. visit returns false
// to stop the walk; Walk then returns false too. A widget reachable along more
// than one path is visited once.
func Walk(h Hierarchy, visit func(w widget.Widget) bool) bool {
	seen := make(map[widget.ID]bool)
	for _, root := range h.Roots() {
		if !walk(h, root, seen, visit) {
			return false
		}
	}
	return true
}

// WalkFrom is Walk restricted to root and its descendants.
func WalkFrom(h Hierarchy, root widget.Widget, visit func(w widget.Widget) bool) bool {
	return walk(h, root, make(map[widget.ID]bool), visit)
}

func walk(h Hierarchy, w widget.Widget, seen map[widget.ID]bool, visit func(widget.Widget) bool) bool {
	if w == nil || seen[w.ID()] {
		return true
	}
	seen[w.ID()] = true
	for _, c := range h.Components(w) {
		if !walk(h, c, seen, visit) {
			return false
		}
	}
	return visit(w)
}

// Ancestors returns the logical ancestors of w, nearest first.
func Ancestors(h Hierarchy, w widget.Widget) []widget.Widget {
	var out []widget.Widget
	seen := map[widget.ID]bool{w.ID(): true}
	for p := h.Parent(w); p != nil && !seen[p.ID()]; p = h.Parent(p) {
		seen[p.ID()] = true
		out = append(out, p)
	}
	return out
}

// IsDescendant reports whether w is root or lies below it.
func IsDescendant(h Hierarchy, w, root widget.Widget) bool {
	if widget.Same(w, root) {
		return true
	}
	for _, a := range Ancestors(h, w) {
		if widget.Same(a, root) {
			return true
		}
	}
	return false
}

// Path renders the containment path of w from its root, e.g.
// `Frame name="main" / Panel / Button name="ok"`.
func Path(h Hierarchy, w widget.Widget) string {
	anc := Ancestors(h, w)
	parts := make([]string, 0, len(anc)+1)
	for i := len(anc) - 1; i >= 0; i-- {
		parts = append(parts, shortDescribe(anc[i]))
	}
	parts = append(parts, shortDescribe(w))
	return strings.Join(parts, " / ")
}

func shortDescribe(w widget.Widget) string {
	s := widget.SimpleName(w.Kind())
	if name := w.Name(); name != "" && !widget.IsDefaultName(name) {
		return s + ` name="` + name + `"`
	}
	if title := widget.TitleOf(w); title != "" {
		return s + ` title="` + title + `"`
	}
	if text := w.Text(); text != "" {
		return s + ` text="` + text + `"`
	}
	return s
}
