package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"Lookout/pkg/widget"
)

// Base is the unfiltered view of everything the toolkit knows about.
type Base struct {
	tk      widget.Toolkit
	kinds   *widget.Registry
	console bool
	timeout time.Duration
	log     zerolog.Logger
}

// NewBase returns the unfiltered hierarchy of tk.
func NewBase(tk widget.Toolkit, opts ...Option) *Base {
	c := newConfig(opts)
	return newBase(tk, c)
}

func newBase(tk widget.Toolkit, c config) *Base {
	return &Base{
		tk:      tk,
		kinds:   tk.Kinds(),
		console: c.console,
		timeout: c.timeout,
		log:     c.log,
	}
}

// Kinds returns the kind registry of the underlying toolkit.
func (b *Base) Kinds() *widget.Registry {
	return b.kinds
}

func (b *Base) is(w widget.Widget, kind widget.Kind) bool {
	return w != nil && b.kinds.IsA(w.Kind(), kind)
}

func (b *Base) isWindow(w widget.Widget) bool {
	return b.is(w, widget.KindWindow)
}

// Roots returns the toolkit windows that have no owner. Console windows are
// left out unless the hierarchy was built WithConsole.
func (b *Base) Roots() []widget.Widget {
	var roots []widget.Widget
	for _, w := range b.tk.Windows() {
		if owner(w) != nil {
			continue
		}
		if !b.console && b.is(w, widget.KindConsole) {
			continue
		}
		roots = append(roots, w)
	}
	return roots
}

// Components returns the toolkit children of w plus the logical children the
// toolkit does not list: the menu bar of a frame, the windows owned by a
// window, the popup of a menu, and the iconified internal frames of a desktop
// pane.
func (b *Base) Components(w widget.Widget) []widget.Widget {
	if w == nil {
		return nil
	}
	out := w.Children()
	seen := make(map[widget.ID]bool, len(out))
	for _, c := range out {
		seen[c.ID()] = true
	}
	add := func(c widget.Widget) {
		if c != nil && !seen[c.ID()] {
			seen[c.ID()] = true
			out = append(out, c)
		}
	}

	if mb, ok := w.(widget.MenuBarHolder); ok {
		add(mb.MenuBar())
	}
	if b.isWindow(w) {
		if o, ok := w.(widget.Owner); ok {
			for _, ow := range o.OwnedWindows() {
				add(ow)
			}
		}
	}
	if b.is(w, widget.KindMenu) {
		if ph, ok := w.(widget.PopupHolder); ok {
			add(ph.PopupMenu())
		}
	}
	if b.is(w, widget.KindDesktopPane) {
		for _, f := range b.iconifiedFrames(w) {
			add(f)
		}
	}
	return out
}

// iconifiedFrames finds the internal frames reachable only through desktop
// icons below c, descending into nested containers such as icon managers.
func (b *Base) iconifiedFrames(c widget.Widget) []widget.Widget {
	var out []widget.Widget
	for _, child := range c.Children() {
		switch {
		case b.is(child, widget.KindDesktopIcon):
			if p, ok := child.(widget.IconProxy); ok {
				if f := p.InternalFrame(); f != nil {
					out = append(out, f)
				}
			}
		case b.is(child, widget.KindInternalFrame):
		default:
			out = append(out, b.iconifiedFrames(child)...)
		}
	}
	return out
}

// Parent returns the toolkit parent of w. When there is none it falls back to
// the owner of an owned window, the menu a popup belongs to, or the desktop
// pane holding the icon of an internal frame whose parent is transiently unset.
func (b *Base) Parent(w widget.Widget) widget.Widget {
	if w == nil {
		return nil
	}
	if p := w.Parent(); p != nil {
		return p
	}
	if b.isWindow(w) {
		return owner(w)
	}
	if pi, ok := w.(widget.PopupInvoker); ok {
		if inv := pi.Invoker(); inv != nil && b.is(inv, widget.KindMenu) {
			if ph, ok := inv.(widget.PopupHolder); ok && widget.Same(ph.PopupMenu(), w) {
				return inv
			}
		}
	}
	if ic, ok := w.(widget.Iconifiable); ok {
		if icon := ic.DesktopIcon(); icon != nil {
			return b.desktopOf(icon)
		}
	}
	return nil
}

// desktopOf returns the nearest desktop pane above icon, or the icon's own
// parent when there is none.
func (b *Base) desktopOf(icon widget.Widget) widget.Widget {
	first := icon.Parent()
	for p := first; p != nil; p = p.Parent() {
		if b.is(p, widget.KindDesktopPane) {
			return p
		}
	}
	return first
}

// Contains always reports true; everything the toolkit knows is visible.
func (b *Base) Contains(widget.Widget) bool {
	return true
}

// Dispose disposes window w on the UI thread, waiting at most the configured
// timeout. Windows owned by w are disposed first. Applet frames are never
// disposed, and the shared owner frame only has its owned windows disposed.
func (b *Base) Dispose(ctx context.Context, w widget.Widget) {
	if w == nil {
		return
	}
	if b.is(w, widget.KindAppletFrame) {
		b.log.Debug().Str("window", widget.Describe(w)).Msg("applet frame is never disposed")
		return
	}
	err := widget.InvokeAndWait(ctx, b.tk, b.timeout, func(uiCtx context.Context) error {
		b.disposeWindow(uiCtx, w)
		return nil
	})
	b.absorb(w, err)
}

func (b *Base) disposeWindow(ctx context.Context, w widget.Widget) {
	if b.is(w, widget.KindAppletFrame) {
		return
	}
	if o, ok := w.(widget.Owner); ok {
		for _, ow := range o.OwnedWindows() {
			b.disposeWindow(ctx, ow)
		}
	}
	if b.is(w, widget.KindSharedOwnerFrame) {
		return
	}
	b.absorb(w, guard(func() error { return b.tk.Dispose(ctx, w) }))
}

// absorb logs a disposal failure. Exit requests from the application and the
// nil-pointer race some toolkits hit while firing hierarchy events are expected
// and logged at warn level; nothing propagates.
func (b *Base) absorb(w widget.Widget, err error) {
	if err == nil {
		return
	}
	desc := widget.Describe(w)

	var exit widget.ExitRequest
	if errors.As(err, &exit) {
		b.log.Warn().Str("window", desc).Int("code", exit.Code).Msg("application requested exit during dispose, ignored")
		return
	}
	var rtErr runtime.Error
	if errors.As(err, &rtErr) && strings.Contains(rtErr.Error(), "nil pointer") {
		b.log.Warn().Str("window", desc).Err(err).Msg("nil pointer during dispose, ignored")
		return
	}
	b.log.Error().Str("window", desc).Err(err).Msg("dispose failed")
}

// guard turns a panic in fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &widget.PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

func owner(w widget.Widget) widget.Widget {
	if o, ok := w.(widget.Owned); ok {
		return o.Owner()
	}
	return nil
}

func (b *Base) String() string {
	return fmt.Sprintf("Base(%d windows)", len(b.tk.Windows()))
}
