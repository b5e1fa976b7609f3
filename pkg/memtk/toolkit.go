// Package memtk is an in-process widget toolkit.
//
// It keeps its widget graph in memory and runs a single UI goroutine that
// executes posted tasks, the way a native toolkit's event dispatch thread does.
// Tests, the recorder and the snapshot loader all build their widget trees on it.
package memtk

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"Lookout/pkg/widget"
)

// ErrClosed is returned by Post after Close.
var ErrClosed = errors.New("toolkit closed")

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithLogger sets the toolkit's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Toolkit) { t.log = l }
}

// WithKinds replaces the default kind registry.
func WithKinds(r *widget.Registry) Option {
	return func(t *Toolkit) { t.kinds = r }
}

// Toolkit is an in-memory widget toolkit with a single UI goroutine.
type Toolkit struct {
	mu          sync.RWMutex
	kinds       *widget.Registry
	nextID      uint64
	nodes       map[widget.ID]*Node
	windows     []*Node
	defaultSeq  map[string]int
	releaseSubs map[int]func(widget.ID)
	eventSubs   map[int]func(widget.Event)
	nextSub     int

	qmu    sync.Mutex
	queue  []func(ctx context.Context)
	closed bool
	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}

	log zerolog.Logger
}

// New starts a toolkit and its UI goroutine.
func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		kinds:       widget.DefaultRegistry(),
		nodes:       make(map[widget.ID]*Node),
		defaultSeq:  make(map[string]int),
		releaseSubs: make(map[int]func(widget.ID)),
		eventSubs:   make(map[int]func(widget.Event)),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.loop()
	return t
}

// Kinds returns the toolkit's kind registry.
func (t *Toolkit) Kinds() *widget.Registry {
	return t.kinds
}

// ========================================
// UI goroutine
// ========================================

// Post queues fn for the UI goroutine.
func (t *Toolkit) Post(fn func(ctx context.Context)) error {
	t.qmu.Lock()
	if t.closed {
		t.qmu.Unlock()
		return ErrClosed
	}
	t.queue = append(t.queue, fn)
	t.qmu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the UI goroutine after the tasks already queued have run.
func (t *Toolkit) Close() {
	t.qmu.Lock()
	if t.closed {
		t.qmu.Unlock()
		return
	}
	t.closed = true
	t.qmu.Unlock()
	close(t.done)
	<-t.exited
}

func (t *Toolkit) loop() {
	defer close(t.exited)
	ctx := widget.WithUIThread(context.Background())
	for {
		select {
		case <-t.wake:
			t.drain(ctx)
		case <-t.done:
			t.drain(ctx)
			return
		}
	}
}

func (t *Toolkit) drain(ctx context.Context) {
	for {
		t.qmu.Lock()
		batch := t.queue
		t.queue = nil
		t.qmu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			t.run(ctx, fn)
		}
	}
}

// run keeps the UI goroutine alive when a task panics.
func (t *Toolkit) run(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("UI task panicked")
		}
	}()
	fn(ctx)
}

// ========================================
// Construction
// ========================================

func (t *Toolkit) newNode(kind widget.Kind) *Node {
	t.nextID++
	n := &Node{
		tk:      t,
		id:      widget.ID(t.nextID),
		kind:    kind,
		visible: true,
	}
	t.nodes[n.id] = n
	return n
}

// defaultNameLocked assigns a toolkit-style default name such as "frame0".
func (t *Toolkit) defaultNameLocked(kind widget.Kind) string {
	var base string
	switch {
	case t.kinds.IsA(kind, widget.KindFrame):
		base = "frame"
	case t.kinds.IsA(kind, widget.KindDialog):
		base = "dialog"
	case t.kinds.IsA(kind, widget.KindWindow):
		base = "win"
	default:
		base = strings.ToLower(widget.SimpleName(kind))
	}
	seq := t.defaultSeq[base]
	t.defaultSeq[base] = seq + 1
	return fmt.Sprintf("%s%d", base, seq)
}

// NewFrame creates a visible top-level frame.
func (t *Toolkit) NewFrame(title string) *Node {
	return t.NewWindow(widget.KindFrame, nil, title)
}

// NewDialog creates a visible dialog owned by owner (nil for an ownerless dialog).
func (t *Toolkit) NewDialog(owner *Node, title string) *Node {
	return t.NewWindow(widget.KindDialog, owner, title)
}

// NewWindow creates a visible window of the given kind, optionally owned by owner.
// The window receives a default name; use SetName to give it a real one.
func (t *Toolkit) NewWindow(kind widget.Kind, owner *Node, title string) *Node {
	t.mu.Lock()
	n := t.newNode(kind)
	n.title = title
	n.name = t.defaultNameLocked(kind)
	if owner != nil {
		n.owner = owner
		owner.owned = append(owner.owned, n)
	}
	t.windows = append(t.windows, n)
	t.mu.Unlock()

	t.log.Debug().Uint64("id", uint64(n.id)).Str("kind", string(kind)).Str("title", title).Msg("window created")
	t.emit(widget.Event{Type: widget.EventWindowOpened, Target: n})
	return n
}

// NewWidget creates a visible, unparented component.
func (t *Toolkit) NewWidget(kind widget.Kind, name, text string) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.newNode(kind)
	n.name = name
	n.text = text
	return n
}

// Lookup returns the live node with the given ID.
func (t *Toolkit) Lookup(id widget.ID) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	return n, ok
}

// Windows returns every unreleased window, disposed or not, in creation order.
func (t *Toolkit) Windows() []widget.Widget {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]widget.Widget, 0, len(t.windows))
	for _, w := range t.windows {
		out = append(out, w)
	}
	return out
}

// ========================================
// Mutation
// ========================================

// Add appends children to parent, detaching them from any previous parent.
func (t *Toolkit) Add(parent *Node, children ...*Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range children {
		c.detachLocked()
		c.parent = parent
		parent.children = append(parent.children, c)
	}
}

// Remove detaches n from its parent.
func (t *Toolkit) Remove(n *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.detachLocked()
}

// SetMenuBar attaches bar to frame. The bar is not one of the frame's children.
func (t *Toolkit) SetMenuBar(frame, bar *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old := frame.menuBar; old != nil {
		old.parent = nil
	}
	frame.menuBar = bar
	if bar != nil {
		bar.detachLocked()
		bar.parent = frame
	}
}

// SetPopupMenu attaches popup as the item list of menu. The popup has no toolkit
// parent; it points back at menu as its invoker.
func (t *Toolkit) SetPopupMenu(menu, popup *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	menu.popup = popup
	if popup != nil {
		popup.detachLocked()
		popup.invoker = menu
	}
}

// SetInvoker sets the invoker of a context popup menu.
func (t *Toolkit) SetInvoker(popup, invoker *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	popup.invoker = invoker
}

// SetLabelFor declares that label captions target.
func (t *Toolkit) SetLabelFor(label, target *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	label.labelFor = target
}

// Iconify replaces an internal frame by its desktop icon. The icon is added to
// into, or to the frame's current parent when into is nil. The frame itself is
// removed from the containment tree and keeps a nil parent until deiconified.
func (t *Toolkit) Iconify(frame, into *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if frame.icon != nil && frame.icon.parent != nil {
		return
	}
	desktop := frame.parent
	if into == nil {
		into = desktop
	}
	if frame.icon == nil {
		icon := t.newNode(widget.KindDesktopIcon)
		icon.frame = frame
		frame.icon = icon
	}
	frame.desktop = desktop
	frame.detachLocked()
	if into != nil {
		frame.icon.parent = into
		into.children = append(into.children, frame.icon)
	}
}

// Deiconify puts an iconified internal frame back on its desktop pane.
func (t *Toolkit) Deiconify(frame *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if frame.icon == nil {
		return
	}
	frame.icon.detachLocked()
	if d := frame.desktop; d != nil {
		frame.parent = d
		d.children = append(d.children, frame)
	}
	frame.desktop = nil
}

// DetachIconTransiently removes an internal frame from its parent without linking
// its icon anywhere yet, reproducing the window in which the frame is unparented.
func (t *Toolkit) DetachIconTransiently(frame *Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	frame.detachLocked()
}

// SetVisible shows or hides n. Showing a disposed window makes it visible again.
func (t *Toolkit) SetVisible(n *Node, visible bool) {
	t.mu.Lock()
	wasVisible := n.visible
	n.visible = visible
	if visible {
		n.disposed = false
	}
	isWindow := t.kinds.IsA(n.kind, widget.KindWindow)
	t.mu.Unlock()

	if isWindow && visible && !wasVisible {
		t.emit(widget.Event{Type: widget.EventWindowOpened, Target: n})
	}
}

// SetName sets the programmatic name of n.
func (t *Toolkit) SetName(n *Node, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.name = name
}

// SetText sets the text of n.
func (t *Toolkit) SetText(n *Node, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.text = text
}

// SetTitle sets the title of a window or internal frame.
func (t *Toolkit) SetTitle(n *Node, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.title = title
}

// SetBounds sets the screen bounds of n.
func (t *Toolkit) SetBounds(n *Node, r widget.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.bounds = r
}

// SetAttr sets a raw binding attribute on n.
func (t *Toolkit) SetAttr(n *Node, key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// OnDispose installs a hook the toolkit runs on the UI goroutine while disposing n.
// It stands in for application code reacting to the window going away.
func (t *Toolkit) OnDispose(n *Node, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n.onDispose = fn
}

// Dispose hides window w and releases its native resources. It must run on the
// UI goroutine. Windows w owns are left alone.
func (t *Toolkit) Dispose(ctx context.Context, w widget.Widget) error {
	if !widget.OnUIThread(ctx) {
		return widget.ErrNotUIThread
	}
	n, ok := w.(*Node)
	if !ok || n.tk != t {
		return fmt.Errorf("dispose %s: not a widget of this toolkit", widget.Describe(w))
	}

	t.mu.Lock()
	n.visible = false
	n.disposed = true
	hook := n.onDispose
	t.mu.Unlock()

	t.log.Debug().Uint64("id", uint64(n.id)).Msg("window disposed")
	t.emit(widget.Event{Type: widget.EventWindowClosed, Target: n})
	if hook != nil {
		hook()
	}
	return nil
}

// Disposed reports whether n was disposed and not shown again since.
func (t *Toolkit) Disposed(n *Node) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return n.disposed
}

// Release retires n and its subtree for good and notifies release listeners.
// Windows owned by a released window are released with it.
func (t *Toolkit) Release(n *Node) {
	t.mu.Lock()
	var ids []widget.ID
	var walk func(*Node)
	walk = func(x *Node) {
		if x.released {
			return
		}
		x.released = true
		ids = append(ids, x.id)
		delete(t.nodes, x.id)
		for _, c := range x.children {
			walk(c)
		}
		if x.menuBar != nil {
			walk(x.menuBar)
		}
		if x.popup != nil {
			walk(x.popup)
		}
		for _, o := range x.owned {
			walk(o)
		}
	}
	n.detachLocked()
	if o := n.owner; o != nil {
		for i, w := range o.owned {
			if w == n {
				o.owned = append(o.owned[:i:i], o.owned[i+1:]...)
				break
			}
		}
	}
	walk(n)
	kept := t.windows[:0]
	for _, w := range t.windows {
		if !w.released {
			kept = append(kept, w)
		}
	}
	t.windows = kept
	subs := make([]func(widget.ID), 0, len(t.releaseSubs))
	for _, fn := range t.releaseSubs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, id := range ids {
		for _, fn := range subs {
			fn(id)
		}
	}
}

// OnReleased registers fn to be called with the ID of every released widget.
func (t *Toolkit) OnReleased(fn func(id widget.ID)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.nextSub
	t.nextSub++
	t.releaseSubs[key] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.releaseSubs, key)
	}
}
