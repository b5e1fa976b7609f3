package memtk

import (
	"context"
	"time"

	"Lookout/pkg/widget"
)

// ========================================
// Listener dispatch and robot input
// ========================================

// Subscribe registers fn for every input and window event. Events are delivered
// on the UI goroutine in the order they were raised.
func (t *Toolkit) Subscribe(fn func(widget.Event)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.nextSub
	t.nextSub++
	t.eventSubs[key] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.eventSubs, key)
	}
}

func (t *Toolkit) emit(ev widget.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	t.mu.RLock()
	if len(t.eventSubs) == 0 {
		t.mu.RUnlock()
		return
	}
	t.mu.RUnlock()

	err := t.Post(func(context.Context) {
		t.mu.RLock()
		subs := make([]func(widget.Event), 0, len(t.eventSubs))
		for _, fn := range t.eventSubs {
			subs = append(subs, fn)
		}
		t.mu.RUnlock()
		for _, fn := range subs {
			fn(ev)
		}
	})
	if err != nil {
		t.log.Debug().Err(err).Str("event", string(ev.Type)).Msg("event dropped")
	}
}

func (t *Toolkit) pointer(n *Node, typ widget.EventType) widget.Event {
	x, y := n.Bounds().Center()
	return widget.Event{Type: typ, Target: n, X: x, Y: y}
}

// Click simulates a mouse click on the center of n.
func (t *Toolkit) Click(n *Node) {
	t.emit(t.pointer(n, widget.EventClick))
}

// DoubleClick simulates a double click on the center of n.
func (t *Toolkit) DoubleClick(n *Node) {
	t.emit(t.pointer(n, widget.EventDoubleClick))
}

// Type simulates typing text into n. The text is appended to the widget's text
// and reported one event per call.
func (t *Toolkit) Type(n *Node, text string) {
	t.mu.Lock()
	n.text += text
	t.mu.Unlock()
	t.emit(widget.Event{Type: widget.EventTyping, Target: n, Text: text})
}

// Key simulates pressing a named key (e.g. "Enter") on n.
func (t *Toolkit) Key(n *Node, key string) {
	t.emit(widget.Event{Type: widget.EventKey, Target: n, Text: key})
}

// Select simulates choosing value in a list-like widget.
func (t *Toolkit) Select(n *Node, value string) {
	t.emit(widget.Event{Type: widget.EventSelect, Target: n, Text: value})
}

// Hover simulates the pointer moving over n at (x, y).
func (t *Toolkit) Hover(n *Node, x, y int) {
	t.emit(widget.Event{Type: widget.EventHover, Target: n, X: x, Y: y})
}

// Sync blocks until every task posted before the call has run.
func (t *Toolkit) Sync(ctx context.Context) error {
	return widget.InvokeAndWait(ctx, t, 0, func(context.Context) error { return nil })
}
