package hierarchy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"Lookout/pkg/widget"
)

// Session is a hierarchy for one test session. It hides filtered widgets: the
// windows present when the session started (IgnoreExisting) and windows the
// session disposed.
//
// Filtering is a live predicate. A widget is filtered when it is marked, when
// it is a window whose parent or owner is filtered, or when the window that
// contains it is filtered. Windows opened later by a filtered window are hidden
// as well, without being marked.
//
// Marks are keyed by widget ID. When the toolkit reports released handles the
// marks for them are dropped, so the registry does not grow with every window
// ever disposed.
type Session struct {
	base *Base
	log  zerolog.Logger

	mu       sync.RWMutex
	filtered map[widget.ID]bool

	cancelRelease func()
}

// NewSession returns a session hierarchy over tk.
func NewSession(tk widget.Toolkit, opts ...Option) *Session {
	c := newConfig(opts)
	s := &Session{
		base:     newBase(tk, c),
		log:      c.log,
		filtered: make(map[widget.ID]bool),
	}
	if rn, ok := tk.(widget.ReleaseNotifier); ok {
		s.cancelRelease = rn.OnReleased(s.forget)
	}
	if c.ignoreExisting {
		s.IgnoreExisting()
	}
	return s
}

// Base returns the unfiltered hierarchy underneath s.
func (s *Session) Base() *Base {
	return s.base
}

// Kinds returns the kind registry of the underlying toolkit.
func (s *Session) Kinds() *widget.Registry {
	return s.base.kinds
}

// Close stops listening for release notifications.
func (s *Session) Close() {
	if s.cancelRelease != nil {
		s.cancelRelease()
		s.cancelRelease = nil
	}
}

func (s *Session) forget(id widget.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filtered, id)
}

// IgnoreExisting marks every current root filtered.
func (s *Session) IgnoreExisting() {
	roots := s.base.Roots()
	for _, w := range roots {
		s.SetFiltered(w, true)
	}
	s.log.Debug().Int("windows", len(roots)).Msg("ignoring existing windows")
}

// SetFiltered marks or unmarks w. The shared owner frame is never marked
// itself; the mark is applied to each of its components instead, so windows it
// comes to own later stay visible.
func (s *Session) SetFiltered(w widget.Widget, filtered bool) {
	if s.base.is(w, widget.KindSharedOwnerFrame) {
		for _, c := range s.base.Components(w) {
			s.SetFiltered(c, filtered)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if filtered {
		s.filtered[w.ID()] = true
	} else {
		delete(s.filtered, w.ID())
	}
}

// Marked returns the number of widgets currently marked filtered.
func (s *Session) Marked() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filtered)
}

func (s *Session) marked(w widget.Widget) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered[w.ID()]
}

// IsFiltered reports whether w is hidden from this session.
func (s *Session) IsFiltered(w widget.Widget) bool {
	seen := make(map[widget.ID]bool)
	for w != nil && !seen[w.ID()] {
		seen[w.ID()] = true
		if widget.IsReleased(w) {
			return true
		}
		if !ShowConsoleWindow && s.base.is(w, widget.KindConsole) {
			return true
		}
		if s.marked(w) {
			return true
		}
		if s.base.isWindow(w) {
			w = s.base.Parent(w)
		} else {
			w = s.windowOf(w)
		}
	}
	return false
}

// windowOf returns the nearest window above w.
func (s *Session) windowOf(w widget.Widget) widget.Widget {
	seen := map[widget.ID]bool{w.ID(): true}
	for p := s.base.Parent(w); p != nil && !seen[p.ID()]; p = s.base.Parent(p) {
		if s.base.isWindow(p) {
			return p
		}
		seen[p.ID()] = true
	}
	return nil
}

// Roots returns the unfiltered roots.
func (s *Session) Roots() []widget.Widget {
	return s.unfiltered(s.base.Roots())
}

// Components returns the unfiltered components of w.
func (s *Session) Components(w widget.Widget) []widget.Widget {
	return s.unfiltered(s.base.Components(w))
}

func (s *Session) unfiltered(ws []widget.Widget) []widget.Widget {
	out := ws[:0:0]
	for _, w := range ws {
		if !s.IsFiltered(w) {
			out = append(out, w)
		}
	}
	return out
}

// Parent returns the logical parent of w.
func (s *Session) Parent(w widget.Widget) widget.Widget {
	return s.base.Parent(w)
}

// Contains reports whether w is not filtered.
func (s *Session) Contains(w widget.Widget) bool {
	return w != nil && !s.IsFiltered(w)
}

// Dispose marks w filtered for the rest of the session and disposes it. For
// the shared owner frame only its showing components are marked.
func (s *Session) Dispose(ctx context.Context, w widget.Widget) {
	if w == nil {
		return
	}
	if s.base.is(w, widget.KindSharedOwnerFrame) {
		for _, c := range s.base.Components(w) {
			if c.Showing() {
				s.SetFiltered(c, true)
			}
		}
	} else {
		s.SetFiltered(w, true)
	}
	s.base.Dispose(ctx, w)
}
