package hierarchy

import (
	"context"

	"Lookout/pkg/widget"
)

// Subtree restricts a hierarchy to one root and its descendants. Parent and
// containment relationships still come from the underlying hierarchy.
type Subtree struct {
	h    Hierarchy
	root widget.Widget
}

// NewSubtree returns the view of h below root.
func NewSubtree(h Hierarchy, root widget.Widget) *Subtree {
	return &Subtree{h: h, root: root}
}

// Root returns the designated root.
func (s *Subtree) Root() widget.Widget {
	return s.root
}

// Underlying returns the unrestricted hierarchy.
func (s *Subtree) Underlying() Hierarchy {
	return s.h
}

func (s *Subtree) Roots() []widget.Widget {
	if s.root == nil || !s.h.Contains(s.root) {
		return nil
	}
	return []widget.Widget{s.root}
}

func (s *Subtree) Components(w widget.Widget) []widget.Widget {
	if !s.Contains(w) {
		return nil
	}
	return s.h.Components(w)
}

func (s *Subtree) Parent(w widget.Widget) widget.Widget {
	return s.h.Parent(w)
}

// Contains reports whether w is visible through the underlying hierarchy and
// lies at or below the root.
func (s *Subtree) Contains(w widget.Widget) bool {
	return w != nil && s.h.Contains(w) && IsDescendant(s.h, w, s.root)
}

func (s *Subtree) Dispose(ctx context.Context, w widget.Widget) {
	s.h.Dispose(ctx, w)
}
