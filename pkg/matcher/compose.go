package matcher

import (
	"fmt"
	"strings"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/widget"
)

// ========================================
// Boolean composition
// ========================================

type andMatcher struct {
	ms []Matcher
}

// And matches widgets every m matches. Evaluation stops at the first failure.
func And(ms ...Matcher) Matcher {
	flat := make([]Matcher, 0, len(ms))
	for _, m := range ms {
		if a, ok := m.(*andMatcher); ok {
			flat = append(flat, a.ms...)
		} else if m != nil {
			flat = append(flat, m)
		}
	}
	return &andMatcher{ms: flat}
}

func (m *andMatcher) Matches(s *Scope, w widget.Widget) bool {
	for _, x := range m.ms {
		if !x.Matches(s, w) {
			return false
		}
	}
	return true
}

func (m *andMatcher) String() string {
	parts := make([]string, len(m.ms))
	for i, x := range m.ms {
		parts[i] = x.String()
	}
	return "And(" + strings.Join(parts, ", ") + ")"
}

type notMatcher struct {
	m Matcher
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return &notMatcher{m: m}
}

func (m *notMatcher) Matches(s *Scope, w widget.Widget) bool {
	return w != nil && !m.m.Matches(s, w)
}

func (m *notMatcher) String() string {
	return fmt.Sprintf("Not(%s)", m.m)
}

// ========================================
// Hierarchy composition
// ========================================

type parentMatcher struct {
	target, parent Matcher
}

// Parent matches widgets matching target whose logical parent matches parent.
func Parent(target, parent Matcher) Matcher {
	return &parentMatcher{target: target, parent: parent}
}

func (m *parentMatcher) Matches(s *Scope, w widget.Widget) bool {
	if !m.target.Matches(s, w) {
		return false
	}
	p := s.H.Parent(w)
	return p != nil && m.parent.Matches(s, p)
}

func (m *parentMatcher) String() string {
	return fmt.Sprintf("Parent(%s, %s)", m.target, m.parent)
}

type ancestorMatcher struct {
	target, ancestor Matcher
}

// Ancestor matches widgets matching target with some ancestor, not necessarily
// the direct parent, matching ancestor.
func Ancestor(target, ancestor Matcher) Matcher {
	return &ancestorMatcher{target: target, ancestor: ancestor}
}

func (m *ancestorMatcher) Matches(s *Scope, w widget.Widget) bool {
	if !m.target.Matches(s, w) {
		return false
	}
	for _, a := range hierarchy.Ancestors(s.H, w) {
		if m.ancestor.Matches(s, a) {
			return true
		}
	}
	return false
}

func (m *ancestorMatcher) String() string {
	return fmt.Sprintf("Ancestor(%s, %s)", m.target, m.ancestor)
}

// ========================================
// Index composition
// ========================================

type indexMatcher struct {
	inner Matcher
	n     int
}

// Index matches the n-th (0-based) widget, in post-order over the searched
// hierarchy, among those inner matches. The ordering is computed once per
// Scope. A negative n panics.
func Index(inner Matcher, n int) Matcher {
	if n < 0 {
		panic("matcher: negative index")
	}
	return &indexMatcher{inner: inner, n: n}
}

func (m *indexMatcher) Matches(s *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	order := s.Memo(m, func() any {
		var out []widget.ID
		hierarchy.Walk(s.H, func(x widget.Widget) bool {
			if m.inner.Matches(s, x) {
				out = append(out, x.ID())
			}
			return len(out) <= m.n
		})
		return out
	}).([]widget.ID)
	return len(order) > m.n && order[m.n] == w.ID()
}

func (m *indexMatcher) String() string {
	return fmt.Sprintf("Index(%s, %d)", m.inner, m.n)
}

type indexedChildMatcher struct {
	target, parent Matcher
	n              int
}

type childKey struct {
	m      *indexedChildMatcher
	parent widget.ID
}

// IndexedChild matches the n-th (0-based) component, among the target matches
// directly under a widget matching parent.
func IndexedChild(target, parent Matcher, n int) Matcher {
	if n < 0 {
		panic("matcher: negative index")
	}
	return &indexedChildMatcher{target: target, parent: parent, n: n}
}

func (m *indexedChildMatcher) Matches(s *Scope, w widget.Widget) bool {
	if !m.target.Matches(s, w) {
		return false
	}
	p := s.H.Parent(w)
	if p == nil || !m.parent.Matches(s, p) {
		return false
	}
	order := s.Memo(childKey{m: m, parent: p.ID()}, func() any {
		var out []widget.ID
		for _, c := range s.H.Components(p) {
			if m.target.Matches(s, c) {
				out = append(out, c.ID())
			}
		}
		return out
	}).([]widget.ID)
	return len(order) > m.n && order[m.n] == w.ID()
}

func (m *indexedChildMatcher) String() string {
	return fmt.Sprintf("IndexedChild(%s, %s, %d)", m.target, m.parent, m.n)
}

// ========================================
// Labels
// ========================================

type labeledByMatcher struct {
	label string
}

// LabeledBy matches a widget captioned by a label whose text matches label.
// The caption is a sibling label that either declares the widget as its
// target, or declares no target and immediately precedes the widget.
func LabeledBy(label string) Matcher {
	return &labeledByMatcher{label: label}
}

func (m *labeledByMatcher) Matches(s *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	c := Caption(s, w)
	return c != nil && MatchString(m.label, c.Text())
}

func (m *labeledByMatcher) String() string {
	return fmt.Sprintf("LabeledBy(%q)", m.label)
}

// Caption returns the label captioning w, nil if there is none.
func Caption(s *Scope, w widget.Widget) widget.Widget {
	p := s.H.Parent(w)
	if p == nil {
		return nil
	}
	siblings := s.H.Components(p)
	for _, c := range siblings {
		if target := labelTarget(s, c); target != nil && widget.Same(target, w) {
			return c
		}
	}
	for i, c := range siblings {
		if !widget.Same(c, w) {
			continue
		}
		if i > 0 {
			prev := siblings[i-1]
			if s.IsA(prev, widget.KindLabel) && labelTarget(s, prev) == nil {
				return prev
			}
		}
		return nil
	}
	return nil
}

func labelTarget(s *Scope, c widget.Widget) widget.Widget {
	if !s.IsA(c, widget.KindLabel) {
		return nil
	}
	if l, ok := c.(widget.Labeler); ok {
		return l.LabelFor()
	}
	return nil
}
