package locator

import (
	"regexp"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/matcher"
	"Lookout/pkg/widget"
)

// Infer builds a locator for the live widget w as seen through h.
//
// The locator names w by its label, chains parent locators up to the enclosing
// window, and only assigns an index when siblings under the same parent would
// otherwise be indistinguishable. An unnamed text field captioned by a label
// becomes a LabeledText locator.
func Infer(h hierarchy.Hierarchy, kinds *widget.Registry, w widget.Widget) (*Locator, error) {
	if w == nil {
		return nil, ErrMissingClass
	}
	if kinds == nil {
		kinds = widget.DefaultRegistry()
	}
	s := matcher.NewScope(h, kinds)

	var parent *Locator
	isWindow := kinds.IsA(w.Kind(), widget.KindWindow)
	p := h.Parent(w)
	if p != nil && !isWindow {
		var err error
		if parent, err = Infer(h, kinds, p); err != nil {
			return nil, err
		}
	}

	if kinds.IsA(w.Kind(), widget.KindTextComponent) && widget.HasDefaultName(w) {
		if c := matcher.Caption(s, w); c != nil && c.Text() != "" {
			var opts []Option
			if parent != nil {
				opts = append(opts, WithParent(parent))
			}
			return LabeledText(w.Kind(), Literal(c.Text()), opts...)
		}
	}

	label := inferLabel(kinds, w)
	var opts []Option
	if parent != nil {
		opts = append(opts, WithParent(parent))
	}
	if p != nil && !isWindow {
		if n, ambiguous := siblingIndex(s, p, w, label); ambiguous {
			opts = append(opts, WithIndex(n))
		}
	}
	return New(w.Kind(), Literal(label), opts...)
}

// inferLabel is widget.Label, except that the content of a text component is
// not used as its identity.
func inferLabel(kinds *widget.Registry, w widget.Widget) string {
	if name := w.Name(); !widget.IsDefaultName(name) {
		return name
	}
	if kinds.IsA(w.Kind(), widget.KindTextComponent) {
		return widget.TitleOf(w)
	}
	return widget.Label(w)
}

// Literal returns label in a form that name, text and caption matchers compare
// literally. A label that happens to look like /regex/ is wrapped in an anchored,
// quoted expression; anything else is returned as is.
func Literal(label string) string {
	if matcher.IsRegex(label) {
		return "/^" + regexp.QuoteMeta(label) + "$/"
	}
	return label
}

// siblingIndex returns the position of w among the components of p that have
// its kind and label, and whether there is more than one such component.
func siblingIndex(s *matcher.Scope, p, w widget.Widget, label string) (int, bool) {
	m := matcher.ExactClass(w.Kind())
	if label != "" {
		m = matcher.And(m, matcher.NameOrText(Literal(label)))
	}
	pos, count := -1, 0
	for _, c := range s.H.Components(p) {
		if !m.Matches(s, c) {
			continue
		}
		if widget.Same(c, w) {
			pos = count
		}
		count++
	}
	return pos, count > 1 && pos >= 0
}
