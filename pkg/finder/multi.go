package finder

import (
	"fmt"

	"Lookout/pkg/matcher"
	"Lookout/pkg/widget"
)

// MultiMatcher is a Matcher that can choose among several matches.
type MultiMatcher interface {
	matcher.Matcher
	// BestMatch picks one of candidates (never empty) or fails with a
	// *MultipleFoundError. It must be deterministic for a candidate set.
	BestMatch(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error)
}

type multi struct {
	matcher.Matcher
	desc     string
	tieBreak func(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error)
}

func (m *multi) BestMatch(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error) {
	return m.tieBreak(s, candidates)
}

func (m *multi) String() string {
	return m.desc
}

// Multi turns m into a MultiMatcher using tieBreak.
func Multi(m matcher.Matcher, tieBreak func(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error)) MultiMatcher {
	return &multi{Matcher: m, desc: fmt.Sprintf("Multi(%s)", m), tieBreak: tieBreak}
}

// PreferShowing resolves ambiguity in favour of the only showing candidate.
func PreferShowing(m matcher.Matcher) MultiMatcher {
	mm := &multi{Matcher: m, desc: fmt.Sprintf("PreferShowing(%s)", m)}
	mm.tieBreak = func(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error) {
		var showing []widget.Widget
		for _, w := range candidates {
			if w.Showing() {
				showing = append(showing, w)
			}
		}
		switch len(showing) {
		case 1:
			return showing[0], nil
		case 0:
			return nil, NewMultipleFoundError(s.H, mm.desc, candidates)
		default:
			return nil, NewMultipleFoundError(s.H, mm.desc, showing)
		}
	}
	return mm
}

// Smallest resolves ambiguity in favour of the candidate with the smallest
// bounds, which for position matchers is the innermost widget at the point.
// Candidates without bounds are ignored; a tie fails.
func Smallest(m matcher.Matcher) MultiMatcher {
	mm := &multi{Matcher: m, desc: fmt.Sprintf("Smallest(%s)", m)}
	mm.tieBreak = func(s *matcher.Scope, candidates []widget.Widget) (widget.Widget, error) {
		var best []widget.Widget
		bestArea := -1
		for _, w := range candidates {
			r, ok := widget.BoundsOf(w)
			if !ok {
				continue
			}
			switch a := r.Area(); {
			case bestArea < 0 || a < bestArea:
				best, bestArea = []widget.Widget{w}, a
			case a == bestArea:
				best = append(best, w)
			}
		}
		if len(best) == 1 {
			return best[0], nil
		}
		if len(best) == 0 {
			best = candidates
		}
		return nil, NewMultipleFoundError(s.H, mm.desc, best)
	}
	return mm
}

// AtPoint matches the innermost showing widget whose bounds contain (x, y).
func AtPoint(x, y int) MultiMatcher {
	mm := Smallest(matcher.And(matcher.At(x, y), matcher.Showing())).(*multi)
	mm.desc = fmt.Sprintf("AtPoint(%d,%d)", x, y)
	return mm
}
