// Package finder resolves matchers against a hierarchy.
//
// A search walks the hierarchy in post-order, so a widget's descendants are
// tested before the widget itself, and resolves the matches to exactly one
// widget or a typed failure. Every search is a single synchronous attempt;
// waiting for a widget to appear is up to the caller.
package finder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/matcher"
	"Lookout/pkg/widget"
)

// ErrNoFinder is returned when a context carries no finder.
var ErrNoFinder = errors.New("no finder in context")

// Finder searches one hierarchy.
type Finder struct {
	h            hierarchy.Hierarchy
	kinds        *widget.Registry
	shortCircuit bool
	log          zerolog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithShortCircuit stops a search at the first post-order match, which is the
// deepest match on the first matching branch. Ambiguity is then no longer
// reported for plain matchers. MultiMatchers always see every candidate.
func WithShortCircuit() Option {
	return func(f *Finder) { f.shortCircuit = true }
}

// WithLogger sets the logger for search diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Finder) { f.log = l }
}

// New returns a finder over h. kinds is the registry matchers use for kind
// checks; nil selects the default registry.
func New(h hierarchy.Hierarchy, kinds *widget.Registry, opts ...Option) *Finder {
	if kinds == nil {
		kinds = widget.DefaultRegistry()
	}
	f := &Finder{h: h, kinds: kinds, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With().Str("module", "finder").Logger()
	return f
}

// Hierarchy returns the searched hierarchy.
func (f *Finder) Hierarchy() hierarchy.Hierarchy {
	return f.h
}

// Kinds returns the kind registry used by searches.
func (f *Finder) Kinds() *widget.Registry {
	return f.kinds
}

// Scope returns a fresh search scope over the full hierarchy.
func (f *Finder) Scope() *matcher.Scope {
	return matcher.NewScope(f.h, f.kinds)
}

// Find resolves m against the whole hierarchy.
func (f *Finder) Find(m matcher.Matcher) (widget.Widget, error) {
	return f.find(f.h, m)
}

// FindIn resolves m against root and its descendants.
func (f *Finder) FindIn(root widget.Widget, m matcher.Matcher) (widget.Widget, error) {
	return f.find(hierarchy.NewSubtree(f.h, root), m)
}

// FindAll returns every widget m matches, in post-order.
func (f *Finder) FindAll(m matcher.Matcher) []widget.Widget {
	return f.collect(f.h, m, matcher.NewScope(f.h, f.kinds), false)
}

// FindAllIn returns every widget below root that m matches, in post-order.
func (f *Finder) FindAllIn(root widget.Widget, m matcher.Matcher) []widget.Widget {
	h := hierarchy.NewSubtree(f.h, root)
	return f.collect(h, m, matcher.NewScope(h, f.kinds), false)
}

func (f *Finder) collect(h hierarchy.Hierarchy, m matcher.Matcher, s *matcher.Scope, stopAtFirst bool) []widget.Widget {
	var found []widget.Widget
	hierarchy.Walk(h, func(w widget.Widget) bool {
		if m.Matches(s, w) {
			found = append(found, w)
			return !stopAtFirst
		}
		return true
	})
	return found
}

func (f *Finder) find(h hierarchy.Hierarchy, m matcher.Matcher) (widget.Widget, error) {
	start := time.Now()
	s := matcher.NewScope(h, f.kinds)
	mm, isMulti := m.(MultiMatcher)
	found := f.collect(h, m, s, f.shortCircuit && !isMulti)

	f.log.Debug().
		Str("matcher", m.String()).
		Int("matches", len(found)).
		Dur("elapsed", time.Since(start)).
		Msg("search")

	switch {
	case len(found) == 0:
		return nil, &NotFoundError{Matcher: m.String()}
	case len(found) == 1:
		return found[0], nil
	case isMulti:
		return mm.BestMatch(s, found)
	default:
		return nil, NewMultipleFoundError(h, m.String(), found)
	}
}

// ========================================
// Ambient finder
// ========================================

type ctxKey struct{}

// NewContext returns a context carrying f as the active finder.
func NewContext(ctx context.Context, f *Finder) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// FromContext returns the active finder of ctx.
func FromContext(ctx context.Context) (*Finder, error) {
	f, ok := ctx.Value(ctxKey{}).(*Finder)
	if !ok || f == nil {
		return nil, ErrNoFinder
	}
	return f, nil
}
