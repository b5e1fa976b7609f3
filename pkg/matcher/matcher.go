// Package matcher provides predicates over single widgets.
//
// A Matcher is evaluated against a Scope, which carries the hierarchy being
// searched and caches that live only for one search. Matchers themselves are
// immutable and may be shared between goroutines and searches; anything a
// matcher needs to count (the Index matcher) is kept in the Scope.
package matcher

import (
	"regexp"
	"strings"
	"sync"

	"Lookout/pkg/hierarchy"
	"Lookout/pkg/widget"
)

// Matcher is a predicate over one widget.
//
// Matches must be free of side effects other than Scope caching. A finder may
// call it any number of times per widget, in any order.
type Matcher interface {
	Matches(s *Scope, w widget.Widget) bool
	// String describes the matcher for failure messages.
	String() string
}

// Scope is the context of one search.
type Scope struct {
	H     hierarchy.Hierarchy
	Kinds *widget.Registry

	mu    sync.Mutex
	cache map[any]any
}

// NewScope returns a fresh search scope over h.
func NewScope(h hierarchy.Hierarchy, kinds *widget.Registry) *Scope {
	if kinds == nil {
		kinds = widget.DefaultRegistry()
	}
	return &Scope{H: h, Kinds: kinds, cache: make(map[any]any)}
}

// Memo returns the value cached under key, computing it on first use. Values
// live as long as the scope.
func (s *Scope) Memo(key any, compute func() any) any {
	s.mu.Lock()
	if v, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	// compute may itself evaluate matchers that memoize, so it runs unlocked.
	v := compute()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cache[key]; ok {
		return prev
	}
	s.cache[key] = v
	return v
}

// IsA reports whether w's kind is kind or one of its subtypes.
func (s *Scope) IsA(w widget.Widget, kind widget.Kind) bool {
	return w != nil && s.Kinds.IsA(w.Kind(), kind)
}

var regexCache sync.Map // pattern -> *regexp.Regexp (nil when invalid)

// MatchString matches actual against pattern. A pattern bounded by slashes,
// like /^Save.*$/, is a regular expression; anything else must be equal.
// An invalid expression falls back to literal comparison.
func MatchString(pattern, actual string) bool {
	if re := compilePattern(pattern); re != nil {
		return re.MatchString(actual)
	}
	return pattern == actual
}

// IsRegex reports whether pattern uses the slash-delimited regex form.
func IsRegex(pattern string) bool {
	return len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/")
}

func compilePattern(pattern string) *regexp.Regexp {
	if !IsRegex(pattern) {
		return nil
	}
	if v, ok := regexCache.Load(pattern); ok {
		re, _ := v.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern[1 : len(pattern)-1])
	if err != nil {
		regexCache.Store(pattern, (*regexp.Regexp)(nil))
		return nil
	}
	regexCache.Store(pattern, re)
	return re
}
