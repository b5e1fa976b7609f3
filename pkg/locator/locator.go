// Package locator describes how to find a widget again.
//
// A Locator is a plain value (kind, name or label, optional index, optional
// parent and ancestor locators) that outlives the widget it was built from. It
// compiles to a matcher once, at construction, and can be resolved against any
// later state of the widget tree through the finder carried by a context.
package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"Lookout/pkg/finder"
	"Lookout/pkg/matcher"
	"Lookout/pkg/widget"
)

var (
	// ErrMissingClass is returned when a locator is built without a kind.
	ErrMissingClass = errors.New("locator requires a class")
	// ErrEmptyKey is returned for property lookups with an empty key.
	ErrEmptyKey = errors.New("property key must not be empty")
	// ErrNegativeIndex is returned for a negative sibling index.
	ErrNegativeIndex = errors.New("index must not be negative")
)

const noIndex = -1

// Locator is an immutable description of a widget's identity. Only its
// property map may change after construction.
type Locator struct {
	kind     widget.Kind
	byName   bool
	family   bool
	labeled  bool
	name     string
	index    int
	parent   *Locator
	ancestor *Locator
	ref      widget.Widget

	mu    sync.RWMutex
	props map[string]string

	m matcher.Matcher
}

// Option configures a Locator under construction.
type Option func(*Locator) error

// WithIndex sets the 0-based position among the matches. With a parent the
// position counts only matches directly under that parent.
func WithIndex(n int) Option {
	return func(l *Locator) error {
		if n < 0 {
			return ErrNegativeIndex
		}
		l.index = n
		return nil
	}
}

// WithParent requires the widget's direct parent to match p.
func WithParent(p *Locator) Option {
	return func(l *Locator) error {
		l.parent = p
		return nil
	}
}

// WithAncestor requires some ancestor of the widget to match a.
func WithAncestor(a *Locator) Option {
	return func(l *Locator) error {
		l.ancestor = a
		return nil
	}
}

// WithProp sets an auxiliary property.
func WithProp(key, value string) Option {
	return func(l *Locator) error {
		if key == "" {
			return ErrEmptyKey
		}
		l.props[key] = value
		return nil
	}
}

func build(l *Locator, opts []Option) (*Locator, error) {
	if l.kind == "" {
		return nil, ErrMissingClass
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.labeled {
		l.index = noIndex
	}
	l.m = l.compile()
	return l, nil
}

func newLocator(kind widget.Kind, nameOrLabel string) *Locator {
	return &Locator{kind: kind, name: nameOrLabel, index: noIndex, props: make(map[string]string)}
}

// New returns a locator for widgets of exactly kind.
func New(kind widget.Kind, nameOrLabel string, opts ...Option) (*Locator, error) {
	return build(newLocator(kind, nameOrLabel), opts)
}

// Family returns a locator accepting kind and all of its subtypes.
func Family(kind widget.Kind, nameOrLabel string, opts ...Option) (*Locator, error) {
	l := newLocator(kind, nameOrLabel)
	l.family = true
	return build(l, opts)
}

// ByClassName returns a locator comparing kinds by name, for kinds the current
// kind registry does not know.
func ByClassName(className, nameOrLabel string, opts ...Option) (*Locator, error) {
	l := newLocator(widget.Kind(className), nameOrLabel)
	l.byName = true
	return build(l, opts)
}

// LabeledText returns a locator for a text widget identified by the caption
// label next to it. Such locators are never indexed; WithIndex is ignored.
func LabeledText(kind widget.Kind, label string, opts ...Option) (*Locator, error) {
	l := newLocator(kind, label)
	l.labeled = true
	return build(l, opts)
}

// Ref returns a locator that matches exactly the widget w. It panics with
// ErrMissingClass when w is nil.
func Ref(w widget.Widget) *Locator {
	if w == nil {
		panic(ErrMissingClass)
	}
	l := newLocator(w.Kind(), widget.Label(w))
	l.ref = w
	l.m = matcher.Is(w)
	return l
}

// Must panics if err is not nil. It is meant for locators written as literals.
func Must(l *Locator, err error) *Locator {
	if err != nil {
		panic(err)
	}
	return l
}

// compile builds the matcher: a class check, then name or label, then the
// index, then the parent and ancestor constraints.
func (l *Locator) compile() matcher.Matcher {
	var m matcher.Matcher
	switch {
	case l.byName:
		m = matcher.ClassName(string(l.kind))
	case l.family:
		m = matcher.Class(l.kind, false)
	default:
		m = matcher.ExactClass(l.kind)
	}

	if l.name != "" {
		if l.labeled {
			m = matcher.And(m, matcher.LabeledBy(l.name))
		} else {
			m = matcher.And(m, matcher.NameOrText(l.name))
		}
	}

	switch {
	case l.index >= 0 && l.parent != nil:
		m = matcher.IndexedChild(m, l.parent.m, l.index)
	case l.index >= 0:
		m = matcher.Index(m, l.index)
	case l.parent != nil:
		m = matcher.Parent(m, l.parent.m)
	}

	if l.ancestor != nil {
		m = matcher.Ancestor(m, l.ancestor.m)
	}
	return m
}

// Matcher returns the compiled matcher.
func (l *Locator) Matcher() matcher.Matcher { return l.m }

func (l *Locator) Kind() widget.Kind   { return l.kind }
func (l *Locator) NameOrLabel() string { return l.name }
func (l *Locator) Parent() *Locator    { return l.parent }
func (l *Locator) Ancestor() *Locator  { return l.ancestor }
func (l *Locator) IsLabeled() bool     { return l.labeled }
func (l *Locator) IsFamily() bool      { return l.family }
func (l *Locator) IsByName() bool      { return l.byName }

// Index returns the sibling index and whether one is assigned.
func (l *Locator) Index() (int, bool) {
	return l.index, l.index >= 0
}

// Widget returns the referenced widget of a Ref locator, nil otherwise.
func (l *Locator) Widget() widget.Widget { return l.ref }

// ========================================
// Properties
// ========================================

// Prop returns the property stored under key.
func (l *Locator) Prop(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.props[key]
	return v, ok, nil
}

// SetProp stores value under key.
func (l *Locator) SetProp(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.props[key] = value
	return nil
}

// Props returns a copy of the property map.
func (l *Locator) Props() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.props))
	for k, v := range l.props {
		out[k] = v
	}
	return out
}

// ========================================
// Equality and display
// ========================================

// Equal reports structural equality: same kind and kind mode, name or label,
// index, parent and ancestor chains and properties. Ref locators are equal when
// they reference the same widget.
func (l *Locator) Equal(o *Locator) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil {
		return false
	}
	if (l.ref == nil) != (o.ref == nil) {
		return false
	}
	if l.ref != nil {
		return widget.Same(l.ref, o.ref)
	}
	if l.kind != o.kind || l.byName != o.byName || l.family != o.family || l.labeled != o.labeled ||
		l.name != o.name || l.index != o.index {
		return false
	}
	if !l.parent.Equal(o.parent) || !l.ancestor.Equal(o.ancestor) {
		return false
	}
	return equalProps(l.Props(), o.Props())
}

func equalProps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// String renders the locator, e.g. `Button "ok" [0] in Frame "Main"`.
func (l *Locator) String() string {
	var b strings.Builder
	switch {
	case l.ref != nil:
		b.WriteString("ref ")
	case l.family:
		b.WriteString("any ")
	case l.byName:
		b.WriteString("class ")
	}
	b.WriteString(string(l.kind))
	if l.name != "" {
		if l.labeled {
			fmt.Fprintf(&b, " labeled %q", l.name)
		} else {
			fmt.Fprintf(&b, " %q", l.name)
		}
	}
	if l.index >= 0 {
		fmt.Fprintf(&b, " [%d]", l.index)
	}
	if props := l.Props(); len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + props[k]
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(parts, ", "))
	}
	if l.parent != nil {
		fmt.Fprintf(&b, " in %s", l.parent)
	}
	if l.ancestor != nil {
		fmt.Fprintf(&b, " within %s", l.ancestor)
	}
	return b.String()
}

// ========================================
// Resolution
// ========================================

// Resolve finds the widget described by l with the finder carried by ctx.
func (l *Locator) Resolve(ctx context.Context) (widget.Widget, error) {
	f, err := finder.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return f.Find(l.m)
}

// FindAll returns a Ref locator for every widget l currently matches.
func (l *Locator) FindAll(ctx context.Context) ([]*Locator, error) {
	f, err := finder.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	matches := f.FindAll(l.m)
	out := make([]*Locator, 0, len(matches))
	for _, w := range matches {
		out = append(out, Ref(w))
	}
	return out, nil
}
