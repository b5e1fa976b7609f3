// Package jsmatch compiles JavaScript boolean expressions into matchers, for
// predicates too ad hoc to deserve a Go matcher, e.g.
//
//	w.name.startsWith("btn_") && isA("Button") && w.attrs.enabled == "true"
package jsmatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"Lookout/pkg/matcher"
	"Lookout/pkg/widget"
)

// DefaultTimeout bounds one evaluation of an expression.
const DefaultTimeout = time.Second

type Option func(*Matcher)

func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) { m.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Matcher) { m.log = l.With().Str("module", "jsmatch").Logger() }
}

// Matcher evaluates a compiled expression with the widget bound to `w`.
//
// Available in the expression:
//
//	w        {id, kind, name, text, title, showing, attrs, bounds}
//	isA(k)   w's kind is k or a subtype of k
//	match(p, s)  Lookout string matching, /regex/ or literal
//
// A script error or timeout counts as no match.
type Matcher struct {
	expr    string
	prog    *goja.Program
	timeout time.Duration
	log     zerolog.Logger

	// goja.Runtime is not safe for concurrent use.
	mu    sync.Mutex
	vm    *goja.Runtime
	scope *matcher.Scope
	cur   widget.Widget
}

// Compile parses expr. Syntax errors are reported here rather than at match time.
func Compile(expr string, opts ...Option) (*Matcher, error) {
	prog, err := goja.Compile("matcher", "("+expr+"\n)", true)
	if err != nil {
		return nil, fmt.Errorf("invalid matcher expression: %w", err)
	}
	m := &Matcher{
		expr:    expr,
		prog:    prog,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
		vm:      goja.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.injectHelpers()
	return m, nil
}

// MustCompile is Compile for expressions known to be valid.
func MustCompile(expr string, opts ...Option) *Matcher {
	m, err := Compile(expr, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) injectHelpers() {
	m.vm.Set("isA", func(kind string) bool {
		if m.scope == nil || m.cur == nil {
			return false
		}
		return m.scope.IsA(m.cur, widget.Kind(kind))
	})
	m.vm.Set("match", func(pattern, s string) bool {
		return matcher.MatchString(pattern, s)
	})
}

func (m *Matcher) Matches(s *matcher.Scope, w widget.Widget) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scope, m.cur = s, w
	defer func() { m.scope, m.cur = nil, nil }()

	m.vm.ClearInterrupt()
	if err := m.vm.Set("w", m.vm.ToValue(widgetObject(w))); err != nil {
		return false
	}

	timer := time.AfterFunc(m.timeout, func() { m.vm.Interrupt("timeout") })
	v, err := m.vm.RunProgram(m.prog)
	timer.Stop()
	if err != nil {
		m.log.Warn().Err(err).Str("expr", m.expr).Str("widget", widget.Describe(w)).Msg("matcher expression failed")
		return false
	}
	return v.ToBoolean()
}

func (m *Matcher) String() string {
	return fmt.Sprintf("JS(%q)", m.expr)
}

// widgetObject is the plain view of w handed to scripts.
func widgetObject(w widget.Widget) map[string]interface{} {
	obj := map[string]interface{}{
		"id":      int64(w.ID()),
		"kind":    string(w.Kind()),
		"name":    w.Name(),
		"text":    w.Text(),
		"title":   widget.TitleOf(w),
		"showing": w.Showing(),
	}
	attrs := map[string]interface{}{}
	if a, ok := w.(widget.Attributed); ok {
		for k, v := range a.Attrs() {
			attrs[k] = v
		}
	}
	obj["attrs"] = attrs
	if r, ok := widget.BoundsOf(w); ok {
		obj["bounds"] = map[string]interface{}{"x1": r.X1, "y1": r.Y1, "x2": r.X2, "y2": r.Y2}
	}
	return obj
}
