package matcher

import (
	"fmt"
	"strings"

	"Lookout/pkg/widget"
)

// ========================================
// Class matchers
// ========================================

type classMatcher struct {
	kind    widget.Kind
	exact   bool
	showing bool
}

// Class matches widgets of kind or any of its subtypes. With showing set the
// widget must also be on screen. An empty kind panics.
func Class(kind widget.Kind, showing bool) Matcher {
	if kind == "" {
		panic("matcher: Class requires a kind")
	}
	return &classMatcher{kind: kind, showing: showing}
}

// ExactClass matches widgets whose kind is exactly kind, i.e. each kind is
// assignable to the other. An empty kind panics.
func ExactClass(kind widget.Kind) Matcher {
	if kind == "" {
		panic("matcher: ExactClass requires a kind")
	}
	return &classMatcher{kind: kind, exact: true}
}

func (m *classMatcher) Matches(s *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	if m.exact {
		if !s.Kinds.Same(w.Kind(), m.kind) {
			return false
		}
	} else if !s.Kinds.IsA(w.Kind(), m.kind) {
		return false
	}
	return !m.showing || w.Showing()
}

func (m *classMatcher) String() string {
	switch {
	case m.exact:
		return fmt.Sprintf("ExactClass(%s)", m.kind)
	case m.showing:
		return fmt.Sprintf("Class(%s, showing)", m.kind)
	default:
		return fmt.Sprintf("Class(%s)", m.kind)
	}
}

type classNameMatcher struct {
	name string
}

// ClassName matches by kind string, for kinds the local registry may not know.
// Either the full kind or its last dotted segment must equal name.
func ClassName(name string) Matcher {
	if name == "" {
		panic("matcher: ClassName requires a name")
	}
	return &classNameMatcher{name: name}
}

func (m *classNameMatcher) Matches(_ *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	k := w.Kind()
	return string(k) == m.name || widget.SimpleName(k) == m.name
}

func (m *classNameMatcher) String() string {
	return fmt.Sprintf("ClassName(%s)", m.name)
}

// ========================================
// Name and text
// ========================================

type nameMatcher struct {
	name string
}

// Name matches the widget's programmatic name. An empty name matches widgets
// that are unnamed or carry a toolkit default name.
func Name(name string) Matcher {
	return &nameMatcher{name: name}
}

// Unnamed matches widgets without a meaningful name.
func Unnamed() Matcher {
	return &nameMatcher{}
}

func (m *nameMatcher) Matches(_ *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	if m.name == "" {
		return widget.HasDefaultName(w)
	}
	return MatchString(m.name, w.Name())
}

func (m *nameMatcher) String() string {
	if m.name == "" {
		return "Unnamed()"
	}
	return fmt.Sprintf("Name(%q)", m.name)
}

type textMatcher struct {
	text string
}

// Text matches the widget's text.
func Text(text string) Matcher {
	return &textMatcher{text: text}
}

func (m *textMatcher) Matches(_ *Scope, w widget.Widget) bool {
	return w != nil && MatchString(m.text, w.Text())
}

func (m *textMatcher) String() string {
	return fmt.Sprintf("Text(%q)", m.text)
}

type nameOrTextMatcher struct {
	value string
}

// NameOrText matches a widget whose name, text or title matches value.
func NameOrText(value string) Matcher {
	return &nameOrTextMatcher{value: value}
}

func (m *nameOrTextMatcher) Matches(_ *Scope, w widget.Widget) bool {
	if w == nil {
		return false
	}
	if MatchString(m.value, w.Name()) || MatchString(m.value, w.Text()) {
		return true
	}
	title := widget.TitleOf(w)
	return title != "" && MatchString(m.value, title)
}

func (m *nameOrTextMatcher) String() string {
	return fmt.Sprintf("NameOrText(%q)", m.value)
}

type attrMatcher struct {
	key, value string
}

// Attr matches a raw binding attribute, e.g. the resource id of a captured dump.
func Attr(key, value string) Matcher {
	return &attrMatcher{key: key, value: value}
}

func (m *attrMatcher) Matches(_ *Scope, w widget.Widget) bool {
	a, ok := w.(widget.Attributed)
	return ok && MatchString(m.value, a.Attr(m.key))
}

func (m *attrMatcher) String() string {
	return fmt.Sprintf("Attr(%s=%q)", m.key, m.value)
}

// ========================================
// Windows and menus
// ========================================

type windowMatcher struct {
	id      string
	showing bool
}

// Window matches windows whose name, or title for frames and dialogs, matches id.
func Window(id string, showing bool) Matcher {
	return &windowMatcher{id: id, showing: showing}
}

func (m *windowMatcher) Matches(s *Scope, w widget.Widget) bool {
	if !s.IsA(w, widget.KindWindow) {
		return false
	}
	if m.showing && !w.Showing() {
		return false
	}
	if MatchString(m.id, w.Name()) {
		return true
	}
	if s.IsA(w, widget.KindFrame) || s.IsA(w, widget.KindDialog) {
		return MatchString(m.id, widget.TitleOf(w))
	}
	return false
}

func (m *windowMatcher) String() string {
	if m.showing {
		return fmt.Sprintf("Window(%q, showing)", m.id)
	}
	return fmt.Sprintf("Window(%q)", m.id)
}

// MenuPathSeparator separates the labels of a menu path such as "File|Open".
const MenuPathSeparator = "|"

type menuItemMatcher struct {
	label string
}

// MenuItem matches a menu item by its label or by its full path from the top
// level menu, e.g. "File|Recent|notes.txt".
func MenuItem(labelOrPath string) Matcher {
	return &menuItemMatcher{label: labelOrPath}
}

func (m *menuItemMatcher) Matches(s *Scope, w widget.Widget) bool {
	if !s.IsA(w, widget.KindMenuItem) {
		return false
	}
	if MatchString(m.label, w.Text()) {
		return true
	}
	return strings.Contains(m.label, MenuPathSeparator) && MatchString(m.label, MenuPath(s, w))
}

func (m *menuItemMatcher) String() string {
	return fmt.Sprintf("MenuItem(%q)", m.label)
}

// MenuPath returns the path of menu labels leading to w, following popup menus
// back to the menus that invoke them.
func MenuPath(s *Scope, w widget.Widget) string {
	labels := []string{w.Text()}
	seen := map[widget.ID]bool{w.ID(): true}
	for p := s.H.Parent(w); p != nil && !seen[p.ID()]; p = s.H.Parent(p) {
		seen[p.ID()] = true
		if s.IsA(p, widget.KindMenuItem) {
			labels = append(labels, p.Text())
			continue
		}
		if !s.IsA(p, widget.KindPopupMenu) {
			break
		}
	}
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, MenuPathSeparator)
}

// ========================================
// Identity, position and predicates
// ========================================

type isMatcher struct {
	w widget.Widget
}

// Is matches only the given widget handle.
func Is(w widget.Widget) Matcher {
	return &isMatcher{w: w}
}

func (m *isMatcher) Matches(_ *Scope, w widget.Widget) bool {
	return widget.Same(m.w, w)
}

func (m *isMatcher) String() string {
	return fmt.Sprintf("Is(%s)", widget.Describe(m.w))
}

type atMatcher struct {
	x, y int
}

// At matches widgets whose bounds contain the point (x, y).
func At(x, y int) Matcher {
	return &atMatcher{x: x, y: y}
}

func (m *atMatcher) Matches(_ *Scope, w widget.Widget) bool {
	r, ok := widget.BoundsOf(w)
	return ok && r.Contains(m.x, m.y)
}

func (m *atMatcher) String() string {
	return fmt.Sprintf("At(%d,%d)", m.x, m.y)
}

type showingMatcher struct{}

// Showing matches widgets currently on screen.
func Showing() Matcher {
	return showingMatcher{}
}

func (showingMatcher) Matches(_ *Scope, w widget.Widget) bool {
	return w != nil && w.Showing()
}

func (showingMatcher) String() string { return "Showing()" }

type funcMatcher struct {
	desc string
	fn   func(s *Scope, w widget.Widget) bool
}

// Func adapts a plain predicate. desc is used in failure messages.
func Func(desc string, fn func(s *Scope, w widget.Widget) bool) Matcher {
	return &funcMatcher{desc: desc, fn: fn}
}

func (m *funcMatcher) Matches(s *Scope, w widget.Widget) bool {
	return w != nil && m.fn(s, w)
}

func (m *funcMatcher) String() string {
	return m.desc
}
