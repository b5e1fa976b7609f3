package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"Lookout/pkg/finder"
	"Lookout/pkg/keygen"
	"Lookout/pkg/locator"
	"Lookout/pkg/matcher"
	"Lookout/pkg/types"
	"Lookout/pkg/widget"
)

// Suggestion priorities, higher is better.
const (
	priorityBest       = 5
	priorityGood       = 4
	priorityWeak       = 3
	priorityFragile    = 2
	priorityLastResort = 1
)

// SuggestLocators analyzes the innermost widget at (x, y) and returns locator
// suggestions ranked by priority. It returns nil when nothing is at the point.
func (a *App) SuggestLocators(x, y int) ([]types.Suggestion, error) {
	w, err := a.finder.Find(finder.AtPoint(x, y))
	if errors.Is(err, finder.ErrNotFound) {
		LogDebug("suggest").Int("x", x).Int("y", y).Msg("No widget found at point")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	LogDebug("suggest").Int("x", x).Int("y", y).Str("widget", widget.Describe(w)).Msg("Found widget")

	suggestions, err := a.suggest(w, x, y)
	if err != nil {
		return nil, err
	}
	LogUserAction(ActionLocatorSuggest, map[string]interface{}{
		"x":           x,
		"y":           y,
		"suggestions": len(suggestions),
	})
	return suggestions, nil
}

func (a *App) suggest(w widget.Widget, x, y int) ([]types.Suggestion, error) {
	kinds := a.tk.Kinds()
	key, err := keygen.New().ForWidget(w)
	if err != nil {
		return nil, err
	}

	var out []types.Suggestion
	add := func(typ, value string, l *locator.Locator, priority int, desc string) {
		s := types.Suggestion{
			Type:        typ,
			Value:       value,
			Key:         key,
			Priority:    priority,
			Unique:      true,
			Description: desc,
		}
		if l != nil {
			s.Locator = l.String()
			s.LocatorYAML = LocatorYAML(l)
			if !a.isUnique(l) {
				s.Unique = false
				if s.Priority > priorityWeak {
					s.Priority = priorityWeak
				}
				s.Description += " (not unique)"
			}
		}
		out = append(out, s)
	}

	// 1. Name
	name := w.Name()
	if !widget.IsDefaultName(name) {
		if l, err := locator.New(w.Kind(), locator.Literal(name)); err == nil {
			add("name", name, l, priorityBest, fmt.Sprintf("Name: %q", name))
		}
	}

	// 2. Text, or a caption label for unnamed text fields
	text := w.Text()
	if text != "" && text != name && !kinds.IsA(w.Kind(), widget.KindTextComponent) {
		priority := priorityBest
		desc := fmt.Sprintf("Text: %q", text)
		if isGenericText(text) {
			priority = priorityWeak
			desc += " (generic text)"
		}
		if l, err := locator.New(w.Kind(), locator.Literal(text)); err == nil {
			add("text", text, l, priority, desc)
		}
	}
	if kinds.IsA(w.Kind(), widget.KindTextComponent) {
		if c := matcher.Caption(a.finder.Scope(), w); c != nil && c.Text() != "" {
			if l, err := locator.LabeledText(w.Kind(), locator.Literal(c.Text())); err == nil {
				add("labeled", c.Text(), l, priorityGood, fmt.Sprintf("Labeled by %q", c.Text()))
			}
		}
	}

	// 3. Full path from the window, indexed only where siblings are ambiguous
	if l, err := a.Infer(w); err == nil {
		add("path", widget.SimpleName(w.Kind()), l, priorityGood, "Parent chain up to the window")
	}

	// 4. Kind with a global index (fragile to UI changes)
	if n := a.classIndex(w); n >= 0 {
		if l, err := locator.New(w.Kind(), "", locator.WithIndex(n)); err == nil {
			add("class", string(w.Kind()), l, priorityFragile,
				fmt.Sprintf("%s #%d (fragile to UI changes)", widget.SimpleName(w.Kind()), n))
		}
	}

	// 5. Coordinates
	add("coordinates", fmt.Sprintf("%d,%d", x, y), nil, priorityLastResort,
		fmt.Sprintf("Coordinates (%d, %d) - least reliable", x, y))

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}

// isUnique reports whether l matches exactly one widget right now.
func (a *App) isUnique(l *locator.Locator) bool {
	return len(a.finder.FindAll(l.Matcher())) == 1
}

// classIndex returns the position of w among all widgets of exactly its kind,
// in search order.
func (a *App) classIndex(w widget.Widget) int {
	for i, c := range a.finder.FindAll(matcher.ExactClass(w.Kind())) {
		if widget.Same(c, w) {
			return i
		}
	}
	return -1
}

// isGenericText reports whether text is too common to identify a widget.
func isGenericText(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ok", "cancel", "yes", "no", "submit", "close", "done",
		"next", "back", "skip", "apply", "save", "continue":
		return true
	}
	return false
}
