// Package keygen derives short, readable keys for widgets, e.g. "ok.button".
package keygen

import (
	"errors"
	"strconv"
	"strings"

	"Lookout/pkg/widget"
)

// ErrEmptyClass is returned when no class name is given.
var ErrEmptyClass = errors.New("keygen: class name must not be empty")

// Generator hands out keys that are unique within the generator. It is not
// safe for concurrent use.
type Generator struct {
	seen    map[string]int
	emitted map[string]bool
}

func New() *Generator {
	return &Generator{seen: make(map[string]int), emitted: make(map[string]bool)}
}

// Key returns "label.classname". The first key for a base is returned as is,
// later ones get 1, 2, ... appended, skipping any key already handed out for
// another base ("ok.button1" from class Button1).
func (g *Generator) Key(label, className string) (string, error) {
	if className == "" {
		return "", ErrEmptyClass
	}
	base := strings.ToLower(widget.SimpleName(widget.Kind(className)))
	if label != "" {
		base = label + "." + base
	}

	n := g.seen[base]
	key := base
	if n > 0 {
		key = base + strconv.Itoa(n)
	}
	for g.emitted[key] {
		n++
		key = base + strconv.Itoa(n)
	}
	g.seen[base] = n + 1
	g.emitted[key] = true
	return key, nil
}

// ForWidget keys w by its label and kind.
func (g *Generator) ForWidget(w widget.Widget) (string, error) {
	return g.Key(widget.Label(w), string(w.Kind()))
}

// Reset forgets every key handed out so far.
func (g *Generator) Reset() {
	g.seen = make(map[string]int)
	g.emitted = make(map[string]bool)
}
