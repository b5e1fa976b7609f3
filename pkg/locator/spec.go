package locator

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"Lookout/pkg/widget"
)

// Spec is the serialized form of a Locator, used in scripts and over the wire.
// Ref locators serialize as a plain exact-kind locator of the referenced widget.
type Spec struct {
	Class    string            `yaml:"class" json:"class"`
	ByName   bool              `yaml:"byName,omitempty" json:"byName,omitempty"`
	Family   bool              `yaml:"family,omitempty" json:"family,omitempty"`
	Labeled  bool              `yaml:"labeled,omitempty" json:"labeled,omitempty"`
	Name     string            `yaml:"name,omitempty" json:"name,omitempty"`
	Index    *int              `yaml:"index,omitempty" json:"index,omitempty"`
	Parent   *Spec             `yaml:"parent,omitempty" json:"parent,omitempty"`
	Ancestor *Spec             `yaml:"ancestor,omitempty" json:"ancestor,omitempty"`
	Props    map[string]string `yaml:"props,omitempty" json:"props,omitempty"`
}

// Spec returns the serialized form of l.
func (l *Locator) Spec() *Spec {
	if l == nil {
		return nil
	}
	s := &Spec{
		Class:   string(l.kind),
		ByName:  l.byName,
		Family:  l.family,
		Labeled: l.labeled,
		Name:    l.name,
	}
	if l.index >= 0 {
		n := l.index
		s.Index = &n
	}
	s.Parent = l.parent.Spec()
	s.Ancestor = l.ancestor.Spec()
	if props := l.Props(); len(props) > 0 {
		s.Props = props
	}
	return s
}

// Build compiles s into a Locator.
func (s *Spec) Build() (*Locator, error) {
	if s == nil {
		return nil, nil
	}
	var opts []Option
	if s.Index != nil {
		opts = append(opts, WithIndex(*s.Index))
	}
	if s.Parent != nil {
		p, err := s.Parent.Build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithParent(p))
	}
	if s.Ancestor != nil {
		a, err := s.Ancestor.Build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithAncestor(a))
	}
	for k, v := range s.Props {
		opts = append(opts, WithProp(k, v))
	}

	kind := widget.Kind(s.Class)
	switch {
	case s.Labeled:
		return LabeledText(kind, s.Name, opts...)
	case s.ByName:
		return ByClassName(s.Class, s.Name, opts...)
	case s.Family:
		return Family(kind, s.Name, opts...)
	default:
		return New(kind, s.Name, opts...)
	}
}

// assign copies the compiled state of o into l, which must not be in use yet.
func (l *Locator) assign(o *Locator) {
	l.kind = o.kind
	l.byName = o.byName
	l.family = o.family
	l.labeled = o.labeled
	l.name = o.name
	l.index = o.index
	l.parent = o.parent
	l.ancestor = o.ancestor
	l.ref = o.ref
	l.props = o.Props()
	l.m = o.m
}

// ========================================
// YAML and JSON
// ========================================

func (l *Locator) MarshalYAML() (interface{}, error) {
	return l.Spec(), nil
}

func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	var s Spec
	if err := value.Decode(&s); err != nil {
		return err
	}
	built, err := s.Build()
	if err != nil {
		return err
	}
	l.assign(built)
	return nil
}

func (l *Locator) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Spec())
}

func (l *Locator) UnmarshalJSON(data []byte) error {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	built, err := s.Build()
	if err != nil {
		return err
	}
	l.assign(built)
	return nil
}

// ParseYAML reads a locator from its YAML form.
func ParseYAML(data []byte) (*Locator, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Build()
}
