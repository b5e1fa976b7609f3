package locator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"Lookout/pkg/finder"
	"Lookout/pkg/hierarchy"
	"Lookout/pkg/memtk"
	"Lookout/pkg/widget"
)

type env struct {
	tk  *memtk.Toolkit
	h   hierarchy.Hierarchy
	ctx context.Context
}

func newEnv(t *testing.T) *env {
	tk := memtk.New()
	t.Cleanup(tk.Close)
	h := hierarchy.NewBase(tk)
	ctx := finder.NewContext(context.Background(), finder.New(h, tk.Kinds()))
	return &env{tk: tk, h: h, ctx: ctx}
}

func (e *env) add(parent *memtk.Node, kind widget.Kind, name, text string) *memtk.Node {
	n := e.tk.NewWidget(kind, name, text)
	e.tk.Add(parent, n)
	return n
}

func TestConstructionErrors(t *testing.T) {
	_, err := New("", "ok")
	assert.ErrorIs(t, err, ErrMissingClass)
	_, err = ByClassName("", "ok")
	assert.ErrorIs(t, err, ErrMissingClass)
	_, err = New(widget.KindButton, "ok", WithIndex(-1))
	assert.ErrorIs(t, err, ErrNegativeIndex)
	_, err = New(widget.KindButton, "ok", WithProp("", "x"))
	assert.ErrorIs(t, err, ErrEmptyKey)

	l := Must(New(widget.KindButton, "ok"))
	_, _, err = l.Prop("")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, l.SetProp("", "x"), ErrEmptyKey)
}

func TestResolveWithParent(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	b := e.add(f, widget.KindButton, "ok", "OK")

	frame := Must(New(widget.KindFrame, "F"))
	l := Must(New(widget.KindButton, "ok", WithIndex(0), WithParent(frame)))

	got, err := l.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.ID())

	e.tk.SetTitle(f, "G")
	_, err = l.Resolve(e.ctx)
	assert.ErrorIs(t, err, finder.ErrNotFound)
}

func TestResolveWithoutFinder(t *testing.T) {
	l := Must(New(widget.KindButton, "ok"))
	_, err := l.Resolve(context.Background())
	assert.ErrorIs(t, err, finder.ErrNoFinder)
}

func TestStructuralEquality(t *testing.T) {
	mk := func(index int) *Locator {
		parent := Must(New(widget.KindFrame, "F"))
		return Must(New(widget.KindButton, "ok", WithIndex(index), WithParent(parent)))
	}
	a, b := mk(1), mk(1)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(mk(0)))

	family := Must(Family(widget.KindButton, "ok", WithIndex(1), WithParent(Must(New(widget.KindFrame, "F")))))
	assert.False(t, a.Equal(family))

	otherParent := Must(New(widget.KindButton, "ok", WithIndex(1), WithParent(Must(New(widget.KindFrame, "G")))))
	assert.False(t, a.Equal(otherParent))

	require.NoError(t, b.SetProp("note", "x"))
	assert.False(t, a.Equal(b))
	require.NoError(t, a.SetProp("note", "x"))
	assert.True(t, a.Equal(b))
}

func TestEqualLocatorsMatchTheSameWidgets(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	e.add(f, widget.KindButton, "", "a")
	b := e.add(f, widget.KindButton, "", "b")
	e.add(f, widget.KindButton, "", "c")

	mk := func() *Locator {
		return Must(New(widget.KindButton, "", WithIndex(1), WithParent(Must(New(widget.KindFrame, "F")))))
	}
	l1, l2 := mk(), mk()
	require.True(t, l1.Equal(l2))

	got1, err := l1.Resolve(e.ctx)
	require.NoError(t, err)
	got2, err := l2.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got1.ID())
	assert.Equal(t, got1.ID(), got2.ID())
}

func TestIndexWithParentCountsUnderThatParent(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	left := e.add(f, widget.KindPanel, "left", "")
	right := e.add(f, widget.KindPanel, "right", "")
	e.add(left, widget.KindButton, "", "l0")
	e.add(left, widget.KindButton, "", "l1")
	r0 := e.add(right, widget.KindButton, "", "r0")

	l := Must(New(widget.KindButton, "", WithIndex(0), WithParent(Must(New(widget.KindPanel, "right")))))
	got, err := l.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, r0.ID(), got.ID())

	global := Must(New(widget.KindButton, "", WithIndex(2)))
	got, err = global.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, r0.ID(), got.ID())
}

func TestFamilyAndClassName(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	check := e.add(f, widget.KindCheckBox, "agree", "")

	_, err := Must(New(widget.KindToggleButton, "agree")).Resolve(e.ctx)
	assert.ErrorIs(t, err, finder.ErrNotFound)

	got, err := Must(Family(widget.KindToggleButton, "agree")).Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, check.ID(), got.ID())

	got, err = Must(ByClassName("CheckBox", "agree")).Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, check.ID(), got.ID())
}

func TestLabeledText(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	e.add(f, widget.KindLabel, "", "User:")
	user := e.add(f, widget.KindTextField, "", "")
	e.add(f, widget.KindLabel, "", "Password:")
	e.add(f, widget.KindTextField, "", "")

	l := Must(LabeledText(widget.KindTextField, "User:", WithIndex(3)))
	_, indexed := l.Index()
	assert.False(t, indexed, "labeled locators are never indexed")

	got, err := l.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID(), got.ID())
}

func TestAncestorLocator(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("Main")
	p := e.add(f, widget.KindPanel, "", "")
	b := e.add(p, widget.KindButton, "ok", "")
	g := e.tk.NewFrame("Other")
	e.add(g, widget.KindButton, "ok", "")

	l := Must(New(widget.KindButton, "ok", WithAncestor(Must(New(widget.KindFrame, "Main")))))
	got, err := l.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.ID())
}

func TestFindAllWrapsRefs(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("F")
	a := e.add(f, widget.KindButton, "ok", "")
	b := e.add(f, widget.KindButton, "ok", "")

	refs, err := Must(New(widget.KindButton, "ok")).FindAll(e.ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, a.ID(), refs[0].Widget().ID())
	assert.Equal(t, b.ID(), refs[1].Widget().ID())
	assert.True(t, refs[0].Equal(Ref(a)))
	assert.False(t, refs[0].Equal(refs[1]))

	got, err := refs[1].Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.ID())
}

func TestYAMLAndJSON(t *testing.T) {
	l := Must(New(widget.KindButton, "ok",
		WithIndex(1),
		WithParent(Must(Family(widget.KindWindow, "Main"))),
		WithProp("note", "primary"),
	))

	out, err := yaml.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(out), "class: Button")
	assert.Contains(t, string(out), "family: true")

	var back Locator
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.True(t, l.Equal(&back))
	assert.Equal(t, l.Matcher().String(), back.Matcher().String())

	data, err := json.Marshal(l)
	require.NoError(t, err)
	var fromJSON Locator
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.True(t, l.Equal(&fromJSON))

	_, err = ParseYAML([]byte("name: ok\n"))
	assert.ErrorIs(t, err, ErrMissingClass)
}

func TestRefNil(t *testing.T) {
	assert.PanicsWithError(t, ErrMissingClass.Error(), func() { Ref(nil) })
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "OK", Literal("OK"))
	assert.Equal(t, "/^/tmp/$/", Literal("/tmp/"))
	assert.Equal(t, `/^/a\.b/$/`, Literal("/a.b/"))

	e := newEnv(t)
	f := e.tk.NewFrame("F")
	slash := e.tk.NewWidget(widget.KindButton, "", "/tmp/")
	plain := e.tk.NewWidget(widget.KindButton, "", "tmp")
	e.tk.Add(f, slash, plain)

	got, err := Must(New(widget.KindButton, Literal("/tmp/"))).Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, slash.ID(), got.ID())

	_, err = Must(New(widget.KindButton, "/tmp/")).Resolve(e.ctx)
	assert.ErrorIs(t, err, finder.ErrMultipleFound, "the raw form is a regex matching both")
}

func TestString(t *testing.T) {
	l := Must(New(widget.KindButton, "ok", WithIndex(0), WithParent(Must(New(widget.KindFrame, "F")))))
	assert.Equal(t, `Button "ok" [0] in Frame "F"`, l.String())

	lt := Must(LabeledText(widget.KindTextField, "User:"))
	assert.Equal(t, `TextField labeled "User:"`, lt.String())
}

func TestInferResolvesBack(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("Main")
	form := e.add(f, widget.KindPanel, "", "")
	e.add(form, widget.KindLabel, "", "User:")
	user := e.add(form, widget.KindTextField, "", "")
	row := e.add(f, widget.KindPanel, "", "")
	first := e.add(row, widget.KindButton, "", "Go")
	second := e.add(row, widget.KindButton, "", "Go")
	named := e.add(row, widget.KindButton, "save", "Save")
	kinds := e.tk.Kinds()

	for _, w := range []*memtk.Node{user, first, second, named} {
		l, err := Infer(e.h, kinds, w)
		require.NoError(t, err)
		got, err := l.Resolve(e.ctx)
		require.NoError(t, err, "resolving %s", l)
		assert.Equal(t, w.ID(), got.ID(), "locator %s", l)
	}

	lu, err := Infer(e.h, kinds, user)
	require.NoError(t, err)
	assert.True(t, lu.IsLabeled())

	ln, err := Infer(e.h, kinds, named)
	require.NoError(t, err)
	_, indexed := ln.Index()
	assert.False(t, indexed)
	assert.Equal(t, "save", ln.NameOrLabel())

	ls, err := Infer(e.h, kinds, second)
	require.NoError(t, err)
	n, indexed := ls.Index()
	assert.True(t, indexed)
	assert.Equal(t, 1, n)
}

func TestInferredLocatorSurvivesRebuild(t *testing.T) {
	e := newEnv(t)
	f := e.tk.NewFrame("Main")
	b := e.add(f, widget.KindButton, "ok", "OK")
	l, err := Infer(e.h, e.tk.Kinds(), b)
	require.NoError(t, err)

	// Same UI built again after the original is gone.
	e.tk.Release(f)
	f2 := e.tk.NewFrame("Main")
	b2 := e.add(f2, widget.KindButton, "ok", "OK")

	got, err := l.Resolve(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, b2.ID(), got.ID())
}

func TestMatcherCompiledOnce(t *testing.T) {
	l := Must(New(widget.KindButton, "ok", WithIndex(2)))
	assert.Same(t, l.Matcher(), l.Matcher())
	assert.Equal(t, `Index(And(ExactClass(Button), NameOrText("ok")), 2)`, l.Matcher().String())
}
