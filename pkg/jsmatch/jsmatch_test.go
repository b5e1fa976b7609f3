package jsmatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lookout/pkg/finder"
	"Lookout/pkg/hierarchy"
	"Lookout/pkg/matcher"
	"Lookout/pkg/memtk"
	"Lookout/pkg/widget"
)

func setup(t *testing.T) (*memtk.Toolkit, *matcher.Scope) {
	tk := memtk.New()
	t.Cleanup(tk.Close)
	return tk, matcher.NewScope(hierarchy.NewBase(tk), tk.Kinds())
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("w.name ==")
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("(") })
}

func TestWidgetFields(t *testing.T) {
	tk, s := setup(t)
	f := tk.NewFrame("Main")
	b := tk.NewWidget(widget.KindCheckBox, "btn_agree", "Agree")
	tk.Add(f, b)
	tk.SetAttr(b, "enabled", "true")
	tk.SetBounds(b, widget.Rect{X1: 0, Y1: 0, X2: 10, Y2: 20})

	cases := []struct {
		expr string
		w    widget.Widget
		want bool
	}{
		{`w.name.startsWith("btn_")`, b, true},
		{`w.text == "Agree" && w.showing`, b, true},
		{`isA("ToggleButton")`, b, true},
		{`isA("Button")`, b, false},
		{`w.attrs.enabled == "true"`, b, true},
		{`w.bounds.y2 - w.bounds.y1 == 20`, b, true},
		{`w.title == "Main"`, f, true},
		{`match("/^Ma/", w.title)`, f, true},
		{`w.bounds === undefined`, f, true},
		{`1`, f, true},
		{`""`, f, false},
	}
	for _, c := range cases {
		m := MustCompile(c.expr)
		assert.Equal(t, c.want, m.Matches(s, c.w), c.expr)
	}
}

func TestRuntimeErrorIsNoMatch(t *testing.T) {
	tk, s := setup(t)
	f := tk.NewFrame("Main")
	m := MustCompile(`w.nope.deeper == 1`)
	assert.False(t, m.Matches(s, f))
	assert.Equal(t, `JS("w.nope.deeper == 1")`, m.String())
}

func TestTimeout(t *testing.T) {
	tk, s := setup(t)
	f := tk.NewFrame("Main")
	m := MustCompile(`(function(){ for(;;){} })()`, WithTimeout(50*time.Millisecond))
	assert.False(t, m.Matches(s, f))

	// The interrupt must not leak into the next evaluation.
	ok := MustCompile(`true`, WithTimeout(50*time.Millisecond))
	assert.True(t, ok.Matches(s, f))
	assert.False(t, m.Matches(s, f))
}

func TestUsableWithFinder(t *testing.T) {
	tk, _ := setup(t)
	f := tk.NewFrame("Main")
	for _, name := range []string{"a1", "b1", "a2"} {
		tk.Add(f, tk.NewWidget(widget.KindButton, name, ""))
	}
	fd := finder.New(hierarchy.NewBase(tk), tk.Kinds())

	all := fd.FindAll(MustCompile(`isA("Button") && w.name[0] == "a"`))
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].Name())
	assert.Equal(t, "a2", all[1].Name())

	got, err := fd.Find(matcher.And(matcher.Class(widget.KindButton, false), MustCompile(`w.name == "b1"`)))
	require.NoError(t, err)
	assert.Equal(t, "b1", got.Name())
}

func TestConcurrentUse(t *testing.T) {
	tk, s := setup(t)
	f := tk.NewFrame("Main")
	m := MustCompile(`w.title.length == 4`)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.True(t, m.Matches(s, f))
			}
		}()
	}
	wg.Wait()
}
