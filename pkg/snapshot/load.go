package snapshot

import (
	"strings"

	"Lookout/pkg/memtk"
	"Lookout/pkg/widget"
)

// androidKinds maps framework classes onto the abstract kinds.
var androidKinds = map[string]widget.Kind{
	"android.widget.Button":                             widget.KindButton,
	"android.widget.ImageButton":                        widget.KindButton,
	"android.widget.ToggleButton":                       widget.KindToggleButton,
	"android.widget.CheckBox":                           widget.KindCheckBox,
	"android.widget.Switch":                             widget.KindCheckBox,
	"android.widget.RadioButton":                        widget.KindRadioButton,
	"android.widget.EditText":                           widget.KindTextField,
	"android.widget.AutoCompleteTextView":               widget.KindTextField,
	"android.widget.MultiAutoCompleteTextView":          widget.KindTextArea,
	"android.widget.TextView":                           widget.KindLabel,
	"android.widget.ListView":                           widget.KindList,
	"android.widget.GridView":                           widget.KindList,
	"androidx.recyclerview.widget.RecyclerView":         widget.KindList,
	"android.widget.FrameLayout":                        widget.KindPanel,
	"android.widget.LinearLayout":                       widget.KindPanel,
	"android.widget.RelativeLayout":                     widget.KindPanel,
	"android.widget.ScrollView":                         widget.KindPanel,
	"android.view.ViewGroup":                            widget.KindPanel,
	"androidx.constraintlayout.widget.ConstraintLayout": widget.KindPanel,
	"android.view.View":                                 widget.KindComponent,
	"android.widget.ImageView":                          widget.KindComponent,
}

// RegisterAndroidKinds registers the framework classes known to this package
// beneath the abstract kinds in reg.
func RegisterAndroidKinds(reg *widget.Registry) {
	for class, kind := range androidKinds {
		reg.Register(widget.Kind(class), kind)
	}
}

func kindOf(reg *widget.Registry, n *Node) widget.Kind {
	k := widget.Kind(n.Class)
	if n.Class == "" {
		if len(n.Nodes) > 0 {
			return widget.KindPanel
		}
		return widget.KindComponent
	}
	if !reg.Known(k) {
		if len(n.Nodes) > 0 {
			reg.Register(k, widget.KindContainer)
		} else {
			reg.Register(k, widget.KindComponent)
		}
	}
	return k
}

// nameOf returns the entry part of a resource id, "title" for "com.app:id/title".
func nameOf(resourceID string) string {
	if i := strings.LastIndex(resourceID, "/"); i != -1 {
		return resourceID[i+1:]
	}
	return resourceID
}

// Load builds a frame titled title holding the dump's tree in tk. Unknown
// classes are registered in tk's kind registry on the way.
func Load(tk *memtk.Toolkit, d *Dump, title string) (*memtk.Node, error) {
	if d == nil || d.Root == nil {
		return nil, ErrEmptyDump
	}
	reg := tk.Kinds()
	RegisterAndroidKinds(reg)

	if title == "" {
		title = d.Root.Package
	}
	frame := tk.NewFrame(title)
	if r, err := ParseBounds(d.Root.Bounds); err == nil && !r.Empty() {
		tk.SetBounds(frame, r)
	}
	tk.Add(frame, build(tk, reg, d.Root))
	return frame, nil
}

func build(tk *memtk.Toolkit, reg *widget.Registry, n *Node) *memtk.Node {
	text := n.Text
	if text == "" {
		text = n.ContentDesc
	}
	w := tk.NewWidget(kindOf(reg, n), nameOf(n.ResourceID), text)
	if r, err := ParseBounds(n.Bounds); err == nil {
		tk.SetBounds(w, r)
	}
	for _, key := range attributeKeys {
		if v := Attribute(n, key); v != "" {
			tk.SetAttr(w, key, v)
		}
	}
	for i := range n.Nodes {
		tk.Add(w, build(tk, reg, &n.Nodes[i]))
	}
	return w
}
