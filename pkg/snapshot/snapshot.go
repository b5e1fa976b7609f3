// Package snapshot turns captured UI dumps (uiautomator XML or its JSON form)
// into live widget trees that the finder can search.
package snapshot

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"Lookout/pkg/widget"
)

// ErrEmptyDump is returned when a dump holds no nodes.
var ErrEmptyDump = errors.New("snapshot: dump has no nodes")

// Node is one element of a uiautomator dump.
type Node struct {
	XMLName       xml.Name `xml:"node" json:"-"`
	Text          string   `xml:"text,attr" json:"text"`
	ResourceID    string   `xml:"resource-id,attr" json:"resourceId"`
	Class         string   `xml:"class,attr" json:"class"`
	Package       string   `xml:"package,attr" json:"package"`
	ContentDesc   string   `xml:"content-desc,attr" json:"contentDesc"`
	Checkable     string   `xml:"checkable,attr" json:"checkable"`
	Checked       string   `xml:"checked,attr" json:"checked"`
	Clickable     string   `xml:"clickable,attr" json:"clickable"`
	Enabled       string   `xml:"enabled,attr" json:"enabled"`
	Focusable     string   `xml:"focusable,attr" json:"focusable"`
	Focused       string   `xml:"focused,attr" json:"focused"`
	Scrollable    string   `xml:"scrollable,attr" json:"scrollable"`
	LongClickable string   `xml:"long-clickable,attr" json:"longClickable"`
	Password      string   `xml:"password,attr" json:"password"`
	Selected      string   `xml:"selected,attr" json:"selected"`
	Bounds        string   `xml:"bounds,attr" json:"bounds"`
	Nodes         []Node   `xml:"node" json:"nodes"`
}

type hierarchyXML struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []Node   `xml:"node"`
}

// Dump is a parsed capture. Raw keeps the cleaned source text.
type Dump struct {
	Root *Node  `json:"root"`
	Raw  string `json:"raw,omitempty"`
}

// ParseXML parses a uiautomator dump. Leading and trailing noise around the
// document is dropped and stray ampersands are escaped before decoding.
func ParseXML(content string) (*Dump, error) {
	if start := strings.Index(content, "<?xml"); start != -1 {
		content = content[start:]
	} else if start := strings.Index(content, "<hierarchy"); start != -1 {
		content = content[start:]
	}
	if end := strings.LastIndex(content, ">"); end != -1 && end < len(content)-1 {
		content = content[:end+1]
	}
	raw := content

	content = strings.ReplaceAll(content, "&", "&amp;")
	content = strings.ReplaceAll(content, "&amp;amp;", "&amp;")
	content = strings.ReplaceAll(content, "&amp;lt;", "&lt;")
	content = strings.ReplaceAll(content, "&amp;gt;", "&gt;")
	content = strings.ReplaceAll(content, "&amp;quot;", "&quot;")
	content = strings.ReplaceAll(content, "&amp;apos;", "&apos;")
	content = strings.ReplaceAll(content, "&amp;#", "&#")

	var h hierarchyXML
	if err := xml.Unmarshal([]byte(content), &h); err != nil {
		return nil, fmt.Errorf("failed to parse UI XML (length: %d): %w", len(content), err)
	}
	root, err := rootOf(h.Nodes)
	if err != nil {
		return nil, err
	}
	return &Dump{Root: root, Raw: raw}, nil
}

// ParseJSON reads the JSON form of a dump: either {"root": {...}} or a bare
// node object. Boolean flags may be JSON booleans or strings.
func ParseJSON(data []byte) (*Dump, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("snapshot: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if r := doc.Get("root"); r.IsObject() {
		doc = r
	}
	if !doc.IsObject() {
		return nil, ErrEmptyDump
	}
	var nodes []Node
	if doc.Get("class").Exists() {
		nodes = []Node{nodeFromJSON(doc)}
	} else {
		doc.Get("nodes").ForEach(func(_, v gjson.Result) bool {
			nodes = append(nodes, nodeFromJSON(v))
			return true
		})
	}
	root, err := rootOf(nodes)
	if err != nil {
		return nil, err
	}
	return &Dump{Root: root, Raw: string(data)}, nil
}

func nodeFromJSON(v gjson.Result) Node {
	n := Node{
		Text:          v.Get("text").String(),
		ResourceID:    v.Get("resourceId").String(),
		Class:         v.Get("class").String(),
		Package:       v.Get("package").String(),
		ContentDesc:   v.Get("contentDesc").String(),
		Checkable:     v.Get("checkable").String(),
		Checked:       v.Get("checked").String(),
		Clickable:     v.Get("clickable").String(),
		Enabled:       v.Get("enabled").String(),
		Focusable:     v.Get("focusable").String(),
		Focused:       v.Get("focused").String(),
		Scrollable:    v.Get("scrollable").String(),
		LongClickable: v.Get("longClickable").String(),
		Password:      v.Get("password").String(),
		Selected:      v.Get("selected").String(),
		Bounds:        v.Get("bounds").String(),
	}
	v.Get("nodes").ForEach(func(_, c gjson.Result) bool {
		n.Nodes = append(n.Nodes, nodeFromJSON(c))
		return true
	})
	return n
}

// rootOf returns the single top node, or a synthetic container around several.
func rootOf(nodes []Node) (*Node, error) {
	switch len(nodes) {
	case 0:
		return nil, ErrEmptyDump
	case 1:
		return &nodes[0], nil
	}
	return &Node{
		Class:   "android.view.View",
		Package: nodes[0].Package,
		Bounds:  "[0,0][0,0]",
		Nodes:   nodes,
	}, nil
}

// ParseBounds parses "[x1,y1][x2,y2]".
func ParseBounds(bounds string) (widget.Rect, error) {
	return widget.ParseRect(bounds)
}

// Attribute returns the value of a node attribute by name. Common aliases
// such as "id" and "desc" are accepted.
func Attribute(node *Node, attr string) string {
	switch strings.ToLower(attr) {
	case "text":
		return node.Text
	case "resource-id", "resourceid", "id":
		return node.ResourceID
	case "class":
		return node.Class
	case "package":
		return node.Package
	case "content-desc", "contentdesc", "description", "desc":
		return node.ContentDesc
	case "bounds":
		return node.Bounds
	case "clickable":
		return node.Clickable
	case "enabled":
		return node.Enabled
	case "focused":
		return node.Focused
	case "scrollable":
		return node.Scrollable
	case "checkable":
		return node.Checkable
	case "checked":
		return node.Checked
	case "focusable":
		return node.Focusable
	case "long-clickable", "longclickable":
		return node.LongClickable
	case "password":
		return node.Password
	case "selected":
		return node.Selected
	}
	return ""
}

// attributeKeys are the raw attributes copied onto loaded widgets.
var attributeKeys = []string{
	"resource-id", "class", "package", "content-desc", "bounds",
	"checkable", "checked", "clickable", "enabled", "focusable", "focused",
	"scrollable", "long-clickable", "password", "selected",
}
