package widget

import (
	"regexp"
	"strings"
	"sync"
)

// Well-known abstract kinds. Bindings register their concrete kinds beneath these.
const (
	KindComponent        Kind = "Component"
	KindContainer        Kind = "Container"
	KindWindow           Kind = "Window"
	KindFrame            Kind = "Frame"
	KindDialog           Kind = "Dialog"
	KindAppletFrame      Kind = "AppletFrame"
	KindSharedOwnerFrame Kind = "SharedOwnerFrame"
	KindConsole          Kind = "Console"
	KindPanel            Kind = "Panel"
	KindDesktopPane      Kind = "DesktopPane"
	KindInternalFrame    Kind = "InternalFrame"
	KindDesktopIcon      Kind = "DesktopIcon"
	KindIconManager      Kind = "IconManager"
	KindMenuBar          Kind = "MenuBar"
	KindMenuItem         Kind = "MenuItem"
	KindMenu             Kind = "Menu"
	KindPopupMenu        Kind = "PopupMenu"
	KindAbstractButton   Kind = "AbstractButton"
	KindButton           Kind = "Button"
	KindToggleButton     Kind = "ToggleButton"
	KindCheckBox         Kind = "CheckBox"
	KindRadioButton      Kind = "RadioButton"
	KindLabel            Kind = "Label"
	KindTextComponent    Kind = "TextComponent"
	KindTextField        Kind = "TextField"
	KindTextArea         Kind = "TextArea"
	KindList             Kind = "List"
	KindTable            Kind = "Table"
)

// Registry is an extensible is-subtype-of relation over kinds, populated when a
// binding is set up. A kind may have several supertypes. Unregistered kinds are
// only related to themselves.
type Registry struct {
	mu     sync.RWMutex
	supers map[Kind][]Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{supers: make(map[Kind][]Kind)}
}

// DefaultRegistry returns a registry holding the well-known abstract kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindContainer, KindComponent)
	r.Register(KindWindow, KindContainer)
	r.Register(KindFrame, KindWindow)
	r.Register(KindDialog, KindWindow)
	r.Register(KindAppletFrame, KindFrame)
	r.Register(KindSharedOwnerFrame, KindFrame)
	r.Register(KindConsole, KindFrame)
	r.Register(KindPanel, KindContainer)
	r.Register(KindDesktopPane, KindContainer)
	r.Register(KindInternalFrame, KindContainer)
	r.Register(KindDesktopIcon, KindContainer)
	r.Register(KindIconManager, KindContainer)
	r.Register(KindMenuBar, KindContainer)
	r.Register(KindPopupMenu, KindContainer)
	r.Register(KindAbstractButton, KindContainer)
	r.Register(KindButton, KindAbstractButton)
	r.Register(KindToggleButton, KindAbstractButton)
	r.Register(KindCheckBox, KindToggleButton)
	r.Register(KindRadioButton, KindToggleButton)
	r.Register(KindMenuItem, KindAbstractButton)
	r.Register(KindMenu, KindMenuItem)
	r.Register(KindLabel, KindComponent)
	r.Register(KindTextComponent, KindComponent)
	r.Register(KindTextField, KindTextComponent)
	r.Register(KindTextArea, KindTextComponent)
	r.Register(KindList, KindComponent)
	r.Register(KindTable, KindComponent)
	return r
}

// Register declares kind as a direct subtype of each of supers.
func (r *Registry) Register(kind Kind, supers ...Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range supers {
		if s == kind || containsKind(r.supers[kind], s) {
			continue
		}
		r.supers[kind] = append(r.supers[kind], s)
	}
	if _, ok := r.supers[kind]; !ok {
		r.supers[kind] = nil
	}
}

// Known reports whether kind has been registered.
func (r *Registry) Known(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.supers[kind]
	return ok
}

// IsA reports whether kind is ancestor or one of its (transitive) subtypes.
func (r *Registry) IsA(kind, ancestor Kind) bool {
	if kind == ancestor {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[Kind]bool{kind: true}
	queue := append([]Kind(nil), r.supers[kind]...)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if k == ancestor {
			return true
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		queue = append(queue, r.supers[k]...)
	}
	return false
}

// Same reports whether a and b denote the same kind: each is assignable to the other.
func (r *Registry) Same(a, b Kind) bool {
	return r.IsA(a, b) && r.IsA(b, a)
}

func containsKind(ks []Kind, k Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

var defaultNameRe = regexp.MustCompile(`^(frame|dialog|win|panel|canvas|button|label|scrollpane|textfield|textarea|checkbox|choice|list|scrollbar|menubar|menu|menuitem|popup|filedialog)\d+$`)

var specialDefaultNames = map[string]bool{
	"###overrideRedirect###":    true,
	"###focusableSwingPopup###": true,
	"###nullName###":            true,
}

// HasDefaultName reports whether w carries no name or a name the toolkit assigned
// automatically (frame0, panel3, ...). Such names are not stable across runs.
func HasDefaultName(w Widget) bool {
	return IsDefaultName(w.Name())
}

// IsDefaultName reports whether name is empty or follows the toolkit's default naming scheme.
func IsDefaultName(name string) bool {
	if name == "" || specialDefaultNames[name] {
		return true
	}
	return defaultNameRe.MatchString(strings.ToLower(name))
}
