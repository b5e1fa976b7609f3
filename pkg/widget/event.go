package widget

import "time"

// EventType is the semantic kind of a user input event.
type EventType string

const (
	EventClick        EventType = "click"
	EventDoubleClick  EventType = "double-click"
	EventTyping       EventType = "type"
	EventKey          EventType = "key"
	EventSelect       EventType = "select"
	EventHover        EventType = "hover"
	EventWindowOpened EventType = "window-opened"
	EventWindowClosed EventType = "window-closed"
)

// Event is a user input event as delivered by a toolkit binding's listeners.
type Event struct {
	Type   EventType
	Target Widget
	// Text carries typed characters, the key name or the selected value.
	Text string
	X, Y int
	Time time.Time
}

// EventSource is implemented by bindings that deliver input events.
// Listeners are invoked on the binding's dispatch goroutine.
type EventSource interface {
	Subscribe(fn func(Event)) (cancel func())
}
