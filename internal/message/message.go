package message

import (
	"time"
)

// Message is a validated, normalized inbound message.
//
// Messages are constructed by the Pipeline from one transport payload,
// consumed once by the family state updater, then discarded.
type Message struct {
	// Name is the internal type name (e.g. "VacuumCurrentState").
	Name string

	// WireType is the type tag as it appeared on the wire
	// (e.g. "CURRENT-STATE").
	WireType string

	// Topic is the topic the message arrived on.
	Topic string

	// Fields holds the normalized message fields, excluding the type tag
	// and timestamp.
	Fields map[string]any

	// Time is the message timestamp, if the payload carried one.
	Time time.Time
}

// Field returns a field value and whether it was present.
func (m *Message) Field(name string) (any, bool) {
	v, ok := m.Fields[name]
	return v, ok
}

// StringField returns a string field, or "" if absent or not a string.
func (m *Message) StringField(name string) string {
	if v, ok := m.Fields[name].(string); ok {
		return v
	}
	return ""
}
