package message

import (
	"reflect"
	"sync"
)

// Dedup suppresses messages that are structurally identical to the
// immediately preceding one.
//
// Appliances rebroadcast their full state on a timer even when nothing
// changed; passing those through would cause spurious status events and
// would keep resetting downstream consumers. Only the timestamp is
// ignored in the comparison: any real field change passes.
type Dedup struct {
	mu   sync.Mutex
	prev *Message
}

// NewDedup creates an empty deduplication filter.
func NewDedup() *Dedup {
	return &Dedup{}
}

// Check reports whether msg duplicates the previous message. A
// non-duplicate becomes the new comparison baseline; a duplicate leaves
// the baseline untouched.
func (d *Dedup) Check(msg *Message) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prev != nil &&
		d.prev.Name == msg.Name &&
		d.prev.Topic == msg.Topic &&
		reflect.DeepEqual(d.prev.Fields, msg.Fields) {
		return true
	}

	d.prev = msg
	return false
}
