package vacuum

import (
	"reflect"

	"github.com/nfarrow/appliancelink/internal/message"
)

// transientFields are per-run fields the appliance stops sending when a
// run ends. Absence from a CURRENT-STATE message means "gone", so the
// updater clears them rather than keeping stale values. This list is
// authoritative; additions here change snapshot behaviour for every
// vacuum device.
var transientFields = []string{
	"cleanId",
	"fullCleanType",
	"globalPosition",
	"faults",
	"currentVacuumPowerMode",
}

// ApplyStatus folds a vacuum status message into the snapshot in place.
//
// CURRENT-STATE replaces reported fields wholesale and clears transient
// fields the message omits. STATE-CHANGE carries the new state in a
// "newState" field, which is rewritten to "state"; the "oldState" field
// is dropped rather than stored.
//
// Parameters:
//   - snapshot: the device's accumulated status; mutated in place.
//   - msg: a parsed VacuumCurrentState or VacuumStateChange message.
//
// Returns:
//   - bool: true if the snapshot changed.
func ApplyStatus(snapshot map[string]any, msg *message.Message) bool {
	switch msg.Name {
	case "VacuumCurrentState":
		return applyCurrentState(snapshot, msg.Fields)
	case "VacuumStateChange":
		return applyStateChange(snapshot, msg.Fields)
	}
	return false
}

func applyCurrentState(snapshot map[string]any, fields map[string]any) bool {
	changed := false

	for key, value := range fields {
		if !reflect.DeepEqual(snapshot[key], value) {
			snapshot[key] = value
			changed = true
		}
	}

	for _, key := range transientFields {
		if _, sent := fields[key]; sent {
			continue
		}
		if _, present := snapshot[key]; present {
			delete(snapshot, key)
			changed = true
		}
	}

	return changed
}

func applyStateChange(snapshot map[string]any, fields map[string]any) bool {
	changed := false

	for key, value := range fields {
		switch key {
		case "oldState":
			continue
		case "newState":
			key = "state"
		}
		if !reflect.DeepEqual(snapshot[key], value) {
			snapshot[key] = value
			changed = true
		}
	}

	return changed
}

// StateOf extracts the appliance state from a snapshot, if present and
// recognisable.
func StateOf(snapshot map[string]any) (State, bool) {
	raw, ok := snapshot["state"].(string)
	if !ok {
		return "", false
	}
	return State(raw), true
}
