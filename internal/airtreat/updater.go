package airtreat

import (
	"reflect"

	"github.com/nfarrow/appliancelink/internal/message"
)

// ApplyStatus folds an air-treatment status message into the snapshot
// in place.
//
// CURRENT-STATE and STATE-CHANGE carry a productState object whose
// entries merge into the snapshot's own "productState" map. In
// STATE-CHANGE messages each entry is a two-element [old, new] array;
// only the new value is kept. ENVIRONMENTAL-CURRENT-SENSOR-DATA's
// readings are stored under "environment".
//
// Parameters:
//   - snapshot: the device's accumulated status; mutated in place.
//   - msg: a parsed air-treatment status message.
//
// Returns:
//   - bool: true if the snapshot changed.
func ApplyStatus(snapshot map[string]any, msg *message.Message) bool {
	switch msg.Name {
	case "AirCurrentState":
		return applyProductState(snapshot, msg.Fields, false)
	case "AirStateChange":
		return applyProductState(snapshot, msg.Fields, true)
	case "AirEnvironmentalCurrentSensorData":
		return applySensorData(snapshot, msg.Fields)
	}
	return false
}

func applyProductState(snapshot map[string]any, fields map[string]any, delta bool) bool {
	incoming, ok := fields["productState"].(map[string]any)
	if !ok {
		return false
	}

	product, ok := snapshot["productState"].(map[string]any)
	if !ok {
		product = make(map[string]any, len(incoming))
		snapshot["productState"] = product
	}

	changed := false
	for key, value := range incoming {
		if delta {
			// STATE-CHANGE entries are [old, new] pairs.
			pair, ok := value.([]any)
			if !ok || len(pair) != 2 {
				continue
			}
			value = pair[1]
		}
		if !reflect.DeepEqual(product[key], value) {
			product[key] = value
			changed = true
		}
	}
	return changed
}

func applySensorData(snapshot map[string]any, fields map[string]any) bool {
	data, ok := fields["data"].(map[string]any)
	if !ok {
		return false
	}
	if reflect.DeepEqual(snapshot["environment"], data) {
		return false
	}
	snapshot["environment"] = data
	return true
}
