package message

import (
	"reflect"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"state", "state"},
		{"battery-charge-level", "batteryChargeLevel"},
		{"full clean type", "fullCleanType"},
		{"state_reason", "stateReason"},
		{"clean-id", "cleanId"},
		{"alreadyCamel", "alreadyCamel"},
		{"UPPER-KEBAB", "upperKebab"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeKey(tt.input); got != tt.want {
				t.Errorf("normalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeKeysRecursive(t *testing.T) {
	input := map[string]any{
		"battery-charge-level": float64(80),
		"global position":      []any{float64(1), float64(2)},
		"nested-object": map[string]any{
			"inner-key": "value",
			"deep-list": []any{
				map[string]any{"leaf-key": true},
			},
		},
	}

	want := map[string]any{
		"batteryChargeLevel": float64(80),
		"globalPosition":     []any{float64(1), float64(2)},
		"nestedObject": map[string]any{
			"innerKey": "value",
			"deepList": []any{
				map[string]any{"leafKey": true},
			},
		},
	}

	got := NormalizeKeys(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeKeys() = %v, want %v", got, want)
	}
}

func TestNormalizeKeysLeavesValues(t *testing.T) {
	// Values containing separators must never be rewritten.
	input := map[string]any{"state-reason": "MODE-CHANGE"}
	got := NormalizeKeys(input).(map[string]any)

	if got["stateReason"] != "MODE-CHANGE" {
		t.Errorf("value was modified: %v", got["stateReason"])
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		prefix   string
		wireType string
		want     string
	}{
		{"Vacuum", "CURRENT-STATE", "VacuumCurrentState"},
		{"Vacuum", "HELLO", "VacuumHello"},
		{"Vacuum", "STATE-CHANGE", "VacuumStateChange"},
		{"Air", "ENVIRONMENTAL-CURRENT-SENSOR-DATA", "AirEnvironmentalCurrentSensorData"},
		{"Vacuum", "GONE-AWAY", "VacuumGoneAway"},
	}

	for _, tt := range tests {
		if got := TypeName(tt.prefix, tt.wireType); got != tt.want {
			t.Errorf("TypeName(%q, %q) = %q, want %q", tt.prefix, tt.wireType, got, tt.want)
		}
	}
}
