package influxdb

import "testing"

func TestFlattenNumeric(t *testing.T) {
	snapshot := map[string]any{
		"batteryChargeLevel": float64(87),
		"state":              "InactiveCharged",
		"environment": map[string]any{
			"tact": "2956",
			"hact": "0047",
			"vact": "INIT",
		},
		"globalPosition": []any{float64(1), float64(2)},
	}

	fields := make(map[string]interface{})
	flattenNumeric("", snapshot, fields)

	want := map[string]float64{
		"batteryChargeLevel": 87,
		"environment.tact":   2956,
		"environment.hact":   47,
	}
	if len(fields) != len(want) {
		t.Fatalf("flattenNumeric produced %v, want keys %v", fields, want)
	}
	for key, w := range want {
		got, ok := fields[key].(float64)
		if !ok || got != w {
			t.Errorf("fields[%q] = %v, want %v", key, fields[key], w)
		}
	}
}

func TestFlattenNumericEmptySnapshot(t *testing.T) {
	fields := make(map[string]interface{})
	flattenNumeric("", map[string]any{}, fields)

	if len(fields) != 0 {
		t.Errorf("flattenNumeric(empty) = %v, want empty", fields)
	}
}
