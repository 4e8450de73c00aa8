package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteApplianceMetric records one numeric appliance measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - serial: Appliance serial number
//   - measurement: The metric name (e.g. "batteryChargeLevel")
//   - value: The numeric value to record
func (c *Client) WriteApplianceMetric(serial string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"appliance_metrics",
		map[string]string{
			"serial":      serial,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSnapshot records every numeric field of a status snapshot as one
// point. Non-numeric fields are skipped; numeric strings (the air
// families report sensor readings as zero-padded strings) are parsed.
//
// Parameters:
//   - serial: Appliance serial number
//   - snapshot: Status snapshot as maintained by the session
func (c *Client) WriteSnapshot(serial string, snapshot map[string]any) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{})
	flattenNumeric("", snapshot, fields)
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"appliance_status",
		map[string]string{"serial": serial},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// flattenNumeric collects numeric leaves of a snapshot into fields,
// joining nested keys with '.'.
func flattenNumeric(prefix string, m map[string]any, fields map[string]interface{}) {
	for key, value := range m {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}

		switch v := value.(type) {
		case float64:
			fields[name] = v
		case int:
			fields[name] = float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				fields[name] = f
			}
		case map[string]any:
			flattenNumeric(name, v, fields)
		}
	}
}

// WritePoint writes a custom point with full control over tags and
// fields, for measurements the helpers do not cover.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
