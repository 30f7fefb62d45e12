package store

import (
	"fmt"
	"time"
)

// SensorReading is one telemetry sample from a physical or synthesized
// sensor. Range violations are construction-time rejections, never write
// failures, so a bad sample can be dropped before it touches the database.
type SensorReading struct {
	SensorID     string    `json:"sensor_id"`
	Temperature  *float64  `json:"temperature"`
	Humidity     *float64  `json:"humidity"`
	BatteryLevel *int      `json:"battery_level"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewSensorReading validates and builds a reading. Temperature is degrees
// Fahrenheit in [-100, 150]; humidity is a percentage in [0, 100]. A zero
// timestamp defaults to now.
func NewSensorReading(sensorID string, temperature, humidity *float64, batteryLevel *int, ts time.Time) (SensorReading, error) {
	if sensorID == "" {
		return SensorReading{}, fmt.Errorf("sensor_id is required")
	}
	if temperature != nil && (*temperature < -100 || *temperature > 150) {
		return SensorReading{}, fmt.Errorf("temperature must be between -100 and 150 degrees, got %v", *temperature)
	}
	if humidity != nil && (*humidity < 0 || *humidity > 100) {
		return SensorReading{}, fmt.Errorf("humidity must be between 0 and 100 percent, got %v", *humidity)
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return SensorReading{
		SensorID:     sensorID,
		Temperature:  temperature,
		Humidity:     humidity,
		BatteryLevel: batteryLevel,
		Timestamp:    ts.UTC(),
	}, nil
}
