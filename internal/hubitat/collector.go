package hubitat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

// CollectInterval is how often device sensor readings are swept onto the bus.
const CollectInterval = 5 * time.Minute

var sensorCapabilities = []string{"TemperatureMeasurement", "RelativeHumidityMeasurement"}

// Collector periodically reads every temperature/humidity-capable device off
// the hub and publishes its readings to the sensor-data topic.
type Collector struct {
	client *Client
	pub    health.Publisher
	log    *logger.Logger
}

func NewCollector(client *Client, pub health.Publisher, log *logger.Logger) *Collector {
	return &Collector{client: client, pub: pub, log: log}
}

// Run sweeps once per interval until ctx is cancelled. A failed sweep is
// logged and the loop keeps going.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			devices, err := c.client.AllDevices(ctx)
			if err != nil {
				c.log.Error("sensor data collector sweep failed", err)
				continue
			}
			c.PublishReadings(devices)
		}
	}
}

// PublishReadings pushes one sensor-data message per sensor-capable device.
// Devices whose attribute values cannot be converted are skipped.
func (c *Collector) PublishReadings(devices []Device) {
	for _, device := range devices {
		if !isSensor(device) {
			continue
		}

		temperature, tempOK := toFloat(device.Attributes["temperature"])
		humidity, humOK := toFloat(device.Attributes["humidity"])
		battery, battOK := toInt(device.Attributes["battery"])
		if !tempOK && !humOK {
			continue
		}

		data := map[string]interface{}{
			"status":        "success",
			"device_id":     SensorID(device.Label),
			"device_name":   device.Label,
			"device_type":   device.Type,
			"room":          roomOrUnknown(device.Room),
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"raw_device_id": device.ID,
		}
		if tempOK {
			data["temperature"] = temperature
		}
		if humOK {
			data["humidity"] = humidity
		}
		if battOK {
			data["battery_level"] = battery
		}

		msg := bus.Envelope{
			Service:   "hubitat",
			Type:      "sensor_reading",
			Data:      data,
			Timestamp: time.Now().UTC(),
		}
		if err := c.pub.Publish(bus.TopicSensorData, msg); err != nil {
			c.log.Error("failed to publish sensor reading", err, zap.String("device", device.Label))
			continue
		}
		c.log.Info("published sensor data", zap.String("device", device.Label))
	}
}

// SensorID derives the storage sensor identifier from a device label.
func SensorID(label string) string {
	return "hubitat_" + strings.ToLower(strings.ReplaceAll(label, " ", "_"))
}

func isSensor(device Device) bool {
	for _, cap := range device.Capabilities {
		for _, want := range sensorCapabilities {
			if cap == want {
				return true
			}
		}
	}
	return false
}

func roomOrUnknown(room string) string {
	if room == "" {
		return "Unknown"
	}
	return room
}

// Hub attributes arrive as strings or numbers depending on driver; accept both.
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	return int(f), ok
}
