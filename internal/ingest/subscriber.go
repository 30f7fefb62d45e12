package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
	"github.com/orangeqtym/hubitat-terraform/internal/store"
)

// Writer is the slice of the store the subscriber needs.
type Writer interface {
	UpsertReading(r store.SensorReading) (store.UpsertResult, error)
}

// Subscriber is the bus-to-storage bridge: it listens on sensor-data and
// weather-data for the process lifetime and persists successful payloads
// without manual intervention. One bad message never stops ingestion of the
// next; every failure mode becomes a log line.
type Subscriber struct {
	store Writer
	log   *logger.Logger
}

func NewSubscriber(store Writer, log *logger.Logger) *Subscriber {
	return &Subscriber{store: store, log: log}
}

// Start registers the subscriptions. Handlers run on the broker's delivery
// goroutine until the connection closes at process shutdown.
func (s *Subscriber) Start(b *bus.Broker) error {
	for _, topic := range []string{bus.TopicSensorData, bus.TopicWeatherData} {
		if err := b.Subscribe(topic, s.Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}
	s.log.Info("started subscriber for automatic sensor and weather data storage")
	return nil
}

// payload is the nested data block inside an Envelope. Only payloads that
// report their own status as success are ingested; the source already logged
// anything else.
type payload struct {
	Status       string   `json:"status"`
	DeviceID     string   `json:"device_id"`
	Location     string   `json:"location"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	BatteryLevel *int     `json:"battery_level"`
	Timestamp    string   `json:"timestamp"`
}

// Handle processes one inbound message. Exported so the branching and
// validation rules can be exercised without a live broker.
func (s *Subscriber) Handle(topic string, data []byte) {
	var env struct {
		Data payload `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Error("failed to decode bus message", err, zap.String("topic", topic))
		s.countFailure(topic, "parse")
		return
	}
	p := env.Data
	if p.Status != "success" {
		return
	}

	var sensorID string
	switch topic {
	case bus.TopicSensorData:
		sensorID = p.DeviceID
		if sensorID == "" {
			sensorID = "unknown"
		}
	case bus.TopicWeatherData:
		location := p.Location
		if location == "" {
			location = "unknown"
		}
		sensorID = "weather_" + location
		// Weather stations have no battery to report.
		p.BatteryLevel = nil
	default:
		return
	}

	ts := time.Now().UTC()
	if p.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			s.log.Warn("unparseable payload timestamp, using now",
				zap.String("topic", topic), zap.String("timestamp", p.Timestamp))
		} else {
			ts = parsed
		}
	}

	reading, err := store.NewSensorReading(sensorID, p.Temperature, p.Humidity, p.BatteryLevel, ts)
	if err != nil {
		s.log.Error("rejected sensor reading", err, zap.String("topic", topic), zap.String("sensor_id", sensorID))
		s.countFailure(topic, "validation")
		return
	}

	if _, err := s.store.UpsertReading(reading); err != nil {
		s.log.Error("failed to auto-store reading", err, zap.String("sensor_id", reading.SensorID))
		s.countFailure(topic, "storage")
		return
	}
	if metrics.ReadingsIngested != nil {
		metrics.ReadingsIngested.WithLabelValues(topic).Inc()
	}
	s.log.Info("auto-stored reading", zap.String("topic", topic), zap.String("sensor_id", reading.SensorID))
}

func (s *Subscriber) countFailure(topic, reason string) {
	if metrics.IngestFailures != nil {
		metrics.IngestFailures.WithLabelValues(topic, reason).Inc()
	}
}
