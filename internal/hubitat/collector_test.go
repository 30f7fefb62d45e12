package hubitat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   []bus.Envelope
}

func (p *recordingPublisher) Publish(topic string, msg interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.msgs = append(p.msgs, msg.(bus.Envelope))
	return nil
}

func testCollector(t *testing.T, pub *recordingPublisher) *Collector {
	t.Helper()
	log, err := logger.New("development", "hubitat-test")
	require.NoError(t, err)
	return NewCollector(nil, pub, log)
}

func sensorDevice(id, label string, attrs map[string]interface{}) Device {
	return Device{
		ID:           id,
		Label:        label,
		Type:         "Virtual Temperature Sensor",
		Room:         "Office",
		Capabilities: []string{"TemperatureMeasurement", "Refresh"},
		Attributes:   attrs,
	}
}

func TestPublishReadingsFiltersNonSensors(t *testing.T) {
	pub := &recordingPublisher{}
	c := testCollector(t, pub)

	c.PublishReadings([]Device{
		sensorDevice("1", "Office Sensor", map[string]interface{}{"temperature": 72.5}),
		{ID: "2", Label: "Hall Light", Capabilities: []string{"Switch"}, Attributes: map[string]interface{}{}},
	})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, bus.TopicSensorData, pub.topics[0])
	data := pub.msgs[0].Data.(map[string]interface{})
	assert.Equal(t, "hubitat_office_sensor", data["device_id"])
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, 72.5, data["temperature"])
}

func TestPublishReadingsAcceptsStringAttributes(t *testing.T) {
	pub := &recordingPublisher{}
	c := testCollector(t, pub)

	c.PublishReadings([]Device{
		sensorDevice("1", "Porch", map[string]interface{}{
			"temperature": "68.4",
			"humidity":    "55",
			"battery":     "90",
		}),
	})

	require.Len(t, pub.msgs, 1)
	data := pub.msgs[0].Data.(map[string]interface{})
	assert.Equal(t, 68.4, data["temperature"])
	assert.Equal(t, 55.0, data["humidity"])
	assert.Equal(t, 90, data["battery_level"])
}

func TestPublishReadingsSkipsUnconvertible(t *testing.T) {
	pub := &recordingPublisher{}
	c := testCollector(t, pub)

	// Neither temperature nor humidity usable: skip the device entirely.
	c.PublishReadings([]Device{
		sensorDevice("1", "Broken", map[string]interface{}{"temperature": "not-a-number"}),
		sensorDevice("2", "No Data", map[string]interface{}{}),
	})
	assert.Empty(t, pub.msgs)

	// Humidity alone is enough.
	c.PublishReadings([]Device{
		sensorDevice("3", "Humidity Only", map[string]interface{}{"humidity": 45.0}),
	})
	require.Len(t, pub.msgs, 1)
	data := pub.msgs[0].Data.(map[string]interface{})
	assert.NotContains(t, data, "temperature")
	assert.Equal(t, 45.0, data["humidity"])
}

func TestSensorID(t *testing.T) {
	assert.Equal(t, "hubitat_office_sensor", SensorID("Office Sensor"))
	assert.Equal(t, "hubitat_porch", SensorID("Porch"))
	assert.Equal(t, "hubitat_main_floor_thermostat", SensorID("Main Floor Thermostat"))
}

func TestRoomOrUnknown(t *testing.T) {
	assert.Equal(t, "Office", roomOrUnknown("Office"))
	assert.Equal(t, "Unknown", roomOrUnknown(""))
}
