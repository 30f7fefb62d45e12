package govee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

func parserClient() *Client {
	log, _ := logger.New("development", "govee-test")
	return &Client{deviceID: "AA:BB:CC:DD", sku: "H5075", log: log}
}

func TestParseResponseByInstanceName(t *testing.T) {
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "online", "state": {"value": true}},
				{"instance": "sensorTemperature", "state": {"value": 72.5}},
				{"instance": "sensorHumidity", "state": {"value": 45.2}},
				{"instance": "batteryLevel", "state": {"value": 88}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-1")

	assert.Equal(t, "success", r.Status)
	require.NotNil(t, r.Temperature)
	assert.Equal(t, 72.5, *r.Temperature)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 45.2, *r.Humidity)
	require.NotNil(t, r.BatteryLevel)
	assert.Equal(t, 88, *r.BatteryLevel)
	assert.Equal(t, "AA:BB:CC:DD", r.DeviceID)
	assert.Equal(t, "H5075", r.DeviceSKU)
	assert.Equal(t, "req-1", r.RequestID)
	assert.Equal(t, 4, r.CapabilitiesCount)
}

func TestParseResponseCaseInsensitiveInstances(t *testing.T) {
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "SENSORTEMPERATURE", "state": {"value": 70.0}},
				{"instance": "SensorHumidity", "state": {"value": 40.0}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-2")
	assert.Equal(t, "success", r.Status)
	assert.NotNil(t, r.Temperature)
	assert.NotNil(t, r.Humidity)
}

func TestParseResponsePositionalFallback(t *testing.T) {
	// Unnamed capabilities fall back to the vendor schema positions:
	// index 1 is temperature, index 2 is humidity.
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "", "state": {"value": true}},
				{"instance": "", "state": {"value": 68.3}},
				{"instance": "", "state": {"value": 52.0}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-3")

	assert.Equal(t, "success", r.Status)
	require.NotNil(t, r.Temperature)
	assert.Equal(t, 68.3, *r.Temperature)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 52.0, *r.Humidity)
}

func TestParseResponseNestedHumidity(t *testing.T) {
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "sensorTemperature", "state": {"value": 71.0}},
				{"instance": "sensorHumidity", "state": {"value": {"currentHumidity": 48.5}}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-4")

	assert.Equal(t, "success", r.Status)
	require.NotNil(t, r.Humidity)
	assert.Equal(t, 48.5, *r.Humidity)
}

func TestParseResponseOutOfRangeValuesDropped(t *testing.T) {
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "sensorTemperature", "state": {"value": 999}},
				{"instance": "sensorHumidity", "state": {"value": 40.0}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-5")

	// Humidity alone still yields a success.
	assert.Equal(t, "success", r.Status)
	assert.Nil(t, r.Temperature)
	assert.NotNil(t, r.Humidity)
}

func TestParseResponseNoCapabilities(t *testing.T) {
	r := parserClient().parseResponse([]byte(`{"payload":{"capabilities":[]}}`), "req-6")
	assert.Equal(t, "error", r.Status)
	assert.Contains(t, r.Message, "no capabilities")
}

func TestParseResponseNothingUsable(t *testing.T) {
	body := []byte(`{
		"payload": {
			"capabilities": [
				{"instance": "online", "state": {"value": true}}
			]
		}
	}`)

	r := parserClient().parseResponse(body, "req-7")
	assert.Equal(t, "error", r.Status)
	assert.Contains(t, r.Message, "could not extract")
}

func TestParseResponseMalformedJSON(t *testing.T) {
	r := parserClient().parseResponse([]byte(`{broken`), "req-8")
	assert.Equal(t, "error", r.Status)
	assert.Contains(t, r.Message, "failed to parse")
}
