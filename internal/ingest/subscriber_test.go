package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/store"
)

type fakeWriter struct {
	readings []store.SensorReading
	err      error
}

func (w *fakeWriter) UpsertReading(r store.SensorReading) (store.UpsertResult, error) {
	if w.err != nil {
		return store.UpsertResult{}, w.err
	}
	w.readings = append(w.readings, r)
	return store.UpsertResult{SensorID: r.SensorID, Timestamp: r.Timestamp}, nil
}

func newTestSubscriber(t *testing.T, w *fakeWriter) *Subscriber {
	t.Helper()
	log, err := logger.New("development", "ingest-test")
	require.NoError(t, err)
	return NewSubscriber(w, log)
}

func TestHandleStoresSensorData(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicSensorData, []byte(`{
		"service": "govee",
		"type": "sensor_reading",
		"data": {
			"status": "success",
			"device_id": "govee_5075",
			"temperature": 72.5,
			"humidity": 45.0,
			"battery_level": 88,
			"timestamp": "2026-08-28T12:00:00Z"
		}
	}`))

	require.Len(t, w.readings, 1)
	r := w.readings[0]
	assert.Equal(t, "govee_5075", r.SensorID)
	assert.Equal(t, 72.5, *r.Temperature)
	assert.Equal(t, 45.0, *r.Humidity)
	assert.Equal(t, 88, *r.BatteryLevel)
	assert.Equal(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), r.Timestamp)
}

func TestHandleSynthesizesWeatherSensorID(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicWeatherData, []byte(`{
		"data": {
			"status": "success",
			"location": "Austin",
			"temperature": 95.1,
			"humidity": 30.0,
			"battery_level": 50
		}
	}`))

	require.Len(t, w.readings, 1)
	assert.Equal(t, "weather_Austin", w.readings[0].SensorID)
	// Weather payloads never carry a real battery level.
	assert.Nil(t, w.readings[0].BatteryLevel)
}

func TestHandleWeatherMissingLocation(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicWeatherData, []byte(`{"data":{"status":"success","temperature":70}}`))

	require.Len(t, w.readings, 1)
	assert.Equal(t, "weather_unknown", w.readings[0].SensorID)
}

func TestHandleSkipsNonSuccessPayloads(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"error","device_id":"govee_5075","temperature":72.5}}`))
	s.Handle(bus.TopicSensorData, []byte(`{"data":{"device_id":"govee_5075","temperature":72.5}}`))

	assert.Empty(t, w.readings)
}

func TestHandleMalformedJSON(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicSensorData, []byte(`{not json`))
	assert.Empty(t, w.readings)

	// A bad message must not stop the next good one.
	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","device_id":"d1","temperature":70}}`))
	assert.Len(t, w.readings, 1)
}

func TestHandleRejectsOutOfRangeValues(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","device_id":"d1","temperature":500}}`))
	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","device_id":"d1","humidity":120}}`))

	assert.Empty(t, w.readings)
}

func TestHandleUnknownDeviceID(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","temperature":70}}`))

	require.Len(t, w.readings, 1)
	assert.Equal(t, "unknown", w.readings[0].SensorID)
}

func TestHandleBadTimestampFallsBackToNow(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	before := time.Now().UTC()
	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","device_id":"d1","temperature":70,"timestamp":"yesterday-ish"}}`))

	require.Len(t, w.readings, 1)
	assert.False(t, w.readings[0].Timestamp.Before(before.Truncate(time.Second)))
}

func TestHandleIgnoresOtherTopics(t *testing.T) {
	w := &fakeWriter{}
	s := newTestSubscriber(t, w)

	s.Handle(bus.TopicHealthUpdates, []byte(`{"data":{"status":"success","device_id":"d1","temperature":70}}`))
	assert.Empty(t, w.readings)
}

func TestHandleStorageFailureIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	s := newTestSubscriber(t, w)

	// Must not panic; the failure is logged and the handler returns.
	s.Handle(bus.TopicSensorData, []byte(`{"data":{"status":"success","device_id":"d1","temperature":70}}`))
	assert.Empty(t, w.readings)
}
