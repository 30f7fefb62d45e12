package govee

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

func clientFor(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	log, err := logger.New("development", "govee-test")
	require.NoError(t, err)
	return &Client{
		apiKey:   "test-key",
		sku:      "H5075",
		deviceID: "AA:BB:CC:DD",
		endpoint: srv.URL,
		http:     srv.Client(),
		cache:    gocache.New(cacheTTL, 2*cacheTTL),
		log:      log,
	}
}

const deviceStateResponse = `{
	"payload": {
		"capabilities": [
			{"instance": "online", "state": {"value": true}},
			{"instance": "sensorTemperature", "state": {"value": 72.5}},
			{"instance": "sensorHumidity", "state": {"value": 45.2}},
			{"instance": "batteryLevel", "state": {"value": 88}}
		]
	}
}`

func TestDeviceStateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("Govee-API-Key"))

		var body struct {
			RequestID string `json:"requestId"`
			Payload   struct {
				SKU    string `json:"sku"`
				Device string `json:"device"`
			} `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body.RequestID)
		assert.Equal(t, "H5075", body.Payload.SKU)
		assert.Equal(t, "AA:BB:CC:DD", body.Payload.Device)

		w.Write([]byte(deviceStateResponse))
	}))
	defer srv.Close()

	reading := clientFor(t, srv).DeviceState(context.Background(), false)

	assert.Equal(t, "success", reading.Status)
	require.NotNil(t, reading.Temperature)
	assert.Equal(t, 72.5, *reading.Temperature)
	require.NotNil(t, reading.BatteryLevel)
	assert.Equal(t, 88, *reading.BatteryLevel)
	assert.NotEmpty(t, reading.RequestID)
}

func TestDeviceStateCachesSuccessOnly(t *testing.T) {
	var hits int
	var mu sync.Mutex
	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		shouldFail := fail
		mu.Unlock()
		if shouldFail {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(deviceStateResponse))
	}))
	defer srv.Close()

	c := clientFor(t, srv)

	// Errors pass through uncached, so the next call hits upstream again.
	first := c.DeviceState(context.Background(), true)
	assert.Equal(t, "error", first.Status)
	assert.Contains(t, first.Message, "429")

	mu.Lock()
	fail = false
	mu.Unlock()

	second := c.DeviceState(context.Background(), true)
	assert.Equal(t, "success", second.Status)

	third := c.DeviceState(context.Background(), true)
	assert.Equal(t, second.Timestamp, third.Timestamp)

	mu.Lock()
	assert.Equal(t, 2, hits)
	mu.Unlock()
}

func TestDeviceStateNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := clientFor(t, srv)
	srv.Close()

	reading := c.DeviceState(context.Background(), false)
	assert.Equal(t, "error", reading.Status)
	assert.Contains(t, reading.Message, "network error")
	assert.Equal(t, "AA:BB:CC:DD", reading.DeviceID)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	log, err := logger.New("development", "govee-test")
	require.NoError(t, err)

	_, err = NewClient(&config.Config{GoveeAPIKey: "k"}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOVEE_SKU")
	assert.Contains(t, err.Error(), "GOVEE_DEVICE")

	c, err := NewClient(&config.Config{GoveeAPIKey: "k", GoveeSKU: "H5075", GoveeDevice: "AA:BB"}, log)
	require.NoError(t, err)
	assert.Equal(t, "AA:BB", c.DeviceID())
	assert.Equal(t, "H5075", c.SKU())
}
