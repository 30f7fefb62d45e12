package govee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

const (
	baseURL  = "https://openapi.api.govee.com/router/api/v1/device/state"
	cacheTTL = 2 * time.Minute
)

// Client talks to the Govee device-state API for one configured sensor.
type Client struct {
	apiKey   string
	sku      string
	deviceID string
	endpoint string
	http     *http.Client
	cache    *gocache.Cache
	log      *logger.Logger
}

// NewClient fails fast when any of the Govee credentials are missing.
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	if err := config.Require(
		"govee_api_key", cfg.GoveeAPIKey,
		"govee_sku", cfg.GoveeSKU,
		"govee_device", cfg.GoveeDevice,
	); err != nil {
		return nil, err
	}
	return &Client{
		apiKey:   cfg.GoveeAPIKey,
		sku:      cfg.GoveeSKU,
		deviceID: cfg.GoveeDevice,
		endpoint: baseURL,
		http:     &http.Client{Timeout: 10 * time.Second},
		cache:    gocache.New(cacheTTL, 2*cacheTTL),
		log:      log,
	}, nil
}

func (c *Client) DeviceID() string { return c.deviceID }
func (c *Client) SKU() string      { return c.sku }
func (c *Client) Endpoint() string { return c.endpoint }
func (c *Client) CacheSize() int   { return c.cache.ItemCount() }

// DeviceState fetches the sensor's current readings. Failures come back as a
// Reading with status "error" and a coarse message, never an error value.
// Only successful readings are cached.
func (c *Client) DeviceState(ctx context.Context, useCache bool) Reading {
	cacheKey := fmt.Sprintf("govee_%s_%s", c.deviceID, c.sku)
	if useCache {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.log.Info("returning cached govee sensor data")
			return cached.(Reading)
		}
	}

	requestID := uuid.New().String()
	payload := map[string]interface{}{
		"requestId": requestID,
		"payload": map[string]string{
			"sku":    c.sku,
			"device": c.deviceID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return c.errorReading(requestID, fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.errorReading(requestID, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Govee-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.errorReading(requestID, fmt.Sprintf("network error accessing Govee API: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.errorReading(requestID, fmt.Sprintf("failed to read Govee response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorReading(requestID, fmt.Sprintf("Govee API HTTP error: %d - %s", resp.StatusCode, truncate(string(data), 200)))
	}

	reading := c.parseResponse(data, requestID)
	if reading.Status == "success" {
		c.cache.Set(cacheKey, reading, cacheTTL)
	}
	return reading
}

// CheckConnectivity exercises the device end to end, bypassing the cache.
func (c *Client) CheckConnectivity(ctx context.Context) map[string]interface{} {
	start := time.Now()
	reading := c.DeviceState(ctx, false)
	elapsed := float64(time.Since(start).Milliseconds())

	if reading.Status == "success" {
		return map[string]interface{}{
			"status":            "online",
			"api_key_valid":     true,
			"device_responsive": true,
			"response_time_ms":  elapsed,
			"device_id":         c.deviceID,
			"device_sku":        c.sku,
			"has_temperature":   reading.Temperature != nil,
			"has_humidity":      reading.Humidity != nil,
			"battery_level":     reading.BatteryLevel,
		}
	}
	return map[string]interface{}{
		"status":            "error",
		"api_key_valid":     true,
		"device_responsive": false,
		"error":             reading.Message,
		"device_id":         c.deviceID,
		"device_sku":        c.sku,
	}
}

func (c *Client) errorReading(requestID, msg string) Reading {
	c.log.Error("govee API failure", fmt.Errorf("%s", msg))
	return Reading{
		Status:    "error",
		Message:   msg,
		DeviceID:  c.deviceID,
		RequestID: requestID,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
