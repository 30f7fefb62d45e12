package govee

import (
	"encoding/json"
	"strings"
	"time"
)

// Reading is the normalized sensor result published on the bus and returned
// from the API.
type Reading struct {
	Status            string   `json:"status"`
	Message           string   `json:"message,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	Humidity          *float64 `json:"humidity,omitempty"`
	BatteryLevel      *int     `json:"battery_level,omitempty"`
	DeviceID          string   `json:"device_id"`
	DeviceSKU         string   `json:"device_sku,omitempty"`
	Timestamp         string   `json:"timestamp,omitempty"`
	RequestID         string   `json:"request_id,omitempty"`
	CapabilitiesCount int      `json:"capabilities_count,omitempty"`
}

type capability struct {
	Instance string `json:"instance"`
	State    struct {
		Value json.RawMessage `json:"value"`
	} `json:"state"`
}

type stateResponse struct {
	Payload struct {
		Capabilities []capability `json:"capabilities"`
	} `json:"payload"`
}

// parseResponse extracts temperature, humidity and battery from the device's
// capability list. Matching is by case-insensitive instance name first; when
// a capability carries no usable name, the hard-coded schema positions are
// tried (index 1 temperature, index 2 humidity). The positional fallback is a
// documented fragility of the vendor schema, kept behind this adapter.
func (c *Client) parseResponse(data []byte, requestID string) Reading {
	var resp stateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return c.errorReading(requestID, "failed to parse device response: "+err.Error())
	}

	capabilities := resp.Payload.Capabilities
	if len(capabilities) == 0 {
		return Reading{
			Status:    "error",
			Message:   "no capabilities found in device response",
			DeviceID:  c.deviceID,
			RequestID: requestID,
		}
	}

	var (
		temperature  *float64
		humidity     *float64
		batteryLevel *int
	)

	for i, entry := range capabilities {
		instance := strings.ToLower(entry.Instance)
		value := entry.State.Value

		switch {
		case strings.Contains(instance, "temperature") || (i == 1 && isNumber(value)):
			if v, ok := asFloat(value); ok && v >= -100 && v <= 150 {
				temperature = &v
			}
		case strings.Contains(instance, "humidity") || (i == 2 && len(value) > 0):
			if v, ok := humidityValue(value); ok && v >= 0 && v <= 100 {
				humidity = &v
			}
		case strings.Contains(instance, "battery"):
			if v, ok := asFloat(value); ok && v >= 0 && v <= 100 {
				level := int(v)
				batteryLevel = &level
			}
		}
	}

	if temperature == nil && humidity == nil {
		return Reading{
			Status:    "error",
			Message:   "could not extract temperature or humidity from device response",
			DeviceID:  c.deviceID,
			RequestID: requestID,
		}
	}

	return Reading{
		Status:            "success",
		Temperature:       temperature,
		Humidity:          humidity,
		BatteryLevel:      batteryLevel,
		DeviceID:          c.deviceID,
		DeviceSKU:         c.sku,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		RequestID:         requestID,
		CapabilitiesCount: len(capabilities),
	}
}

// humidityValue handles both bare numbers and the nested
// {"currentHumidity": n} object some device firmwares report.
func humidityValue(raw json.RawMessage) (float64, bool) {
	if v, ok := asFloat(raw); ok {
		return v, true
	}
	var nested struct {
		CurrentHumidity *float64 `json:"currentHumidity"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && nested.CurrentHumidity != nil {
		return *nested.CurrentHumidity, true
	}
	return 0, false
}

func asFloat(raw json.RawMessage) (float64, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func isNumber(raw json.RawMessage) bool {
	_, ok := asFloat(raw)
	return ok
}
