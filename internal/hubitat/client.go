package hubitat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orangeqtym/hubitat-terraform/internal/config"
)

// Device is one entry from the Maker API device list.
type Device struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Label        string                 `json:"label"`
	Type         string                 `json:"type"`
	Room         string                 `json:"room"`
	Capabilities []string               `json:"capabilities"`
	Attributes   map[string]interface{} `json:"attributes"`
}

// Client talks to the Hubitat hub's Maker API.
type Client struct {
	baseURL string
	token   string
	hubIP   string
	http    *http.Client
}

// NewClient fails fast when the hub credentials are missing; the service
// must not come up half-configured.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.Require(
		"hubitat_ip", cfg.HubitatIP,
		"hubitat_access_token", cfg.HubitatAccessToken,
		"hubitat_app_id", cfg.HubitatAppID,
	); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s/apps/api/%s/devices", cfg.HubitatIP, cfg.HubitatAppID),
		token:   cfg.HubitatAccessToken,
		hubIP:   cfg.HubitatIP,
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubitat API error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hubitat API read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("hubitat API returned HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

// AllDevices lists every device exposed through the Maker API.
func (c *Client) AllDevices(ctx context.Context) ([]Device, error) {
	data, err := c.do(ctx, http.MethodGet, "/all", nil)
	if err != nil {
		return nil, err
	}
	var devices []Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("failed to decode device list: %w", err)
	}
	return devices, nil
}

// Device fetches one device's details.
func (c *Client) Device(ctx context.Context, deviceID string) (map[string]interface{}, error) {
	data, err := c.do(ctx, http.MethodGet, "/"+deviceID, nil)
	if err != nil {
		return nil, err
	}
	var device map[string]interface{}
	if err := json.Unmarshal(data, &device); err != nil {
		return nil, fmt.Errorf("failed to decode device: %w", err)
	}
	return device, nil
}

// SendCommand issues a command to a device. Parameterless commands go over
// GET, matching the Maker API convention.
func (c *Client) SendCommand(ctx context.Context, deviceID, command string, params map[string]interface{}) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("/%s/%s", deviceID, command)
	var (
		data []byte
		err  error
	)
	if len(params) > 0 {
		data, err = c.do(ctx, http.MethodPost, endpoint, params)
	} else {
		data, err = c.do(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode command result: %w", err)
	}
	return result, nil
}

// CheckConnectivity reports whether the hub is reachable and responsive.
func (c *Client) CheckConnectivity(ctx context.Context) map[string]interface{} {
	start := time.Now()
	devices, err := c.AllDevices(ctx)
	if err != nil {
		return map[string]interface{}{
			"status": "offline",
			"error":  err.Error(),
			"hub_ip": c.hubIP,
		}
	}
	return map[string]interface{}{
		"status":           "online",
		"device_count":     len(devices),
		"response_time_ms": float64(time.Since(start).Milliseconds()),
		"hub_ip":           c.hubIP,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
