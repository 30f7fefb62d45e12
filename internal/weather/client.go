package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/config"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

const (
	baseURL  = "https://api.openweathermap.org/data/2.5/weather"
	cacheTTL = 5 * time.Minute
)

// apiResponse is the slice of the OpenWeatherMap current-weather payload we
// consume.
type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
		Pressure *float64 `json:"pressure"`
	} `json:"main"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Reading is the normalized weather result. Status is "success" or "error";
// the error branch keeps the coarse classification of the upstream response
// (no auth-vs-network distinction).
type Reading struct {
	Status       string   `json:"status"`
	Message      string   `json:"message,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	Pressure     *float64 `json:"pressure,omitempty"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description,omitempty"`
	Sunrise      *string  `json:"sunrise,omitempty"`
	Sunset       *string  `json:"sunset,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	ResponseTime float64  `json:"response_time_ms,omitempty"`
}

// Client wraps the OpenWeatherMap current-weather endpoint with a 5-minute
// TTL cache.
type Client struct {
	apiKey    string
	latitude  string
	longitude string
	endpoint  string
	http      *http.Client
	cache     *gocache.Cache
	log       *logger.Logger
}

// NewClient validates credentials and coordinates up front; a bad
// configuration is fatal before any traffic is served.
func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	if err := config.Require("openweathermap_api_key", cfg.OpenWeatherMapAPIKey); err != nil {
		return nil, err
	}
	lat, err := strconv.ParseFloat(cfg.Latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", cfg.Latitude, err)
	}
	lon, err := strconv.ParseFloat(cfg.Longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", cfg.Longitude, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: %s, %s", cfg.Latitude, cfg.Longitude)
	}

	return &Client{
		apiKey:    cfg.OpenWeatherMapAPIKey,
		latitude:  cfg.Latitude,
		longitude: cfg.Longitude,
		endpoint:  baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
		log:       log,
	}, nil
}

func (c *Client) Coordinates() string {
	return c.latitude + ", " + c.longitude
}

func (c *Client) CacheSize() int {
	return c.cache.ItemCount()
}

// Current returns the current weather, from cache when allowed and fresh
// enough. Failures come back as a Reading with status "error", never an
// error value: upstream trouble is data here, not control flow.
func (c *Client) Current(ctx context.Context, useCache bool) Reading {
	cacheKey := fmt.Sprintf("weather_%s_%s", c.latitude, c.longitude)
	if useCache {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.log.Info("returning cached weather data")
			return cached.(Reading)
		}
	}

	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("lat", c.latitude)
	params.Set("lon", c.longitude)
	params.Set("units", "imperial")

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return c.errorReading(fmt.Sprintf("failed to build weather request: %v", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.errorReading(fmt.Sprintf("network error accessing weather API: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.errorReading(fmt.Sprintf("failed to read weather response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorReading(fmt.Sprintf("OpenWeatherMap API HTTP error: %d - %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return c.errorReading(fmt.Sprintf("failed to decode weather response: %v", err))
	}

	if parsed.Main.Temp != nil && (*parsed.Main.Temp < -100 || *parsed.Main.Temp > 150) {
		c.log.Warn("temperature out of expected range", zap.Float64("temperature", *parsed.Main.Temp))
	}
	if parsed.Main.Humidity != nil && (*parsed.Main.Humidity < 0 || *parsed.Main.Humidity > 100) {
		c.log.Warn("humidity out of expected range", zap.Float64("humidity", *parsed.Main.Humidity))
	}

	reading := Reading{
		Status:       "success",
		Temperature:  parsed.Main.Temp,
		Humidity:     parsed.Main.Humidity,
		Pressure:     parsed.Main.Pressure,
		Location:     locationOrUnknown(parsed.Name),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		ResponseTime: float64(time.Since(start).Milliseconds()),
	}
	if len(parsed.Weather) > 0 {
		reading.Description = parsed.Weather[0].Description
	}
	if parsed.Sys.Sunrise > 0 {
		s := time.Unix(parsed.Sys.Sunrise, 0).UTC().Format(time.RFC3339)
		reading.Sunrise = &s
	}
	if parsed.Sys.Sunset > 0 {
		s := time.Unix(parsed.Sys.Sunset, 0).UTC().Format(time.RFC3339)
		reading.Sunset = &s
	}

	c.cache.Set(cacheKey, reading, cacheTTL)
	c.log.Info("retrieved weather data", zap.String("location", reading.Location))
	return reading
}

// CheckConnectivity exercises the API end to end, bypassing the cache.
func (c *Client) CheckConnectivity(ctx context.Context) map[string]interface{} {
	start := time.Now()
	reading := c.Current(ctx, false)
	elapsed := float64(time.Since(start).Milliseconds())

	if reading.Status == "success" {
		return map[string]interface{}{
			"status":           "online",
			"api_key_valid":    true,
			"response_time_ms": elapsed,
			"location":         reading.Location,
			"current_temp":     reading.Temperature,
			"coordinates":      c.Coordinates(),
		}
	}
	return map[string]interface{}{
		"status":        "error",
		"api_key_valid": false,
		"error":         reading.Message,
		"coordinates":   c.Coordinates(),
	}
}

func (c *Client) errorReading(msg string) Reading {
	c.log.Error("weather API failure", fmt.Errorf("%s", msg))
	return Reading{Status: "error", Message: msg}
}

func locationOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
