package weather

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orangeqtym/hubitat-terraform/internal/api/middleware"
	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

type Handlers struct {
	client *Client
	broker *bus.Broker
	log    *logger.Logger
}

func NewRouter(client *Client, broker *bus.Broker, log *logger.Logger) *gin.Engine {
	h := &Handlers{client: client, broker: broker, log: log}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", h.healthHandler)
	r.GET("/current", h.currentHandler)
	r.GET("/forecast", h.forecastHandler)
	r.GET("/diagnostics", h.diagnosticsHandler)

	return r
}

func (h *Handlers) healthHandler(c *gin.Context) {
	details := map[string]interface{}{"service": "weather", "version": "1.0.0"}

	if h.broker.Connected() {
		details["bus"] = "connected"
	} else {
		details["bus"] = "disconnected"
	}

	apiStatus := h.client.CheckConnectivity(c.Request.Context())
	details["weather_api"] = apiStatus
	details["cache_size"] = h.client.CacheSize()

	status := health.StatusHealthy
	if apiStatus["status"] != "online" {
		status = health.StatusDegraded
	}

	report := health.NewReport(status, details)
	go health.PublishReport(h.broker, h.log, "weather", report)
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) currentHandler(c *gin.Context) {
	useCache := c.DefaultQuery("use_cache", "true") != "false"
	reading := h.client.Current(c.Request.Context(), useCache)

	if reading.Status == "success" {
		go h.publishReading(reading)
	}

	c.JSON(http.StatusOK, reading)
}

// forecastHandler is a placeholder for the 5-day forecast integration.
func (h *Handlers) forecastHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":          "Forecast endpoint ready for implementation",
		"current_location": h.client.Coordinates(),
		"api_status":       "configured",
	})
}

func (h *Handlers) diagnosticsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	tests := gin.H{}

	tests["api_connectivity"] = h.client.CheckConnectivity(ctx)

	reading := h.client.Current(ctx, false)
	status := "failed"
	if reading.Status == "success" {
		status = "passed"
	}
	tests["data_retrieval"] = gin.H{
		"status":          status,
		"has_temperature": reading.Temperature != nil,
		"has_humidity":    reading.Humidity != nil,
		"location":        reading.Location,
	}

	tests["cache"] = gin.H{
		"status":        "passed",
		"cache_size":    h.client.CacheSize(),
		"cache_enabled": true,
	}

	c.JSON(http.StatusOK, gin.H{"timestamp": time.Now().UTC(), "tests": tests})
}

func (h *Handlers) publishReading(reading Reading) {
	msg := bus.Envelope{
		Service:   "weather",
		Type:      "current_reading",
		Data:      reading,
		Timestamp: time.Now().UTC(),
	}
	if err := h.broker.Publish(bus.TopicWeatherData, msg); err != nil {
		h.log.Error("failed to publish weather data", err)
	}
}
