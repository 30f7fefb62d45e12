package govee

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
	r.GET("/sensors/current", h.currentHandler)
	r.GET("/devices", h.devicesHandler)
	r.GET("/diagnostics", h.diagnosticsHandler)

	return r
}

func (h *Handlers) healthHandler(c *gin.Context) {
	details := map[string]interface{}{"service": "govee", "version": "1.0.0"}

	if h.broker.Connected() {
		details["bus"] = "connected"
	} else {
		details["bus"] = "disconnected"
	}

	deviceStatus := h.client.CheckConnectivity(c.Request.Context())
	details["govee_device"] = deviceStatus
	details["cache_size"] = h.client.CacheSize()

	status := health.StatusHealthy
	if deviceStatus["status"] != "online" {
		status = health.StatusDegraded
	}

	report := health.NewReport(status, details)
	go health.PublishReport(h.broker, h.log, "govee", report)
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) currentHandler(c *gin.Context) {
	useCache := c.DefaultQuery("use_cache", "true") != "false"
	reading := h.client.DeviceState(c.Request.Context(), useCache)

	if reading.Status == "success" {
		go h.publishReading(reading)
	}

	c.JSON(http.StatusOK, reading)
}

func (h *Handlers) devicesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"device_id":    h.client.DeviceID(),
		"device_sku":   h.client.SKU(),
		"api_endpoint": h.client.Endpoint(),
		"status":       "configured",
	})
}

func (h *Handlers) diagnosticsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	tests := gin.H{}

	tests["device_connectivity"] = h.client.CheckConnectivity(ctx)

	reading := h.client.DeviceState(ctx, false)
	status := "failed"
	if reading.Status == "success" {
		status = "passed"
	}
	tests["data_retrieval"] = gin.H{
		"status":             status,
		"has_temperature":    reading.Temperature != nil,
		"has_humidity":       reading.Humidity != nil,
		"has_battery":        reading.BatteryLevel != nil,
		"device_id":          reading.DeviceID,
		"capabilities_count": reading.CapabilitiesCount,
	}

	c.JSON(http.StatusOK, gin.H{"timestamp": time.Now().UTC(), "tests": tests})
}

func (h *Handlers) publishReading(reading Reading) {
	msg := bus.Envelope{
		Service:   "govee",
		Type:      "current_reading",
		Data:      reading,
		Timestamp: time.Now().UTC(),
	}
	if err := h.broker.Publish(bus.TopicSensorData, msg); err != nil {
		h.log.Error("failed to publish sensor data", err)
	}
}
