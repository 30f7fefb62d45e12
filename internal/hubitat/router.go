package hubitat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orangeqtym/hubitat-terraform/internal/api/middleware"
	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

// Handlers wires the hub client and bus into the service's HTTP surface.
type Handlers struct {
	client    *Client
	collector *Collector
	broker    *bus.Broker
	log       *logger.Logger
}

func NewRouter(client *Client, collector *Collector, broker *bus.Broker, log *logger.Logger) *gin.Engine {
	h := &Handlers{client: client, collector: collector, broker: broker, log: log}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", h.healthHandler)
	r.GET("/devices", h.devicesHandler)
	r.GET("/devices/:id", h.deviceHandler)
	r.POST("/devices/:id/command", h.commandHandler)
	r.POST("/sensors/publish", h.publishSensorsHandler)
	r.GET("/diagnostics", h.diagnosticsHandler)

	return r
}

func (h *Handlers) healthHandler(c *gin.Context) {
	details := map[string]interface{}{"service": "hubitat", "version": "1.0.0"}

	if h.broker.Connected() {
		details["bus"] = "connected"
	} else {
		details["bus"] = "disconnected"
	}

	hubStatus := h.client.CheckConnectivity(c.Request.Context())
	details["hubitat_hub"] = hubStatus

	status := health.StatusHealthy
	if hubStatus["status"] != "online" {
		status = health.StatusDegraded
	}
	if devices, err := h.client.AllDevices(c.Request.Context()); err == nil {
		details["device_count"] = len(devices)
	}

	report := health.NewReport(status, details)
	go health.PublishReport(h.broker, h.log, "hubitat", report)
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) devicesHandler(c *gin.Context) {
	devices, err := h.client.AllDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *Handlers) deviceHandler(c *gin.Context) {
	device, err := h.client.Device(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, device)
}

// DeviceCommand is the request body for a device command.
type DeviceCommand struct {
	Command    string                 `json:"command" binding:"required"`
	Parameters map[string]interface{} `json:"parameters"`
}

func (h *Handlers) commandHandler(c *gin.Context) {
	deviceID := c.Param("id")

	var cmd DeviceCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.client.SendCommand(c.Request.Context(), deviceID, cmd.Command, cmd.Parameters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	go h.publishCommand(deviceID, cmd.Command, result)

	c.JSON(http.StatusOK, gin.H{
		"device_id":  deviceID,
		"command":    cmd.Command,
		"parameters": cmd.Parameters,
		"result":     result,
		"timestamp":  time.Now().UTC(),
	})
}

func (h *Handlers) publishSensorsHandler(c *gin.Context) {
	devices, err := h.client.AllDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to publish sensors: " + err.Error()})
		return
	}

	go h.collector.PublishReadings(devices)

	sensorCount := 0
	for _, device := range devices {
		if isSensor(device) {
			sensorCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"message":        "Sensor data publishing triggered",
		"total_devices":  len(devices),
		"sensor_devices": sensorCount,
		"timestamp":      time.Now().UTC(),
	})
}

func (h *Handlers) diagnosticsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	tests := gin.H{}

	tests["hub_connectivity"] = h.client.CheckConnectivity(ctx)

	devices, err := h.client.AllDevices(ctx)
	if err != nil {
		tests["device_enumeration"] = gin.H{"status": "failed", "error": err.Error()}
	} else {
		tests["device_enumeration"] = gin.H{"status": "passed", "device_count": len(devices)}

		if len(devices) > 0 {
			if _, err := h.client.Device(ctx, devices[0].ID); err != nil {
				tests["sample_device_query"] = gin.H{"status": "failed", "error": err.Error()}
			} else {
				tests["sample_device_query"] = gin.H{
					"status":      "passed",
					"device_id":   devices[0].ID,
					"device_name": devices[0].Name,
				}
			}
		} else {
			tests["sample_device_query"] = gin.H{"status": "skipped", "reason": "no_devices_found"}
		}
	}

	c.JSON(http.StatusOK, gin.H{"timestamp": time.Now().UTC(), "tests": tests})
}

func (h *Handlers) publishCommand(deviceID, command string, result map[string]interface{}) {
	msg := bus.Envelope{
		Service: "hubitat",
		Type:    "device_command",
		Data: map[string]interface{}{
			"device_id": deviceID,
			"command":   command,
			"result":    result,
		},
		Timestamp: time.Now().UTC(),
	}
	if err := h.broker.Publish(bus.TopicDeviceCommands, msg); err != nil {
		h.log.Error("failed to publish device command", err)
	}
}
