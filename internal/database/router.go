package database

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orangeqtym/hubitat-terraform/internal/api/middleware"
	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/store"
)

// Handlers is the storage service's HTTP surface over the sensor store.
type Handlers struct {
	store  *store.Store
	broker *bus.Broker
	log    *logger.Logger
}

func NewRouter(st *store.Store, broker *bus.Broker, log *logger.Logger) *gin.Engine {
	h := &Handlers{store: st, broker: broker, log: log}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", h.healthHandler)
	r.POST("/readings", h.storeReadingHandler)
	r.GET("/readings/recent", h.recentReadingsHandler)
	r.POST("/readings/query", h.queryReadingsHandler)
	r.GET("/stats", h.statsHandler)

	return r
}

func (h *Handlers) healthHandler(c *gin.Context) {
	details := map[string]interface{}{"service": "database", "version": "1.0.0"}

	if h.broker.Connected() {
		details["bus"] = "connected"
	} else {
		details["bus"] = "disconnected"
	}

	status := health.StatusHealthy
	stats, err := h.store.Stats()
	if err != nil {
		details["database"] = map[string]interface{}{"error": err.Error()}
		status = health.StatusDegraded
	} else {
		details["database"] = stats
	}

	report := health.NewReport(status, details)
	go health.PublishReport(h.broker, h.log, "database", report)
	c.JSON(http.StatusOK, report)
}

// readingRequest is the POST /readings body. Validation happens in
// store.NewSensorReading, so an out-of-range value is rejected before any
// write is attempted.
type readingRequest struct {
	SensorID     string    `json:"sensor_id" binding:"required"`
	Temperature  *float64  `json:"temperature"`
	Humidity     *float64  `json:"humidity"`
	BatteryLevel *int      `json:"battery_level"`
	Timestamp    time.Time `json:"timestamp"`
}

func (h *Handlers) storeReadingHandler(c *gin.Context) {
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	reading, err := store.NewSensorReading(req.SensorID, req.Temperature, req.Humidity, req.BatteryLevel, req.Timestamp)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "message": err.Error()})
		return
	}

	result, err := h.store.UpsertReading(reading)
	if err != nil {
		h.log.Error("failed to store reading", err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	go h.publishStorageEvent(result, reading)

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "Reading stored successfully",
		"sensor_id": result.SensorID,
		"timestamp": result.Timestamp,
	})
}

func (h *Handlers) recentReadingsHandler(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "60"))
	if err != nil || minutes <= 0 {
		minutes = 60
	}
	sensorID := c.Query("sensor_id")

	readings, err := h.store.RecentReadings(minutes, sensorID)
	if err != nil {
		h.log.Error("failed to retrieve recent readings", err)
		readings = nil
	}
	if readings == nil {
		readings = []store.SensorReading{}
	}

	c.JSON(http.StatusOK, gin.H{
		"readings":            readings,
		"count":               len(readings),
		"time_window_minutes": minutes,
		"sensor_filter":       sensorID,
	})
}

type queryRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	SensorIDs []string  `json:"sensor_ids"`
}

func (h *Handlers) queryReadingsHandler(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	data, err := h.store.ReadingsForPeriod(req.StartTime, req.EndTime, req.SensorIDs)
	if err != nil {
		h.log.Error("failed to query readings", err)
		data = map[string][]store.SensorReading{}
	}

	total := 0
	for _, readings := range data {
		total += len(readings)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":           data,
		"total_readings": total,
		"sensor_count":   len(data),
		"time_range": gin.H{
			"start": req.StartTime.UTC().Format(time.RFC3339),
			"end":   req.EndTime.UTC().Format(time.RFC3339),
		},
	})
}

func (h *Handlers) statsHandler(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) publishStorageEvent(result store.UpsertResult, reading store.SensorReading) {
	msg := bus.Envelope{
		Service:   "database",
		Type:      "reading_stored",
		Data:      gin.H{"result": result, "reading": reading},
		Timestamp: time.Now().UTC(),
	}
	if err := h.broker.Publish(bus.TopicDatabaseEvents, msg); err != nil {
		h.log.Error("failed to publish storage event", err)
	}
}
