package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orangeqtym/hubitat-terraform/internal/api/middleware"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
)

func NewRouter(s *Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", s.healthHandler)
	r.GET("/system", s.systemHandler)
	r.GET("/system/summary", s.summaryHandler)
	r.GET("/services/:name", s.serviceDetailHandler)
	r.GET("/data", s.dataHandler)
	r.GET("/", s.indexHandler)
	r.GET("/charts", s.chartsHandler)

	return r
}

func (s *Service) healthHandler(c *gin.Context) {
	report := s.SelfHealth()
	go health.PublishReport(s.broker, s.log, "dashboard", report)
	c.JSON(http.StatusOK, report)
}

func (s *Service) systemHandler(c *gin.Context) {
	useCache := c.DefaultQuery("use_cache", "true") != "false"
	c.JSON(http.StatusOK, s.agg.Get(c.Request.Context(), useCache))
}

func (s *Service) summaryHandler(c *gin.Context) {
	agg := s.agg.Get(c.Request.Context(), false)
	c.JSON(http.StatusOK, gin.H{
		"overall_status": agg.OverallStatus,
		"summary":        agg.Summary,
		"timestamp":      agg.Timestamp,
	})
}

func (s *Service) serviceDetailHandler(c *gin.Context) {
	name := c.Param("name")
	desc, ok := s.agg.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Service '" + name + "' not found"})
		return
	}
	c.JSON(http.StatusOK, s.agg.ProbeOne(c.Request.Context(), desc))
}

func (s *Service) dataHandler(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "60"))
	if err != nil || minutes <= 0 {
		minutes = 60
	}

	sensors, total, err := s.SensorData(c.Request.Context(), minutes)
	if err != nil {
		s.log.Error("error fetching sensor data", err)
		c.JSON(http.StatusOK, gin.H{
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sensors":             sensors,
		"total_readings":      total,
		"time_window_minutes": minutes,
		"timestamp":           time.Now().UTC(),
	})
}

func (s *Service) indexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

func (s *Service) chartsHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(chartsHTML))
}
