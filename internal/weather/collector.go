package weather

import (
	"context"
	"time"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

// CollectInterval is how often a scheduled reading is taken and broadcast.
const CollectInterval = 15 * time.Minute

// Collector publishes a fresh weather reading to the weather-data topic on a
// fixed schedule so the storage service can persist it automatically.
type Collector struct {
	client *Client
	pub    health.Publisher
	log    *logger.Logger
}

func NewCollector(client *Client, pub health.Publisher, log *logger.Logger) *Collector {
	return &Collector{client: client, pub: pub, log: log}
}

// Run collects once per interval until ctx is cancelled. A failed collection
// is logged and the loop keeps going.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(CollectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	reading := c.client.Current(ctx, true)
	if reading.Status != "success" {
		c.log.Warn("scheduled weather collection failed: " + reading.Message)
		return
	}

	msg := bus.Envelope{
		Service:   "weather",
		Type:      "scheduled_reading",
		Data:      reading,
		Timestamp: time.Now().UTC(),
	}
	if err := c.pub.Publish(bus.TopicWeatherData, msg); err != nil {
		c.log.Error("failed to publish scheduled weather reading", err)
		return
	}
	c.log.Info("scheduled weather data collected and published")
}
