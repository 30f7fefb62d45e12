package health

import (
	"time"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
)

// Report is what a service's own /health endpoint returns.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
}

func NewReport(status Status, details map[string]interface{}) Report {
	if details == nil {
		details = map[string]interface{}{}
	}
	return Report{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
}

// PublishReport pushes one service's own health onto the bus. Services call
// it from their health handlers, fire-and-forget.
func PublishReport(pub Publisher, log *logger.Logger, service string, report Report) {
	if pub == nil {
		return
	}
	msg := bus.Envelope{
		Service:   service,
		Status:    string(report.Status),
		Details:   report.Details,
		Timestamp: report.Timestamp,
	}
	if err := pub.Publish(bus.TopicHealthUpdates, msg); err != nil {
		log.Error("failed to publish health status", err)
	}
}
