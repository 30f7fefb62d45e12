package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/health"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/store"
)

// Service is the dashboard: it owns the health aggregator and fronts the
// stored sensor data for the visualization pages.
type Service struct {
	agg          *health.Aggregator
	broker       *bus.Broker
	log          *logger.Logger
	databaseAddr string
	http         *http.Client
}

func NewService(agg *health.Aggregator, broker *bus.Broker, databaseAddr string, log *logger.Logger) *Service {
	return &Service{
		agg:          agg,
		broker:       broker,
		log:          log,
		databaseAddr: databaseAddr,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// SensorSeries is one sensor's slice of the /data response.
type SensorSeries struct {
	Data   []store.SensorReading `json:"data"`
	Latest *store.SensorReading  `json:"latest"`
}

// SensorData fetches recent readings from the database service and groups
// them per sensor, tracking each sensor's latest reading.
func (s *Service) SensorData(ctx context.Context, minutes int) (map[string]*SensorSeries, int, error) {
	url := fmt.Sprintf("http://%s/readings/recent?minutes=%d", s.databaseAddr, minutes)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sensor data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("database service returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Readings []store.SensorReading `json:"readings"`
		Count    int                   `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("failed to decode readings: %w", err)
	}

	sensors := make(map[string]*SensorSeries)
	for i := range body.Readings {
		reading := body.Readings[i]
		series, ok := sensors[reading.SensorID]
		if !ok {
			series = &SensorSeries{}
			sensors[reading.SensorID] = series
		}
		series.Data = append(series.Data, reading)
		if series.Latest == nil || reading.Timestamp.After(series.Latest.Timestamp) {
			latest := reading
			series.Latest = &latest
		}
	}
	return sensors, body.Count, nil
}

// SelfHealth is the dashboard's own health: degraded when the bus is down,
// since the aggregate can still be served without it.
func (s *Service) SelfHealth() health.Report {
	details := map[string]interface{}{"service": "dashboard", "version": "1.0.1"}
	status := health.StatusHealthy
	if s.broker != nil && s.broker.Connected() {
		details["bus"] = "connected"
	} else {
		details["bus"] = "disconnected"
		status = health.StatusDegraded
	}
	return health.NewReport(status, details)
}
