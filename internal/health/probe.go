package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultProbeTimeout is the per-probe budget for live health checks.
const DefaultProbeTimeout = 10 * time.Second

// healthBody is the contract every registered service's /health endpoint
// follows. Absent or unparseable fields get safe defaults.
type healthBody struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
}

// Prober performs one bounded-time request against a service's health
// endpoint and classifies the result. It never returns an error: every
// failure mode collapses into a ProbeOutcome.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

func (p *Prober) Probe(ctx context.Context, desc ServiceDescriptor) ProbeOutcome {
	url := fmt.Sprintf("http://%s/health", desc.Addr)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return p.offline(desc, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return p.timedOut(desc)
		}
		return p.offline(desc, err)
	}
	defer resp.Body.Close()

	latency := float64(time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ProbeOutcome{
			Service:   desc.Name,
			Status:    StatusError,
			Timestamp: time.Now().UTC(),
			LatencyMS: &latency,
			Details: map[string]interface{}{
				"error": fmt.Sprintf("HTTP %d", resp.StatusCode),
				"name":  desc.DisplayName,
			},
		}
	}

	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		body = healthBody{}
	}
	if body.Status == "" {
		body.Status = StatusUnknown
	}
	if body.Timestamp.IsZero() {
		body.Timestamp = time.Now().UTC()
	}
	if body.Details == nil {
		body.Details = map[string]interface{}{}
	}

	return ProbeOutcome{
		Service:   desc.Name,
		Status:    body.Status,
		Timestamp: body.Timestamp,
		LatencyMS: &latency,
		Details:   body.Details,
	}
}

// timedOut reports the timeout ceiling as the latency so a stuck service
// still contributes a measurable number to the latency statistics.
func (p *Prober) timedOut(desc ServiceDescriptor) ProbeOutcome {
	ceiling := float64(p.timeout.Milliseconds())
	return ProbeOutcome{
		Service:   desc.Name,
		Status:    StatusTimeout,
		Timestamp: time.Now().UTC(),
		LatencyMS: &ceiling,
		Details: map[string]interface{}{
			"error": "Request timeout",
			"name":  desc.DisplayName,
		},
	}
}

func (p *Prober) offline(desc ServiceDescriptor, err error) ProbeOutcome {
	return ProbeOutcome{
		Service:   desc.Name,
		Status:    StatusOffline,
		Timestamp: time.Now().UTC(),
		LatencyMS: nil,
		Details: map[string]interface{}{
			"error": err.Error(),
			"name":  desc.DisplayName,
		},
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
