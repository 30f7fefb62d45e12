package health

import "time"

// ServiceDescriptor identifies one probed dependency. Descriptors are
// registered once at startup and read-only afterwards.
type ServiceDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Addr        string `json:"addr"`
}

// ProbeOutcome is the immutable record of a single health probe. LatencyMS is
// nil when the probe never got a reply worth measuring.
type ProbeOutcome struct {
	Service   string                 `json:"service"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	LatencyMS *float64               `json:"response_time_ms"`
	Details   map[string]interface{} `json:"details"`
}

// Summary carries the aggregate statistics alongside the per-service outcomes.
type Summary struct {
	TotalServices   int      `json:"total_services"`
	HealthyServices int      `json:"healthy_services"`
	OfflineServices int      `json:"offline_services"`
	AvgLatencyMS    *float64 `json:"avg_response_time_ms"`
	UptimePercent   float64  `json:"uptime_percentage"`
}

// AggregateHealth is one full probe cycle's result: exactly one outcome per
// registered service, in registration order.
type AggregateHealth struct {
	OverallStatus Status         `json:"overall_status"`
	Timestamp     time.Time      `json:"timestamp"`
	Services      []ProbeOutcome `json:"services"`
	Summary       Summary        `json:"summary"`
}

// summarize computes the roll-up figures for one cycle's outcomes.
func summarize(outcomes []ProbeOutcome) Summary {
	total := len(outcomes)
	healthy, offline := 0, 0
	var latencySum float64
	var latencyCount int

	for _, o := range outcomes {
		if upStatuses[o.Status] {
			healthy++
		}
		if downStatuses[o.Status] {
			offline++
		}
		if o.LatencyMS != nil {
			latencySum += *o.LatencyMS
			latencyCount++
		}
	}

	s := Summary{
		TotalServices:   total,
		HealthyServices: healthy,
		OfflineServices: offline,
	}
	if latencyCount > 0 {
		avg := latencySum / float64(latencyCount)
		s.AvgLatencyMS = &avg
	}
	if total > 0 {
		s.UptimePercent = float64(healthy) / float64(total) * 100
	}
	return s
}
