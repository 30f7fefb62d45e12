package health

// Status classifies one service's health as reported by its own /health
// endpoint or as synthesized by a probe that never got a usable reply.
type Status string

const (
	StatusHealthy    Status = "healthy"
	StatusDegraded   Status = "degraded"
	StatusUnhealthy  Status = "unhealthy"
	StatusResponding Status = "responding"
	StatusOffline    Status = "offline"
	StatusTimeout    Status = "timeout"
	StatusError      Status = "error"
	StatusUnknown    Status = "unknown"
)

// statusPriority orders statuses worst-first: the reducer keeps the lowest
// number it sees. Anything unrecognized ranks below everything, at 0.
var statusPriority = map[Status]int{
	StatusHealthy:   4,
	StatusDegraded:  3,
	StatusUnhealthy: 2,
	StatusOffline:   1,
	StatusTimeout:   1,
	StatusError:     1,
}

// upStatuses are counted toward the healthy-service summary figure.
var upStatuses = map[Status]bool{
	StatusHealthy:    true,
	StatusDegraded:   true,
	StatusResponding: true,
}

// downStatuses are counted toward the offline-service summary figure.
var downStatuses = map[Status]bool{
	StatusOffline: true,
	StatusTimeout: true,
	StatusError:   true,
}

func priority(s Status) int {
	return statusPriority[s]
}

// Reduce collapses the per-service outcomes into one system-wide status,
// keeping the worst status present. Ties go to the first one seen. The seed
// priority of 5 is an unreachable ceiling, so the first outcome always
// replaces it; with zero outcomes the result is "healthy" by construction.
func Reduce(outcomes []ProbeOutcome) Status {
	overall := StatusHealthy
	overallPriority := 5
	for _, outcome := range outcomes {
		if p := priority(outcome.Status); p < overallPriority {
			overall = outcome.Status
			overallPriority = p
		}
	}
	return overall
}
