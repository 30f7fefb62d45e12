package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orangeqtym/hubitat-terraform/internal/bus"
	"github.com/orangeqtym/hubitat-terraform/internal/logger"
	"github.com/orangeqtym/hubitat-terraform/internal/metrics"
)

const (
	// CacheTTL is how long one aggregate stays servable without re-probing.
	CacheTTL = 30 * time.Second
	// RefreshInterval is the cadence of the background refresh loop.
	RefreshInterval = 60 * time.Second
)

// Publisher is the slice of the broadcast bus the aggregator needs.
type Publisher interface {
	Publish(topic string, msg interface{}) error
}

// Aggregator probes every registered service concurrently, reduces the
// outcomes into one system-wide status, and keeps the latest aggregate in a
// single-slot TTL cache. It owns that slot exclusively: Refresh is the only
// writer and cycles never interleave.
type Aggregator struct {
	services []ServiceDescriptor
	prober   *Prober
	pub      Publisher
	log      *logger.Logger

	ttl      time.Duration
	interval time.Duration

	// refreshMu serializes probe cycles; cacheMu guards the slot itself so
	// readers never observe a half-written entry.
	refreshMu sync.Mutex
	cacheMu   sync.RWMutex
	cached    *AggregateHealth
	cachedAt  time.Time
}

func NewAggregator(services []ServiceDescriptor, prober *Prober, pub Publisher, log *logger.Logger) *Aggregator {
	return &Aggregator{
		services: services,
		prober:   prober,
		pub:      pub,
		log:      log,
		ttl:      CacheTTL,
		interval: RefreshInterval,
	}
}

// Services returns the registered descriptors in registration order.
func (a *Aggregator) Services() []ServiceDescriptor {
	return a.services
}

// Lookup finds a registered descriptor by name.
func (a *Aggregator) Lookup(name string) (ServiceDescriptor, bool) {
	for _, desc := range a.services {
		if desc.Name == name {
			return desc, true
		}
	}
	return ServiceDescriptor{}, false
}

// ProbeOne runs a single fresh probe, bypassing the cache. The HTTP handlers
// and the full cycle share this prober so the classification rules live in
// exactly one place.
func (a *Aggregator) ProbeOne(ctx context.Context, desc ServiceDescriptor) ProbeOutcome {
	return a.prober.Probe(ctx, desc)
}

// Refresh probes every registered service concurrently and atomically
// replaces the cache slot with the completed cycle. All probes launch
// together and the cycle is not visible until every one has resolved, so a
// partial aggregate can never be cached or published.
func (a *Aggregator) Refresh(ctx context.Context) AggregateHealth {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	outcomes := make([]ProbeOutcome, len(a.services))
	var wg sync.WaitGroup
	for i, desc := range a.services {
		wg.Add(1)
		go func(i int, desc ServiceDescriptor) {
			defer wg.Done()
			outcomes[i] = a.prober.Probe(ctx, desc)
		}(i, desc)
	}
	wg.Wait()

	for _, o := range outcomes {
		if metrics.ProbesTotal != nil {
			metrics.ProbesTotal.WithLabelValues(o.Service, string(o.Status)).Inc()
		}
		if metrics.ProbeDuration != nil && o.LatencyMS != nil {
			metrics.ProbeDuration.WithLabelValues(o.Service).Observe(*o.LatencyMS / 1000)
		}
	}

	agg := AggregateHealth{
		OverallStatus: Reduce(outcomes),
		Timestamp:     time.Now().UTC(),
		Services:      outcomes,
		Summary:       summarize(outcomes),
	}

	a.cacheMu.Lock()
	a.cached = &agg
	a.cachedAt = agg.Timestamp
	a.cacheMu.Unlock()

	a.publish(agg)
	return agg
}

// Get returns the cached aggregate when useCache is set and the slot is
// younger than the TTL; otherwise it runs a full refresh.
func (a *Aggregator) Get(ctx context.Context, useCache bool) AggregateHealth {
	if useCache {
		a.cacheMu.RLock()
		cached, at := a.cached, a.cachedAt
		a.cacheMu.RUnlock()
		if cached != nil && time.Since(at) < a.ttl {
			return *cached
		}
	}
	return a.Refresh(ctx)
}

// Run refreshes unconditionally once per interval until ctx is cancelled.
// A failed iteration is logged, never fatal.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			agg := a.Refresh(ctx)
			a.log.Info("published system health",
				zap.String("overall_status", string(agg.OverallStatus)),
				zap.Int("healthy_services", agg.Summary.HealthyServices),
				zap.Int("total_services", agg.Summary.TotalServices))
		}
	}
}

// publish pushes the aggregate onto the bus, fire-and-forget. A publish
// failure never propagates to the caller of Refresh or Get.
func (a *Aggregator) publish(agg AggregateHealth) {
	if a.pub == nil {
		return
	}
	msg := bus.Envelope{
		Service:   "dashboard",
		Type:      "system_health",
		Status:    string(agg.OverallStatus),
		Data:      agg,
		Timestamp: agg.Timestamp,
	}
	if err := a.pub.Publish(bus.TopicHealthUpdates, msg); err != nil {
		if metrics.BusPublishErrors != nil {
			metrics.BusPublishErrors.Inc()
		}
		a.log.Error("failed to publish health update", err)
	}
}
