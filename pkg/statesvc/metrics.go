package statesvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics of a store.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statesvc").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures store metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "statesvc",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors of a store. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	instancesCreated *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	evictions        *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	subscribers      *prometheus.GaugeVec
	hookFailures     *prometheus.CounterVec
	cachedInstances  prometheus.Gauge
	storeClears      prometheus.Counter
}

// NewMetrics creates and registers the store metrics:
//   - statesvc_instances_created_total: instances built, by service
//   - statesvc_cache_hits_total: Create calls served from the store, by service
//   - statesvc_evictions_total: cached instances removed, by service and reason
//   - statesvc_notifications_total: subscriber SetState calls, by service
//   - statesvc_subscribers: registered components, by service
//   - statesvc_hook_failures_total: failed definition hooks, by service and hook
//   - statesvc_cached_instances: entries currently in the store
//   - statesvc_store_clears_total: Clear calls
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		instancesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances_created_total",
			Help:        "Total number of service instances constructed",
			ConstLabels: config.ConstLabels,
		}, []string{"service"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_hits_total",
			Help:        "Total number of Create calls served by a cached instance",
			ConstLabels: config.ConstLabels,
		}, []string{"service"}),

		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evictions_total",
			Help:        "Total number of cached instances evicted",
			ConstLabels: config.ConstLabels,
		}, []string{"service", "reason"}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of filtered state updates pushed to subscribers",
			ConstLabels: config.ConstLabels,
		}, []string{"service"}),

		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of components registered against service instances",
			ConstLabels: config.ConstLabels,
		}, []string{"service"}),

		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_failures_total",
			Help:        "Total number of definition hooks that failed",
			ConstLabels: config.ConstLabels,
		}, []string{"service", "hook"}),

		cachedInstances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cached_instances",
			Help:        "Number of instances currently held by the store",
			ConstLabels: config.ConstLabels,
		}),

		storeClears: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_clears_total",
			Help:        "Total number of store resets",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) instanceCreated(service string) {
	if m != nil {
		m.instancesCreated.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) cacheHit(service string) {
	if m != nil {
		m.cacheHits.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) evicted(service, reason string) {
	if m != nil {
		m.evictions.WithLabelValues(service, reason).Inc()
	}
}

func (m *Metrics) notified(service string, n int) {
	if m != nil && n > 0 {
		m.notifications.WithLabelValues(service).Add(float64(n))
	}
}

func (m *Metrics) subscribed(service string) {
	if m != nil {
		m.subscribers.WithLabelValues(service).Inc()
	}
}

func (m *Metrics) unsubscribed(service string) {
	if m != nil {
		m.subscribers.WithLabelValues(service).Dec()
	}
}

func (m *Metrics) hookFailed(service, hook string) {
	if m != nil {
		m.hookFailures.WithLabelValues(service, hook).Inc()
	}
}

func (m *Metrics) setCached(n int) {
	if m != nil {
		m.cachedInstances.Set(float64(n))
	}
}

func (m *Metrics) storeCleared(dropped int) {
	if m != nil {
		m.storeClears.Inc()
		m.cachedInstances.Set(0)
		if dropped > 0 {
			m.evictions.WithLabelValues("all", "reset").Add(float64(dropped))
		}
	}
}
