package statesvc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func TestMetricsRecordLifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(registry), WithNamespace("test"))
	store := newTestStore(WithMetrics(metrics))

	f := NewFactory(counterDefinition(), WithStore(store))
	m := f.Mixin(MixinOptions{CacheKey: "k", Keys: []string{"count"}})

	a := mount(t, m, &recorder{})
	b := mount(t, m, &recorder{})

	if got := metricCounterValue(t, metrics.instancesCreated.WithLabelValues("counter")); got != 1 {
		t.Errorf("instances_created_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.cacheHits.WithLabelValues("counter")); got != 1 {
		t.Errorf("cache_hits_total = %v, want 1", got)
	}
	if got := metricGaugeValue(t, metrics.subscribers.WithLabelValues("counter")); got != 2 {
		t.Errorf("subscribers = %v, want 2", got)
	}
	if got := metricGaugeValue(t, metrics.cachedInstances); got != 1 {
		t.Errorf("cached_instances = %v, want 1", got)
	}

	if err := a.Service().SetState(State{"count": 1, "other": true}); err != nil {
		t.Fatal(err)
	}
	if got := metricCounterValue(t, metrics.notifications.WithLabelValues("counter")); got != 2 {
		t.Errorf("notifications_total = %v, want 2", got)
	}

	if err := a.WillUnmount(); err != nil {
		t.Fatal(err)
	}
	if err := b.WillUnmount(); err != nil {
		t.Fatal(err)
	}
	if got := metricCounterValue(t, metrics.evictions.WithLabelValues("counter", "unmount")); got != 1 {
		t.Errorf("evictions_total{unmount} = %v, want 1", got)
	}
	if got := metricGaugeValue(t, metrics.subscribers.WithLabelValues("counter")); got != 0 {
		t.Errorf("subscribers = %v, want 0", got)
	}
	if got := metricGaugeValue(t, metrics.cachedInstances); got != 0 {
		t.Errorf("cached_instances = %v, want 0", got)
	}
}

func TestMetricsRecordClearAndHookFailures(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(WithRegistry(registry))
	store := newTestStore(WithMetrics(metrics), WithEvictionPolicy(EvictOnReset))

	def := counterDefinition()
	def.OnFirstMount = func(*Instance) error { panic("nope") }
	f := NewFactory(def, WithStore(store))

	b, err := f.Mixin(MixinOptions{CacheKey: "k"}).Attach(&recorder{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.WillMount(); err == nil {
		t.Fatal("expected hook failure")
	}
	if got := metricCounterValue(t, metrics.hookFailures.WithLabelValues("counter", "OnFirstMount")); got != 1 {
		t.Errorf("hook_failures_total = %v, want 1", got)
	}

	store.Clear()
	if got := metricCounterValue(t, metrics.storeClears); got != 1 {
		t.Errorf("store_clears_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, metrics.evictions.WithLabelValues("all", "reset")); got != 1 {
		t.Errorf("evictions_total{reset} = %v, want 1", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.instanceCreated("x")
	m.cacheHit("x")
	m.evicted("x", "unmount")
	m.notified("x", 3)
	m.subscribed("x")
	m.unsubscribed("x")
	m.hookFailed("x", "y")
	m.setCached(1)
	m.storeCleared(1)
}
