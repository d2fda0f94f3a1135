package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.PaymentsRecorded == nil || m.HTTPRequests == nil || m.PlansCompleted == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.PaymentsRecorded.Inc()
	m.PlansCompleted.WithLabelValues("sale").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.PaymentsRecorded); got != 1 {
		t.Fatalf("expected 1 payment recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.PlansCompleted.WithLabelValues("sale")); got != 1 {
		t.Fatalf("expected 1 completed sale plan, got %v", got)
	}
}

func TestNewWithRegistryIsolated(t *testing.T) {
	// Two independent registries must not collide.
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
