package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors holds the campaign-level metric vectors. The orchestrator feeds
// the per-call and per-test vectors; the runner feeds the health gauge.
type Collectors struct {
	// TestsTotal counts completed differential tests per operation.
	TestsTotal *prometheus.CounterVec

	// InconsistenciesTotal counts detected cross-backend divergences per
	// operation. One test can contribute several.
	InconsistenciesTotal *prometheus.CounterVec

	// AdapterCallsTotal counts backend calls per adapter, operation and
	// outcome status (ok, error).
	AdapterCallsTotal *prometheus.CounterVec

	// AdapterCallDuration observes real per-call latency per adapter and
	// operation, unlike the shared batch duration stored in test results.
	AdapterCallDuration *prometheus.HistogramVec

	// AdapterUp reflects the last health check outcome per adapter.
	AdapterUp *prometheus.GaugeVec
}

// NewCollectors creates and registers the campaign collectors on the given
// registerer. Pass a namespace to prefix every metric name; tests usually
// register on a throwaway registry.
func NewCollectors(reg prometheus.Registerer, namespace string) *Collectors {
	c := &Collectors{
		TestsTotal: createCounterVec(namespace, "tests_total",
			"Total number of completed differential tests.", []string{"operation"}),
		InconsistenciesTotal: createCounterVec(namespace, "inconsistencies_total",
			"Total number of detected cross-backend inconsistencies.", []string{"operation"}),
		AdapterCallsTotal: createCounterVec(namespace, "adapter_calls_total",
			"Total number of backend adapter calls.", []string{"adapter", "operation", "status"}),
		AdapterCallDuration: createHistogramVec(namespace, "adapter_call_duration_seconds",
			"Latency of individual backend adapter calls.", []string{"adapter", "operation"}, prometheus.DefBuckets),
		AdapterUp: createGaugeVec(namespace, "adapter_up",
			"Whether the adapter's backend answered the last health check (1) or not (0).", []string{"adapter"}),
	}

	reg.MustRegister(
		c.TestsTotal,
		c.InconsistenciesTotal,
		c.AdapterCallsTotal,
		c.AdapterCallDuration,
		c.AdapterUp,
	)
	return c
}
