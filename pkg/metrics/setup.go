package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus registry, the HTTP server exposing it and
// the campaign collectors. Each process owns an isolated registry so metric
// names never collide with a host application.
type Metrics struct {
	Server     *http.Server
	Registry   *prometheus.Registry
	Collectors *Collectors

	serviceName string
}

// NewMetrics builds the metrics stack: a dedicated registry, every metric
// wrapped with a constant service label, the campaign collectors, and an HTTP
// server serving /metrics on cfg.Address. The server is created but not
// started; RegisterMetricsLifecycle owns start and shutdown.
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: handler,
	}

	return &Metrics{
		Server:      server,
		Registry:    registry,
		Collectors:  NewCollectors(wrappedRegistry, cfg.Namespace),
		serviceName: cfg.ServiceName,
	}
}
