package vectordb

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=mock_adapter.go -package=vectordb

// Payload is the raw, backend-shaped response of an adapter call. Adapters
// deliberately do not normalize their answers; the comparison layer feeds on
// the shape differences. Concrete values are maps, slices and scalars only,
// never SDK types.
type Payload = any

// Metric names a vector distance function. The values travel through fuzz
// inputs unchanged, so adapters must map them onto whatever their backend
// calls the same thing.
type Metric string

const (
	MetricL2     Metric = "L2"
	MetricCosine Metric = "cosine"
	MetricIP     Metric = "ip"
)

// Metrics lists every distance function an input generator may pick.
func Metrics() []Metric {
	return []Metric{MetricL2, MetricCosine, MetricIP}
}

// Adapter is the capability contract every vector database backend fulfils.
//
// Constructors must not dial: Connect owns establishing the session and the
// initial health probe, so a misconfigured backend surfaces as a contained
// connect error instead of a construction failure. All other methods may be
// called regardless of connect success; they return errors which the caller
// records rather than escalates.
//
// Implementations must be safe for concurrent use. The orchestrator invokes
// one adapter from one goroutine at a time, but several campaigns or health
// checks may overlap.
type Adapter interface {
	// Name returns the stable identifier used to key results, durations and
	// metrics, e.g. "qdrant".
	Name() string

	// Connect establishes the backend session and verifies liveness.
	Connect(ctx context.Context) error

	// Disconnect releases the session. Best effort; safe to call when the
	// adapter never connected.
	Disconnect(ctx context.Context) error

	// Health probes backend liveness over the established session. An
	// unconnected adapter reports unhealthy, not a panic.
	Health(ctx context.Context) error

	// SetupCollection creates the adapter's configured test collection with
	// the configured dimensionality. It is idempotent: an already existing
	// collection is not an error.
	SetupCollection(ctx context.Context) error

	// Cleanup drops the configured test collection. Best effort.
	Cleanup(ctx context.Context) error

	// Insert writes vectors with optional external ids and per-vector
	// metadata. len(ids) and len(metadata), when non-zero, match len(vectors).
	Insert(ctx context.Context, collection string, vectors [][]float32, ids []string, metadata []map[string]any) (Payload, error)

	// Search runs a nearest-neighbour query and returns up to limit hits.
	Search(ctx context.Context, collection string, queryVector []float32, limit int, metric Metric) (Payload, error)

	// Delete removes points by external id. Unknown ids are not an error.
	Delete(ctx context.Context, collection string, ids []string) (Payload, error)

	// DescribeCollection reports backend-shaped collection facts (vector
	// count, dimensionality) for diagnostics.
	DescribeCollection(ctx context.Context, collection string) (Payload, error)
}
