package difftest

import (
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// Operation names one fuzzed operation. The string values are wire-stable:
// they key comparator dispatch, appear in reports and label metrics.
type Operation string

const (
	OpInsert      Operation = "insert"
	OpSearch      Operation = "search"
	OpDelete      Operation = "delete"
	OpBatchInsert Operation = "batch_insert"
	OpBatchSearch Operation = "batch_search"
	OpMixed       Operation = "mixed_operations"
)

// Operations lists every operation the generator may draw, in a fixed order.
func Operations() []Operation {
	return []Operation{OpInsert, OpSearch, OpDelete, OpBatchInsert, OpBatchSearch, OpMixed}
}

// SubOperation is one step inside a mixed_operations test.
type SubOperation struct {
	Type        string      `json:"type"`
	Vectors     [][]float32 `json:"vectors,omitempty"`
	ID          string      `json:"id,omitempty"`
	QueryVector []float32   `json:"query_vector,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	IDs         []string    `json:"ids,omitempty"`
}

// TestInput carries the generated parameters of a single test. Only the
// fields relevant to the test's operation are populated; the JSON form is
// what lands in result files.
type TestInput struct {
	CollectionName string           `json:"collection_name,omitempty"`
	Vectors        [][]float32      `json:"vectors,omitempty"`
	IDs            []string         `json:"ids,omitempty"`
	Metadata       []map[string]any `json:"metadata,omitempty"`
	QueryVector    []float32        `json:"query_vector,omitempty"`
	QueryVectors   [][]float32      `json:"query_vectors,omitempty"`
	Limit          int              `json:"limit,omitempty"`
	MetricType     vectordb.Metric  `json:"metric_type,omitempty"`
	Operations     []SubOperation   `json:"operations,omitempty"`
}

// DatabaseResult is the outcome of one adapter executing one test: either a
// raw payload or an error string, never both, plus the observed call latency.
type DatabaseResult struct {
	Adapter string
	Success bool
	Data    vectordb.Payload
	Error   string
	Elapsed time.Duration
}

// TestResult aggregates one test across all adapters. Results and Durations
// hold exactly one entry per configured adapter, even when everything failed;
// a failed adapter contributes a nil payload.
//
// Durations carries the shared batch duration (first adapter in, last adapter
// out) under every key. Per-adapter latency lives in DatabaseResult.Elapsed
// and in the Prometheus histogram, not here.
type TestResult struct {
	TestID          string                      `json:"test_id"`
	Operation       Operation                   `json:"operation"`
	Input           TestInput                   `json:"inputs"`
	Results         map[string]vectordb.Payload `json:"results"`
	Inconsistencies []string                    `json:"inconsistencies"`
	Durations       map[string]time.Duration    `json:"execution_time"`
}

// Consistent reports whether the test produced no inconsistencies.
func (r *TestResult) Consistent() bool {
	return len(r.Inconsistencies) == 0
}

// DurationsSeconds renders Durations as float seconds, the unit result files
// and stored records use.
func (r *TestResult) DurationsSeconds() map[string]float64 {
	out := make(map[string]float64, len(r.Durations))
	for adapter, d := range r.Durations {
		out[adapter] = d.Seconds()
	}
	return out
}
