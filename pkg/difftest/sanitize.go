package difftest

import (
	"math"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// SanitizeJSON rewrites a payload tree so encoding/json can marshal it.
// NaN and infinite floats are legal inputs here (edge-case vectors carry
// them on purpose) but json.Marshal rejects them, so they become their
// string spelling ("NaN", "+Inf", "-Inf"). Maps and slices are rebuilt,
// never mutated in place; everything else passes through untouched.
func SanitizeJSON(value any) any {
	switch v := value.(type) {
	case float64:
		return sanitizeFloat(v)
	case float32:
		return sanitizeFloat(float64(v))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = SanitizeJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = SanitizeJSON(item)
		}
		return out
	case []float32:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = sanitizeFloat(float64(f))
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = sanitizeFloat(f)
		}
		return out
	case [][]float32:
		out := make([]any, len(v))
		for i, vec := range v {
			out[i] = SanitizeJSON(vec)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = SanitizeJSON(m)
		}
		return out
	default:
		return value
	}
}

func sanitizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	default:
		return f
	}
}

// SanitizeInput renders a test input as a JSON-safe map. Only populated
// fields appear, mirroring the omitempty tags on TestInput.
func SanitizeInput(input TestInput) map[string]any {
	out := map[string]any{}
	if input.CollectionName != "" {
		out["collection_name"] = input.CollectionName
	}
	if input.Vectors != nil {
		out["vectors"] = SanitizeJSON(input.Vectors)
	}
	if input.IDs != nil {
		out["ids"] = input.IDs
	}
	if input.Metadata != nil {
		out["metadata"] = SanitizeJSON(input.Metadata)
	}
	if input.QueryVector != nil {
		out["query_vector"] = SanitizeJSON(input.QueryVector)
	}
	if input.QueryVectors != nil {
		out["query_vectors"] = SanitizeJSON(input.QueryVectors)
	}
	if input.Limit != 0 {
		out["limit"] = input.Limit
	}
	if input.MetricType != "" {
		out["metric_type"] = string(input.MetricType)
	}
	if input.Operations != nil {
		ops := make([]any, len(input.Operations))
		for i, sub := range input.Operations {
			ops[i] = sanitizeSubOperation(sub)
		}
		out["operations"] = ops
	}
	return out
}

func sanitizeSubOperation(sub SubOperation) map[string]any {
	out := map[string]any{"type": sub.Type}
	if sub.Vectors != nil {
		out["vectors"] = SanitizeJSON(sub.Vectors)
	}
	if sub.ID != "" {
		out["id"] = sub.ID
	}
	if sub.QueryVector != nil {
		out["query_vector"] = SanitizeJSON(sub.QueryVector)
	}
	if sub.Limit != 0 {
		out["limit"] = sub.Limit
	}
	if sub.IDs != nil {
		out["ids"] = sub.IDs
	}
	return out
}

// SanitizeResults renders the per-adapter payload map JSON-safe. Failed
// adapters contribute a nil payload; those become an error marker so the
// stored record still names every adapter that ran.
func SanitizeResults(results map[string]vectordb.Payload) map[string]any {
	out := make(map[string]any, len(results))
	for adapter, payload := range results {
		if payload == nil {
			out[adapter] = map[string]any{"error": "operation failed"}
			continue
		}
		out[adapter] = SanitizeJSON(payload)
	}
	return out
}
