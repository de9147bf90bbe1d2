package qdrant

import (
	"fmt"
	"strconv"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// externalID returns the i-th id, falling back to the index when the caller
// supplied fewer ids than vectors.
func externalID(ids []string, i int) string {
	if i < len(ids) {
		return ids[i]
	}
	return strconv.Itoa(i)
}

// pointIDString renders a Qdrant point id as a string.
func pointIDString(id *qdrant.PointId) (string, error) {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	default:
		return "", fmt.Errorf("qdrant: unexpected point id type %T", v)
	}
}

// distanceFor maps the shared metric vocabulary onto Qdrant's distance enum.
func distanceFor(metric vectordb.Metric) qdrant.Distance {
	switch metric {
	case vectordb.MetricCosine:
		return qdrant.Distance_Cosine
	case vectordb.MetricIP:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Euclid
	}
}

// normalizeMeta rewrites generated metadata into the types NewValueMap
// accepts, widening typed slices into []any.
func normalizeMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for key, value := range meta {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeMeta(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeValue(e)
		}
		return out
	case []int:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = int64(e)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out
	case int:
		return int64(v)
	default:
		return v
	}
}

// extractVectorDetails digs the vector size and distance out of Qdrant's
// nested collection info, guarding every level against nil.
func extractVectorDetails(info *qdrant.CollectionInfo) (int, string) {
	if info == nil ||
		info.Config == nil ||
		info.Config.Params == nil ||
		info.Config.Params.VectorsConfig == nil ||
		info.Config.Params.VectorsConfig.Config == nil {
		return 0, ""
	}

	if cfg, ok := info.Config.Params.VectorsConfig.Config.(*qdrant.VectorsConfig_Params); ok {
		return int(cfg.Params.Size), cfg.Params.Distance.String()
	}

	return 0, ""
}

// derefUint64 safely dereferences a *uint64 pointer, returning 0 for nil.
func derefUint64(v *uint64) uint64 {
	if v != nil {
		return *v
	}
	return 0
}
