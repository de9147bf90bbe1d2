package milvus

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// primaryKeys maps external string ids onto int64 primary keys, padding with
// positional ids when fewer ids than rows were supplied.
func primaryKeys(ids []string, rows int) []int64 {
	keys := make([]int64, rows)
	for i := 0; i < rows; i++ {
		id := strconv.Itoa(i)
		if i < len(ids) {
			id = ids[i]
		}
		keys[i] = int64(vectordb.NumericID(id))
	}
	return keys
}

// metadataJSON serializes one JSON document per row, substituting empty
// objects for missing entries.
func metadataJSON(metadata []map[string]any, rows int) ([][]byte, error) {
	docs := make([][]byte, rows)
	for i := 0; i < rows; i++ {
		if i >= len(metadata) || metadata[i] == nil {
			docs[i] = []byte("{}")
			continue
		}
		doc, err := json.Marshal(metadata[i])
		if err != nil {
			return nil, fmt.Errorf("milvus: marshal metadata row %d: %w", i, err)
		}
		docs[i] = doc
	}
	return docs, nil
}

func metricFor(metric vectordb.Metric) entity.MetricType {
	switch metric {
	case vectordb.MetricCosine:
		return entity.COSINE
	case vectordb.MetricIP:
		return entity.IP
	default:
		return entity.L2
	}
}

// dimensionOf reads the vector field dimension out of a collection schema,
// returning 0 when no vector field is present.
func dimensionOf(schema *entity.Schema) int {
	if schema == nil {
		return 0
	}
	for _, field := range schema.Fields {
		if field.DataType != entity.FieldTypeFloatVector {
			continue
		}
		if raw, ok := field.TypeParams[entity.TypeParamDim]; ok {
			if dim, err := strconv.Atoi(raw); err == nil {
				return dim
			}
		}
	}
	return 0
}
