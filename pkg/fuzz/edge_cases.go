package fuzz

import (
	"fmt"
	"math"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// EdgeCases lists the named deterministic scenarios, in a fixed order.
// Each targets a boundary that uniform fuzzing reaches only rarely.
var EdgeCases = []string{
	"empty_vector",
	"very_large_vector",
	"nan_values",
	"inf_values",
	"very_large_batch",
	"empty_metadata",
	"malformed_id",
	"nonexistent_collection",
}

// GenerateEdgeCaseTest draws one of the named edge-case scenarios uniformly.
func (g *Generator) GenerateEdgeCaseTest() (difftest.Operation, difftest.TestInput) {
	op, input, _ := g.GenerateNamedEdgeCase(EdgeCases[g.rng.Intn(len(EdgeCases))])
	return op, input
}

// GenerateNamedEdgeCase builds the scenario with the given name. The
// operation and shape of each scenario are fixed; only collection names and
// filler components are random. Unknown names return an error so a typo in a
// config surfaces instead of silently fuzzing nothing.
func (g *Generator) GenerateNamedEdgeCase(name string) (difftest.Operation, difftest.TestInput, error) {
	switch name {
	case "empty_vector":
		return difftest.OpInsert, difftest.TestInput{
			CollectionName: g.CollectionName(),
			Vectors:        [][]float32{{}},
			IDs:            []string{"empty_id"},
			Metadata:       []map[string]any{{}},
		}, nil

	case "very_large_vector":
		vector := make([]float32, 10000)
		for i := range vector {
			vector[i] = g.unitFloat()
		}
		return difftest.OpInsert, difftest.TestInput{
			CollectionName: g.CollectionName(),
			Vectors:        [][]float32{vector},
			IDs:            []string{"large_vector_id"},
			Metadata:       []map[string]any{{}},
		}, nil

	case "nan_values":
		return difftest.OpSearch, difftest.TestInput{
			CollectionName: g.CollectionName(),
			QueryVector:    g.ladenVector(float32(math.NaN())),
			Limit:          10,
			MetricType:     vectordb.MetricL2,
		}, nil

	case "inf_values":
		return difftest.OpSearch, difftest.TestInput{
			CollectionName: g.CollectionName(),
			QueryVector:    g.ladenVector(float32(math.Inf(1))),
			Limit:          10,
			MetricType:     vectordb.MetricL2,
		}, nil

	case "very_large_batch":
		const numVectors = 1000
		vectors := make([][]float32, numVectors)
		ids := make([]string, numVectors)
		metadata := make([]map[string]any, numVectors)
		for i := 0; i < numVectors; i++ {
			vector := make([]float32, g.cfg.VectorDimension)
			for j := range vector {
				vector[j] = g.unitFloat()
			}
			vectors[i] = vector
			ids[i] = fmt.Sprintf("id_%d", i)
			metadata[i] = map[string]any{}
		}
		return difftest.OpBatchInsert, difftest.TestInput{
			CollectionName: g.CollectionName(),
			Vectors:        vectors,
			IDs:            ids,
			Metadata:       metadata,
		}, nil

	case "empty_metadata":
		return difftest.OpInsert, difftest.TestInput{
			CollectionName: g.CollectionName(),
			Vectors:        [][]float32{g.Vector()},
			IDs:            []string{"empty_metadata_id"},
			Metadata:       []map[string]any{{}},
		}, nil

	case "malformed_id":
		return difftest.OpDelete, difftest.TestInput{
			CollectionName: g.CollectionName(),
			IDs:            []string{"", "invalid@id", "id with spaces"},
		}, nil

	case "nonexistent_collection":
		return difftest.OpSearch, difftest.TestInput{
			CollectionName: "nonexistent_collection",
			QueryVector:    g.Vector(),
			Limit:          10,
			MetricType:     vectordb.MetricL2,
		}, nil

	default:
		return "", difftest.TestInput{}, fmt.Errorf("unknown edge case: %s", name)
	}
}

// ladenVector builds a nominal-dimension vector with the given special value
// at every tenth component, normal unit floats elsewhere.
func (g *Generator) ladenVector(special float32) []float32 {
	vector := make([]float32, g.cfg.VectorDimension)
	for i := range vector {
		if i%10 == 0 {
			vector[i] = special
		} else {
			vector[i] = g.unitFloat()
		}
	}
	return vector
}
