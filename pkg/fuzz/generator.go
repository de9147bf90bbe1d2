package fuzz

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

const (
	plainAlphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	specialAlphabet = plainAlphabet + "!@#$%^&*()"
)

// invalidCollectionNames is the fixed pool of syntactically broken collection
// names the generator occasionally draws from. Every backend should reject
// these; a backend that silently accepts one is itself a finding.
var invalidCollectionNames = []string{"", "invalid-name", "123", "name with spaces", "!@#$%"}

// Generator produces randomized differential test cases. It owns a private
// random source, so two generators with the same seed emit the same sequence
// of tests. Not safe for concurrent use; a campaign drives one generator from
// one goroutine.
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	seed int64
}

// NewGenerator returns a generator for the given configuration. A zero seed
// is replaced by a clock-derived one, which Seed exposes so the run stays
// replayable.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the generator actually runs with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// GenerateTest draws one test case: an operation chosen uniformly from the
// six-operation vocabulary and an input matching that operation's schema.
func (g *Generator) GenerateTest() (difftest.Operation, difftest.TestInput) {
	operations := difftest.Operations()
	op := operations[g.rng.Intn(len(operations))]

	switch op {
	case difftest.OpInsert, difftest.OpBatchInsert:
		return op, g.insertInput()
	case difftest.OpSearch:
		return op, g.searchInput()
	case difftest.OpDelete:
		return op, g.deleteInput()
	case difftest.OpBatchSearch:
		return op, g.batchSearchInput()
	default:
		return op, g.mixedInput()
	}
}

// Vector draws one fuzzed vector. Mutation order matters: the invalid draw
// short-circuits with an empty or wrong-dimension vector, the large draw
// replaces the dimension, then each component independently picks its range,
// and two rare tail draws append infinities and NaN.
func (g *Generator) Vector() []float32 {
	dimension := g.cfg.VectorDimension

	if g.rng.Float64() < g.cfg.ProbabilityInvalidVector {
		if g.rng.Float64() < 0.5 {
			return []float32{}
		}
		broken := make([]float32, 1+g.rng.Intn(256))
		for i := range broken {
			broken[i] = g.unitFloat()
		}
		return broken
	}

	if g.rng.Float64() < g.cfg.ProbabilityLargeVector {
		dimension = 256 + g.rng.Intn(745)
	}

	vector := make([]float32, 0, dimension+3)
	for i := 0; i < dimension; i++ {
		if g.rng.Float64() < g.cfg.ProbabilityNegativeFloats {
			vector = append(vector, g.wideFloat())
		} else {
			vector = append(vector, g.unitFloat())
		}
	}

	if g.rng.Float64() < 0.01 {
		vector = append(vector, float32(math.Inf(1)), float32(math.Inf(-1)))
	}
	if g.rng.Float64() < 0.01 {
		vector = append(vector, float32(math.NaN()))
	}
	return vector
}

// Metadata draws 0..MaxMetadataFields fields, each independently typed among
// string, number, boolean, integer list and a one-level nested object.
func (g *Generator) Metadata() map[string]any {
	metadata := make(map[string]any)
	numFields := g.rng.Intn(g.cfg.MaxMetadataFields + 1)

	for i := 0; i < numFields; i++ {
		key := fmt.Sprintf("field_%d", i)
		switch g.rng.Intn(5) {
		case 0:
			metadata[key] = g.metadataString()
		case 1:
			metadata[key] = g.rng.Intn(2000001) - 1000000
		case 2:
			metadata[key] = g.rng.Intn(2) == 0
		case 3:
			list := make([]int, 1+g.rng.Intn(10))
			for j := range list {
				list[j] = g.rng.Intn(101)
			}
			metadata[key] = list
		default:
			nested := []any{"nested_string", 42, true}
			metadata[key] = map[string]any{"nested_value": nested[g.rng.Intn(len(nested))]}
		}
	}
	return metadata
}

// CollectionName draws a name: one in ten comes from the invalid pool, the
// rest are numbered test collections distinct enough to avoid accidental
// reuse within a run.
func (g *Generator) CollectionName() string {
	if g.rng.Float64() < 0.1 {
		return invalidCollectionNames[g.rng.Intn(len(invalidCollectionNames))]
	}
	return fmt.Sprintf("test_collection_%d", 1+g.rng.Intn(1000))
}

func (g *Generator) insertInput() difftest.TestInput {
	numVectors := 1 + g.rng.Intn(g.cfg.MaxVectorsPerBatch)

	vectors := make([][]float32, numVectors)
	ids := make([]string, numVectors)
	metadata := make([]map[string]any, numVectors)
	for i := 0; i < numVectors; i++ {
		vectors[i] = g.Vector()
		ids[i] = g.randomID()
		// Roughly a third of the vectors travel without metadata so the
		// backends' nil handling gets exercised too.
		if g.rng.Float64() < 0.7 {
			metadata[i] = g.Metadata()
		}
	}

	return difftest.TestInput{
		CollectionName: g.CollectionName(),
		Vectors:        vectors,
		IDs:            ids,
		Metadata:       metadata,
	}
}

func (g *Generator) searchInput() difftest.TestInput {
	return difftest.TestInput{
		CollectionName: g.CollectionName(),
		QueryVector:    g.Vector(),
		Limit:          1 + g.rng.Intn(100),
		MetricType:     g.metric(),
	}
}

func (g *Generator) deleteInput() difftest.TestInput {
	ids := make([]string, 1+g.rng.Intn(50))
	for i := range ids {
		ids[i] = g.randomID()
	}
	if g.rng.Float64() < 0.2 {
		ids = append(ids, "invalid_id_1", "nonexistent_id", "")
	}
	return difftest.TestInput{
		CollectionName: g.CollectionName(),
		IDs:            ids,
	}
}

func (g *Generator) batchSearchInput() difftest.TestInput {
	queryVectors := make([][]float32, 1+g.rng.Intn(10))
	for i := range queryVectors {
		queryVectors[i] = g.Vector()
	}
	return difftest.TestInput{
		CollectionName: g.CollectionName(),
		QueryVectors:   queryVectors,
		Limit:          1 + g.rng.Intn(50),
		MetricType:     g.metric(),
	}
}

func (g *Generator) mixedInput() difftest.TestInput {
	numOperations := 2 + g.rng.Intn(9)
	operations := make([]difftest.SubOperation, 0, numOperations)

	for i := 0; i < numOperations; i++ {
		switch g.rng.Intn(3) {
		case 0:
			operations = append(operations, difftest.SubOperation{
				Type:    "insert",
				Vectors: [][]float32{g.Vector()},
				ID:      g.randomID(),
			})
		case 1:
			operations = append(operations, difftest.SubOperation{
				Type:        "search",
				QueryVector: g.Vector(),
				Limit:       1 + g.rng.Intn(20),
			})
		default:
			operations = append(operations, difftest.SubOperation{
				Type: "delete",
				IDs:  []string{g.randomID()},
			})
		}
	}

	return difftest.TestInput{
		CollectionName: g.CollectionName(),
		Operations:     operations,
	}
}

func (g *Generator) metric() vectordb.Metric {
	metrics := vectordb.Metrics()
	return metrics[g.rng.Intn(len(metrics))]
}

func (g *Generator) randomID() string {
	return fmt.Sprintf("id_%d", g.rng.Intn(1000001))
}

func (g *Generator) metadataString() string {
	alphabet := plainAlphabet
	length := 1 + g.rng.Intn(20)
	if g.rng.Float64() < g.cfg.ProbabilitySpecialChars {
		alphabet = specialAlphabet
		length = 1 + g.rng.Intn(50)
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(out)
}

// unitFloat draws uniformly from [-1, 1).
func (g *Generator) unitFloat() float32 {
	return float32(g.rng.Float64()*2 - 1)
}

// wideFloat draws uniformly from [-10, 10).
func (g *Generator) wideFloat() float32 {
	return float32(g.rng.Float64()*20 - 10)
}
