package fuzz

// Config tunes the shape and hostility of generated test inputs.
//
// The probability fields are independent per-draw chances, so a single vector
// can be hit by several mutations at once (oversized and negative-range, for
// example). All fields have working defaults; override only what an
// experiment needs.
//
// Example (builder style):
//
//	cfg := fuzz.DefaultConfig().
//	    WithSeed(42).
//	    WithVectorDimension(256)
type Config struct {
	// VectorDimension is the nominal dimensionality of generated vectors.
	// Mutations may shrink or grow individual vectors past it.
	VectorDimension int `json:"vector_dimension" yaml:"vector_dimension" envconfig:"FUZZ_VECTOR_DIMENSION"`

	// MaxVectorsPerBatch bounds the number of vectors in one insert input.
	MaxVectorsPerBatch int `json:"max_vectors_per_batch" yaml:"max_vectors_per_batch" envconfig:"FUZZ_MAX_VECTORS_PER_BATCH"`

	// MaxMetadataFields bounds the number of metadata fields per vector.
	// Zero fields is a valid draw.
	MaxMetadataFields int `json:"max_metadata_fields" yaml:"max_metadata_fields" envconfig:"FUZZ_MAX_METADATA_FIELDS"`

	// ProbabilityInvalidVector is the chance a vector comes out structurally
	// broken: empty, or with a dimension drawn from 1..256 regardless of the
	// configured one.
	ProbabilityInvalidVector float64 `json:"probability_invalid_vector" yaml:"probability_invalid_vector" envconfig:"FUZZ_PROBABILITY_INVALID_VECTOR"`

	// ProbabilityLargeVector is the chance the vector's dimension is drawn
	// from 256..1000 instead of VectorDimension.
	ProbabilityLargeVector float64 `json:"probability_large_vector" yaml:"probability_large_vector" envconfig:"FUZZ_PROBABILITY_LARGE_VECTOR"`

	// ProbabilityNegativeFloats is the per-component chance of drawing from
	// the wide range -10..10 instead of the unit range.
	ProbabilityNegativeFloats float64 `json:"probability_negative_floats" yaml:"probability_negative_floats" envconfig:"FUZZ_PROBABILITY_NEGATIVE_FLOATS"`

	// ProbabilitySpecialChars is the chance a generated metadata string draws
	// from the extended alphabet with shell-hostile characters.
	ProbabilitySpecialChars float64 `json:"probability_special_chars" yaml:"probability_special_chars" envconfig:"FUZZ_PROBABILITY_SPECIAL_CHARS"`

	// Seed fixes the generator's random source for reproducible campaigns.
	// Zero means derive one from the clock; the effective seed is exposed via
	// Generator.Seed so a failing run can still be replayed.
	Seed int64 `json:"seed" yaml:"seed" envconfig:"FUZZ_SEED"`
}

// DefaultConfig returns the generation parameters a campaign runs with when
// the config file does not override them.
func DefaultConfig() Config {
	return Config{
		VectorDimension:           128,
		MaxVectorsPerBatch:        100,
		MaxMetadataFields:         10,
		ProbabilityInvalidVector:  0.1,
		ProbabilityLargeVector:    0.05,
		ProbabilityNegativeFloats: 0.1,
		ProbabilitySpecialChars:   0.05,
	}
}

// WithSeed fixes the random source and returns the config for chaining.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	return c
}

// WithVectorDimension overrides the nominal vector dimension.
func (c Config) WithVectorDimension(dim int) Config {
	c.VectorDimension = dim
	return c
}

// WithMaxVectorsPerBatch overrides the insert batch bound.
func (c Config) WithMaxVectorsPerBatch(n int) Config {
	c.MaxVectorsPerBatch = n
	return c
}
