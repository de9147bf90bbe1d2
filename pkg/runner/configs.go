package runner

const (
	// DefaultNumTests is the default campaign length.
	DefaultNumTests = 50

	// DefaultEdgeCaseRatio keeps edge-case scenarios out of the draw unless
	// explicitly requested.
	DefaultEdgeCaseRatio = 0.0
)

// Config holds the campaign settings.
type Config struct {
	// NumTests is how many tests a campaign runs.
	NumTests int `json:"num_tests" yaml:"num_tests" envconfig:"RUNNER_NUM_TESTS"`

	// EdgeCaseRatio is the probability in [0,1] that a test is drawn from the
	// edge-case scenarios instead of the regular generator. Values at or
	// above 1 make every test an edge case.
	EdgeCaseRatio float64 `json:"edge_case_ratio" yaml:"edge_case_ratio" envconfig:"RUNNER_EDGE_CASE_RATIO"`
}

// DefaultConfig returns a Config for a short all-random campaign.
func DefaultConfig() Config {
	return Config{
		NumTests:      DefaultNumTests,
		EdgeCaseRatio: DefaultEdgeCaseRatio,
	}
}

// WithNumTests sets the campaign length.
func (c Config) WithNumTests(n int) Config {
	c.NumTests = n
	return c
}

// WithEdgeCaseRatio sets the edge-case draw probability.
func (c Config) WithEdgeCaseRatio(ratio float64) Config {
	c.EdgeCaseRatio = ratio
	return c
}
