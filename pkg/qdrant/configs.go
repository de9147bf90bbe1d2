package qdrant

import (
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// Default connection settings for a local Qdrant instance.
const (
	DefaultEndpoint   = "localhost"
	DefaultPort       = 6334
	DefaultCollection = "test_collection"
	DefaultDimension  = 128
	DefaultTimeout    = 30 * time.Second
)

// Config holds connection and collection settings for the Qdrant adapter.
//
// Example:
//
//	cfg := qdrant.DefaultConfig().
//	    WithEndpoint("qdrant.internal", 6334).
//	    WithCollection("fuzz_target")
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `json:"endpoint" yaml:"endpoint" envconfig:"QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `json:"port" yaml:"port" envconfig:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	APIKey string `json:"api_key" yaml:"api_key" envconfig:"QDRANT_API_KEY"`

	// Collection provisioned by SetupCollection and dropped by Cleanup.
	Collection string `json:"collection" yaml:"collection" envconfig:"QDRANT_COLLECTION"`

	// Dimensionality the provisioned collection is created with.
	Dimension int `json:"dimension" yaml:"dimension" envconfig:"QDRANT_DIMENSION"`

	// Distance function the provisioned collection is created with. Qdrant
	// binds the distance to the collection, not to individual queries.
	Distance vectordb.Metric `json:"distance" yaml:"distance" envconfig:"QDRANT_DISTANCE"`

	// Maximum duration of a single backend call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" envconfig:"QDRANT_TIMEOUT"`

	// Whether to perform version compatibility checks between client and
	// server on connect.
	CheckCompatibility bool `json:"check_compatibility" yaml:"check_compatibility" envconfig:"QDRANT_CHECK_COMPATIBILITY"`
}

// DefaultConfig returns settings for a local, unauthenticated Qdrant.
func DefaultConfig() Config {
	return Config{
		Endpoint:           DefaultEndpoint,
		Port:               DefaultPort,
		Collection:         DefaultCollection,
		Dimension:          DefaultDimension,
		Distance:           vectordb.MetricCosine,
		Timeout:            DefaultTimeout,
		CheckCompatibility: false,
	}
}

// WithEndpoint overrides host and port.
func (c Config) WithEndpoint(host string, port int) Config {
	c.Endpoint = host
	c.Port = port
	return c
}

// WithAPIKey sets the authentication token.
func (c Config) WithAPIKey(key string) Config {
	c.APIKey = key
	return c
}

// WithCollection overrides the provisioned collection name.
func (c Config) WithCollection(name string) Config {
	c.Collection = name
	return c
}

// WithDimension overrides the provisioned vector dimensionality.
func (c Config) WithDimension(dim int) Config {
	c.Dimension = dim
	return c
}

// WithTimeout overrides the per-call timeout.
func (c Config) WithTimeout(d time.Duration) Config {
	c.Timeout = d
	return c
}
