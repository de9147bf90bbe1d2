package milvus

import (
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// Default connection settings for a local Milvus standalone instance.
const (
	DefaultAddress    = "localhost:19530"
	DefaultCollection = "test_collection"
	DefaultDimension  = 128
	DefaultTimeout    = 30 * time.Second
)

// Config holds connection and collection settings for the Milvus adapter.
type Config struct {
	// Address of the Milvus gRPC endpoint, host:port.
	Address string `json:"address" yaml:"address" envconfig:"MILVUS_ADDRESS"`

	// Optional credentials for authenticated deployments.
	Username string `json:"username" yaml:"username" envconfig:"MILVUS_USERNAME"`
	Password string `json:"password" yaml:"password" envconfig:"MILVUS_PASSWORD"`

	// Database to operate in. Empty selects the server default.
	Database string `json:"database" yaml:"database" envconfig:"MILVUS_DATABASE"`

	// Collection provisioned by SetupCollection and dropped by Cleanup.
	Collection string `json:"collection" yaml:"collection" envconfig:"MILVUS_COLLECTION"`

	// Dimensionality the provisioned collection is created with.
	Dimension int `json:"dimension" yaml:"dimension" envconfig:"MILVUS_DIMENSION"`

	// Metric the vector index is built with. Milvus binds the metric to the
	// index, not to individual queries.
	Metric vectordb.Metric `json:"metric" yaml:"metric" envconfig:"MILVUS_METRIC"`

	// Maximum duration of a single backend call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" envconfig:"MILVUS_TIMEOUT"`
}

// DefaultConfig returns settings for a local, unauthenticated standalone.
func DefaultConfig() Config {
	return Config{
		Address:    DefaultAddress,
		Collection: DefaultCollection,
		Dimension:  DefaultDimension,
		Metric:     vectordb.MetricL2,
		Timeout:    DefaultTimeout,
	}
}

// WithAddress overrides the gRPC endpoint.
func (c Config) WithAddress(address string) Config {
	c.Address = address
	return c
}

// WithCredentials sets username and password.
func (c Config) WithCredentials(username, password string) Config {
	c.Username = username
	c.Password = password
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
