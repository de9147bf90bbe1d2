package redisearch

import (
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

const (
	// DefaultHost is the default Redis host.
	DefaultHost = "localhost"

	// DefaultPort is the default Redis port.
	DefaultPort = 6379

	// DefaultCollection is the default index name.
	DefaultCollection = "test_collection"

	// DefaultDimension is the default vector dimension.
	DefaultDimension = 128

	// DefaultTimeout bounds individual operations.
	DefaultTimeout = 30 * time.Second
)

// Config holds the settings for a Redis deployment with the search module
// loaded.
type Config struct {
	// Host is the Redis server host.
	Host string `json:"host" yaml:"host" envconfig:"REDISEARCH_HOST"`

	// Port is the Redis server port.
	Port int `json:"port" yaml:"port" envconfig:"REDISEARCH_PORT"`

	// Password authenticates the connection. Empty disables auth.
	Password string `json:"password" yaml:"password" envconfig:"REDISEARCH_PASSWORD"`

	// DB selects the logical database.
	DB int `json:"db" yaml:"db" envconfig:"REDISEARCH_DB"`

	// Collection names the search index. Document keys carry it as prefix.
	Collection string `json:"collection" yaml:"collection" envconfig:"REDISEARCH_COLLECTION"`

	// Dimension is the vector field dimension used at provisioning time.
	Dimension int `json:"dimension" yaml:"dimension" envconfig:"REDISEARCH_DIMENSION"`

	// Metric is the distance function baked into the index.
	Metric vectordb.Metric `json:"metric" yaml:"metric" envconfig:"REDISEARCH_METRIC"`

	// Timeout bounds individual operations. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout" envconfig:"REDISEARCH_TIMEOUT"`
}

// DefaultConfig returns a Config for a local Redis Stack deployment.
func DefaultConfig() Config {
	return Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Collection: DefaultCollection,
		Dimension:  DefaultDimension,
		Metric:     vectordb.MetricL2,
		Timeout:    DefaultTimeout,
	}
}

// WithEndpoint sets the server host and port.
func (c Config) WithEndpoint(host string, port int) Config {
	c.Host = host
	c.Port = port
	return c
}

// WithPassword sets the connection password.
func (c Config) WithPassword(password string) Config {
	c.Password = password
	return c
}

// WithCollection sets the index name.
func (c Config) WithCollection(collection string) Config {
	c.Collection = collection
	return c
}

// WithDimension sets the vector field dimension.
func (c Config) WithDimension(dimension int) Config {
	c.Dimension = dimension
	return c
}

// WithTimeout sets the per-operation timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
