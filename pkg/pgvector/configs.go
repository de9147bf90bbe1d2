package pgvector

import "time"

const (
	// DefaultHost is the default Postgres host.
	DefaultHost = "localhost"

	// DefaultPort is the default Postgres port.
	DefaultPort = 5432

	// DefaultUser is the default Postgres role.
	DefaultUser = "postgres"

	// DefaultDatabase is the default database name.
	DefaultDatabase = "postgres"

	// DefaultCollection is the default table backing a collection.
	DefaultCollection = "test_collection"

	// DefaultDimension is the default vector column dimension.
	DefaultDimension = 128

	// DefaultSSLMode disables TLS, matching local and CI deployments.
	DefaultSSLMode = "disable"

	// DefaultTimeout bounds individual operations.
	DefaultTimeout = 30 * time.Second
)

// Config holds the settings for a Postgres connection with the pgvector
// extension installed.
type Config struct {
	// Host is the Postgres server host.
	Host string `json:"host" yaml:"host" envconfig:"PGVECTOR_HOST"`

	// Port is the Postgres server port.
	Port int `json:"port" yaml:"port" envconfig:"PGVECTOR_PORT"`

	// User authenticates the connection.
	User string `json:"user" yaml:"user" envconfig:"PGVECTOR_USER"`

	// Password authenticates the connection.
	Password string `json:"password" yaml:"password" envconfig:"PGVECTOR_PASSWORD"`

	// Database is the database to connect to.
	Database string `json:"database" yaml:"database" envconfig:"PGVECTOR_DATABASE"`

	// Collection is the table provisioned by SetupCollection.
	Collection string `json:"collection" yaml:"collection" envconfig:"PGVECTOR_COLLECTION"`

	// Dimension is the vector column dimension used at provisioning time.
	Dimension int `json:"dimension" yaml:"dimension" envconfig:"PGVECTOR_DIMENSION"`

	// SSLMode is passed through to the connection string.
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode" envconfig:"PGVECTOR_SSL_MODE"`

	// Timeout bounds individual operations. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout" envconfig:"PGVECTOR_TIMEOUT"`
}

// DefaultConfig returns a Config for a local Postgres with pgvector.
func DefaultConfig() Config {
	return Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		User:       DefaultUser,
		Password:   DefaultUser,
		Database:   DefaultDatabase,
		Collection: DefaultCollection,
		Dimension:  DefaultDimension,
		SSLMode:    DefaultSSLMode,
		Timeout:    DefaultTimeout,
	}
}

// WithEndpoint sets the server host and port.
func (c Config) WithEndpoint(host string, port int) Config {
	c.Host = host
	c.Port = port
	return c
}

// WithCredentials sets the role and password.
func (c Config) WithCredentials(user, password string) Config {
	c.User = user
	c.Password = password
	return c
}

// WithDatabase sets the database name.
func (c Config) WithDatabase(database string) Config {
	c.Database = database
	return c
}

// WithCollection sets the table backing the collection.
func (c Config) WithCollection(collection string) Config {
	c.Collection = collection
	return c
}

// WithDimension sets the vector column dimension.
func (c Config) WithDimension(dimension int) Config {
	c.Dimension = dimension
	return c
}

// WithTimeout sets the per-operation timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
