package resultstore

const (
	// DefaultHost is the default Postgres host.
	DefaultHost = "localhost"

	// DefaultPort is the default Postgres port.
	DefaultPort = 5432

	// DefaultUser is the default Postgres role.
	DefaultUser = "postgres"

	// DefaultDatabase is the default database name.
	DefaultDatabase = "vdbfuzz"

	// DefaultSSLMode disables TLS, matching local and CI deployments.
	DefaultSSLMode = "disable"
)

// Config holds the settings for the Postgres database that archives test
// results. The store is optional; a disabled config means results only go
// to files and event sinks.
type Config struct {
	// Enabled turns result archiving on.
	Enabled bool `json:"enabled" yaml:"enabled" envconfig:"RESULTSTORE_ENABLED"`

	// Host is the Postgres server host.
	Host string `json:"host" yaml:"host" envconfig:"RESULTSTORE_HOST"`

	// Port is the Postgres server port.
	Port int `json:"port" yaml:"port" envconfig:"RESULTSTORE_PORT"`

	// User authenticates the connection.
	User string `json:"user" yaml:"user" envconfig:"RESULTSTORE_USER"`

	// Password authenticates the connection.
	Password string `json:"password" yaml:"password" envconfig:"RESULTSTORE_PASSWORD"`

	// Database is the database to connect to.
	Database string `json:"database" yaml:"database" envconfig:"RESULTSTORE_DATABASE"`

	// SSLMode is passed through to the connection string.
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode" envconfig:"RESULTSTORE_SSL_MODE"`
}

// DefaultConfig returns a Config for a local Postgres, disabled by default.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Host:     DefaultHost,
		Port:     DefaultPort,
		User:     DefaultUser,
		Password: DefaultUser,
		Database: DefaultDatabase,
		SSLMode:  DefaultSSLMode,
	}
}

// WithEnabled turns result archiving on or off.
func (c Config) WithEnabled(enabled bool) Config {
	c.Enabled = enabled
	return c
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
