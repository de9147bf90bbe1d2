package events

import "time"

const (
	// TransportLog routes events into the structured log.
	TransportLog = "log"

	// TransportKafka publishes events to a Kafka topic.
	TransportKafka = "kafka"

	// TransportRabbit publishes events to a RabbitMQ exchange.
	TransportRabbit = "rabbit"
)

const (
	// DefaultKafkaTopic receives events when no topic is configured.
	DefaultKafkaTopic = "fuzz-events"

	// DefaultKafkaWriteTimeout bounds a single publish.
	DefaultKafkaWriteTimeout = 10 * time.Second

	// DefaultKafkaMaxAttempts caps publish retries.
	DefaultKafkaMaxAttempts = 3

	// DefaultRabbitExchange receives events when no exchange is configured.
	DefaultRabbitExchange = "fuzz.events"

	// DefaultRabbitRoutingKey routes events within the exchange.
	DefaultRabbitRoutingKey = "results"
)

// Config selects and parameterizes the event sink.
type Config struct {
	// Transport picks the sink: log, kafka or rabbit. Empty means log.
	Transport string `json:"transport" yaml:"transport" envconfig:"EVENTS_TRANSPORT"`

	// Kafka configures the kafka transport.
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`

	// Rabbit configures the rabbit transport.
	Rabbit RabbitConfig `json:"rabbit" yaml:"rabbit"`
}

// KafkaConfig holds the writer settings for the kafka transport.
type KafkaConfig struct {
	// Brokers lists the bootstrap addresses.
	Brokers []string `json:"brokers" yaml:"brokers" envconfig:"EVENTS_KAFKA_BROKERS"`

	// Topic receives the event messages.
	Topic string `json:"topic" yaml:"topic" envconfig:"EVENTS_KAFKA_TOPIC"`

	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"EVENTS_KAFKA_WRITE_TIMEOUT"`

	// MaxAttempts caps publish retries.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" envconfig:"EVENTS_KAFKA_MAX_ATTEMPTS"`
}

// RabbitConfig holds the connection and exchange settings for the rabbit
// transport.
type RabbitConfig struct {
	// Host is the RabbitMQ server host.
	Host string `json:"host" yaml:"host" envconfig:"EVENTS_RABBIT_HOST"`

	// Port is the AMQP port.
	Port uint `json:"port" yaml:"port" envconfig:"EVENTS_RABBIT_PORT"`

	// User authenticates the connection.
	User string `json:"user" yaml:"user" envconfig:"EVENTS_RABBIT_USER"`

	// Password authenticates the connection.
	Password string `json:"password" yaml:"password" envconfig:"EVENTS_RABBIT_PASSWORD"`

	// Exchange is declared durable at connect time and receives the events.
	Exchange string `json:"exchange" yaml:"exchange" envconfig:"EVENTS_RABBIT_EXCHANGE"`

	// RoutingKey routes events within the exchange.
	RoutingKey string `json:"routing_key" yaml:"routing_key" envconfig:"EVENTS_RABBIT_ROUTING_KEY"`
}

// DefaultConfig returns a Config that logs events locally.
func DefaultConfig() Config {
	return Config{
		Transport: TransportLog,
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        DefaultKafkaTopic,
			WriteTimeout: DefaultKafkaWriteTimeout,
			MaxAttempts:  DefaultKafkaMaxAttempts,
		},
		Rabbit: RabbitConfig{
			Host:       "localhost",
			Port:       5672,
			User:       "guest",
			Password:   "guest",
			Exchange:   DefaultRabbitExchange,
			RoutingKey: DefaultRabbitRoutingKey,
		},
	}
}
