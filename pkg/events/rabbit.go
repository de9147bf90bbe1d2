package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
)

// RabbitSink publishes events to a RabbitMQ exchange. It dials eagerly so a
// missing broker fails the run at startup instead of per test.
type RabbitSink struct {
	cfg   RabbitConfig
	runID string
	log   Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitSink connects to the broker and declares the configured exchange
// as a durable topic exchange.
func NewRabbitSink(cfg RabbitConfig, runID string, log Logger) (*RabbitSink, error) {
	hostURL := fmt.Sprintf("amqp://%v:%v@%v:%v", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp.DialConfig(hostURL, amqp.Config{
		Heartbeat: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("events: connect to rabbit: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare exchange %q: %w", cfg.Exchange, err)
	}

	log.Info("connected to rabbit", nil, map[string]interface{}{
		"exchange":    cfg.Exchange,
		"routing_key": cfg.RoutingKey,
	})

	return &RabbitSink{cfg: cfg, runID: runID, log: log, conn: conn, channel: channel}, nil
}

// Persist publishes the event as a JSON message on the exchange.
func (s *RabbitSink) Persist(ctx context.Context, result *difftest.TestResult) error {
	body, err := json.Marshal(NewEvent(s.runID, result))
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}
	if headers := traceHeaders(ctx); len(headers) > 0 {
		table := make(amqp.Table, len(headers))
		for key, value := range headers {
			table[key] = value
		}
		publishing.Headers = table
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.channel.PublishWithContext(ctx,
		s.cfg.Exchange,
		s.cfg.RoutingKey,
		false, // Mandatory
		false, // Immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("events: publish to rabbit: %w", err)
	}
	return nil
}

// Close shuts down the channel and the connection.
func (s *RabbitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			firstErr = err
		}
		s.channel = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.conn = nil
	}
	return firstErr
}
