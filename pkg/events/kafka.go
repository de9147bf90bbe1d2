package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
)

// KafkaSink publishes events to a Kafka topic. The writer connects lazily,
// so construction never fails; broker trouble surfaces on publish.
type KafkaSink struct {
	writer *kafka.Writer
	runID  string
	log    Logger
}

// NewKafkaSink builds a producer for the configured topic. Messages are
// keyed by test id so one test's events land on one partition.
func NewKafkaSink(cfg KafkaConfig, runID string, log Logger) *KafkaSink {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("kafka internal error", nil, map[string]interface{}{
				"error": fmt.Sprintf(msg, args...),
			})
		}),
	})

	return &KafkaSink{writer: writer, runID: runID, log: log}
}

// Persist publishes the event as a JSON message.
func (s *KafkaSink) Persist(ctx context.Context, result *difftest.TestResult) error {
	body, err := json.Marshal(NewEvent(s.runID, result))
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.TestID),
		Value: body,
	}
	for key, value := range traceHeaders(ctx) {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish to kafka: %w", err)
	}
	return nil
}

// Close flushes and shuts down the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
