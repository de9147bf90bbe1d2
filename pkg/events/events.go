package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
)

// Logger defines the interface for logging operations within the events package.
//
//go:generate mockgen -source=events.go -destination=mock_logger.go -package=events
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Event is the wire form of one finished differential test. It carries the
// verdict and the failed adapter set but not the raw payloads, which stay in
// the result files.
type Event struct {
	RunID           string    `json:"run_id"`
	TestID          string    `json:"test_id"`
	Operation       string    `json:"operation"`
	Consistent      bool      `json:"consistent"`
	Inconsistencies []string  `json:"inconsistencies"`
	FailedAdapters  []string  `json:"failed_adapters"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewEvent flattens a test result into its event form. Adapters that
// produced no payload count as failed; the set is sorted for stable output.
func NewEvent(runID string, result *difftest.TestResult) Event {
	failed := make([]string, 0, len(result.Results))
	for name, payload := range result.Results {
		if payload == nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	return Event{
		RunID:           runID,
		TestID:          result.TestID,
		Operation:       string(result.Operation),
		Consistent:      result.Consistent(),
		Inconsistencies: result.Inconsistencies,
		FailedAdapters:  failed,
		Timestamp:       time.Now().UTC(),
	}
}

// Sink delivers test results to a live consumer as the campaign runs.
type Sink interface {
	Persist(ctx context.Context, result *difftest.TestResult) error
	Close() error
}

// traceHeaders extracts W3C trace context headers from the context via the
// globally registered propagator. The map is empty when tracing is not
// configured; network sinks attach it to outgoing messages so an event can
// be correlated with the test span that produced it.
func traceHeaders(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// NewSink builds the sink selected by the config transport. Kafka sinks
// connect lazily on first publish; rabbit sinks dial eagerly and fail fast.
func NewSink(cfg Config, runID string, log Logger) (Sink, error) {
	switch cfg.Transport {
	case TransportKafka:
		return NewKafkaSink(cfg.Kafka, runID, log), nil
	case TransportRabbit:
		return NewRabbitSink(cfg.Rabbit, runID, log)
	case TransportLog, "":
		return NewLogSink(runID, log), nil
	default:
		return nil, fmt.Errorf("events: unknown transport %q", cfg.Transport)
	}
}

// LogSink writes events into the structured log. It is the fallback
// transport and never fails.
type LogSink struct {
	runID string
	log   Logger
}

// NewLogSink returns a sink that logs consistent tests at debug level and
// inconsistencies as warnings.
func NewLogSink(runID string, log Logger) *LogSink {
	return &LogSink{runID: runID, log: log}
}

// Persist logs the event.
func (s *LogSink) Persist(_ context.Context, result *difftest.TestResult) error {
	event := NewEvent(s.runID, result)
	fields := map[string]interface{}{
		"run_id":          event.RunID,
		"test_id":         event.TestID,
		"operation":       event.Operation,
		"failed_adapters": event.FailedAdapters,
	}

	if event.Consistent {
		s.log.Debug("test consistent", nil, fields)
		return nil
	}

	fields["inconsistencies"] = event.Inconsistencies
	s.log.Warn("inconsistency detected", nil, fields)
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}
