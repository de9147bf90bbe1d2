package runner

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/fuzz"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/metrics"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/tracer"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// Logger defines the interface for logging operations within the runner
// package.
//
//go:generate mockgen -source=runner.go -destination=mock_runner.go -package=runner
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Sink receives every finished test result as the campaign produces them.
// Event publishers and the result store implement it.
type Sink interface {
	Persist(ctx context.Context, result *difftest.TestResult) error
}

// Runner drives one fuzzing campaign: it provisions the backends, draws
// tests from the generator, fans them out through the orchestrator and
// forwards every result to the configured sinks.
type Runner struct {
	cfg          Config
	runID        string
	generator    *fuzz.Generator
	orchestrator *difftest.Orchestrator
	adapters     []vectordb.Adapter
	sinks        []Sink
	collectors   *metrics.Collectors
	tracer       *tracer.Tracer
	log          Logger
	rng          *rand.Rand
}

// NewRunner builds a campaign runner. An empty runID gets a generated one.
// The edge-case draw reuses the generator's seed so a campaign is fully
// reproducible from (seed, numTests, edgeCaseRatio).
func NewRunner(cfg Config, runID string, generator *fuzz.Generator, orchestrator *difftest.Orchestrator, adapters []vectordb.Adapter, log Logger) *Runner {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Runner{
		cfg:          cfg,
		runID:        runID,
		generator:    generator,
		orchestrator: orchestrator,
		adapters:     adapters,
		log:          log,
		rng:          rand.New(rand.NewSource(generator.Seed())),
	}
}

// WithSinks attaches result sinks and returns the runner for chaining.
func (r *Runner) WithSinks(sinks ...Sink) *Runner {
	r.sinks = append(r.sinks, sinks...)
	return r
}

// WithCollectors attaches Prometheus collectors and returns the runner for
// chaining.
func (r *Runner) WithCollectors(collectors *metrics.Collectors) *Runner {
	r.collectors = collectors
	return r
}

// WithTracer attaches a tracer and returns the runner for chaining. When set,
// every test runs inside its own span and the sinks see the span context.
func (r *Runner) WithTracer(tr *tracer.Tracer) *Runner {
	r.tracer = tr
	return r
}

// RunID returns the campaign identifier.
func (r *Runner) RunID() string {
	return r.runID
}

// Setup connects every adapter and provisions its test collection. Failures
// are logged and never fatal: a backend that cannot connect keeps failing
// per-test, which is itself a differential signal.
func (r *Runner) Setup(ctx context.Context) {
	for _, adapter := range r.adapters {
		name := adapter.Name()
		if err := adapter.Connect(ctx); err != nil {
			r.log.Error("adapter connect failed", err, map[string]interface{}{
				"adapter": name,
			})
			continue
		}
		if err := adapter.SetupCollection(ctx); err != nil {
			r.log.Error("collection setup failed", err, map[string]interface{}{
				"adapter": name,
			})
			continue
		}
		r.log.Info("adapter connected and provisioned", nil, map[string]interface{}{
			"adapter": name,
		})
	}
}

// Run executes numTests tests and returns every result. Cancelling the
// context stops the campaign between tests; the results so far come back
// together with the context's error.
func (r *Runner) Run(ctx context.Context, numTests int) ([]*difftest.TestResult, error) {
	r.log.Info("starting fuzzing campaign", nil, map[string]interface{}{
		"run_id":          r.runID,
		"tests":           numTests,
		"seed":            r.generator.Seed(),
		"edge_case_ratio": r.cfg.EdgeCaseRatio,
		"adapters":        r.orchestrator.Adapters(),
	})

	results := make([]*difftest.TestResult, 0, numTests)
	for i := 0; i < numTests; i++ {
		select {
		case <-ctx.Done():
			r.log.Warn("campaign interrupted", ctx.Err(), map[string]interface{}{
				"run_id":    r.runID,
				"completed": len(results),
			})
			return results, ctx.Err()
		default:
		}

		testID := fmt.Sprintf("test_%04d", i)
		op, input := r.drawTest()
		r.log.Debug("running test", nil, map[string]interface{}{
			"test_id":   testID,
			"operation": string(op),
		})

		result := r.runOne(ctx, testID, op, input)
		results = append(results, &result)
	}

	inconsistent := 0
	for _, result := range results {
		if !result.Consistent() {
			inconsistent++
		}
	}
	r.log.Info("campaign finished", nil, map[string]interface{}{
		"run_id":             r.runID,
		"tests":              len(results),
		"inconsistent_tests": inconsistent,
	})
	return results, nil
}

// drawTest picks the next test, routing a configured share of draws to the
// edge-case scenarios.
func (r *Runner) drawTest() (difftest.Operation, difftest.TestInput) {
	if r.cfg.EdgeCaseRatio > 0 && r.rng.Float64() < r.cfg.EdgeCaseRatio {
		return r.generator.GenerateEdgeCaseTest()
	}
	return r.generator.GenerateTest()
}

// runOne executes a single test and forwards its result. With a tracer
// attached the whole exchange, sink deliveries included, runs inside one
// span; inconsistent tests are marked as span errors.
func (r *Runner) runOne(ctx context.Context, testID string, op difftest.Operation, input difftest.TestInput) difftest.TestResult {
	var span traceSpan.Span
	if r.tracer != nil {
		ctx, span = r.tracer.StartSpan(ctx, "vdbfuzz.test")
		defer span.End()
	}

	result := r.orchestrator.RunTest(ctx, testID, op, input)

	if result.Consistent() {
		r.log.Info("test passed", nil, map[string]interface{}{
			"test_id":   testID,
			"operation": string(op),
		})
	} else {
		r.log.Warn("test found inconsistencies", nil, map[string]interface{}{
			"test_id":         testID,
			"operation":       string(op),
			"inconsistencies": result.Inconsistencies,
		})
	}

	r.forward(ctx, &result)

	if span != nil {
		r.tracer.SetAttributes(span, map[string]interface{}{
			"test.id":         testID,
			"test.operation":  string(op),
			"test.consistent": result.Consistent(),
		})
		if !result.Consistent() {
			r.tracer.RecordErrorOnSpan(span, fmt.Errorf("detected %d inconsistencies", len(result.Inconsistencies)))
		}
	}
	return result
}

// forward hands one result to every sink. Sink failures are logged; the
// campaign never stops because an archive is down.
func (r *Runner) forward(ctx context.Context, result *difftest.TestResult) {
	for _, sink := range r.sinks {
		if err := sink.Persist(ctx, result); err != nil {
			r.log.Error("sink persist failed", err, map[string]interface{}{
				"test_id": result.TestID,
			})
		}
	}
}

// HealthCheck probes every adapter and returns the per-adapter verdicts.
// Verdicts also land on the adapter_up gauge when collectors are attached.
func (r *Runner) HealthCheck(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(r.adapters))
	for _, adapter := range r.adapters {
		name := adapter.Name()
		err := adapter.Health(ctx)
		health[name] = err == nil

		if err != nil {
			r.log.Error("adapter unhealthy", err, map[string]interface{}{
				"adapter": name,
			})
		} else {
			r.log.Debug("adapter healthy", nil, map[string]interface{}{
				"adapter": name,
			})
		}
		if r.collectors != nil {
			up := 0.0
			if err == nil {
				up = 1.0
			}
			r.collectors.AdapterUp.WithLabelValues(name).Set(up)
		}
	}
	return health
}

// Cleanup drops the test collections and disconnects every adapter, in that
// order, best effort. Errors are logged and never returned.
func (r *Runner) Cleanup(ctx context.Context) {
	for _, adapter := range r.adapters {
		if err := adapter.Cleanup(ctx); err != nil {
			r.log.Warn("collection cleanup failed", err, map[string]interface{}{
				"adapter": adapter.Name(),
			})
		}
	}
	for _, adapter := range r.adapters {
		if err := adapter.Disconnect(ctx); err != nil {
			r.log.Warn("disconnect failed", err, map[string]interface{}{
				"adapter": adapter.Name(),
			})
		}
	}
}
