package difftest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/metrics"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

//go:generate mockgen -source=orchestrator.go -destination=mock_logger.go -package=difftest

// Logger defines the interface for logging operations within the difftest package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Orchestrator fans one generated test out to every configured backend,
// gathers the per-backend outcomes and runs the comparators over them.
//
// The adapter slice is ordered: the first adapter is the comparators'
// reference backend, so registration order is part of the orchestrator's
// observable behaviour. The zero value is not usable; construct with
// NewOrchestrator.
type Orchestrator struct {
	adapters    []vectordb.Adapter
	logger      Logger
	comparators map[Operation]CompareFunc
	collectors  *metrics.Collectors
}

// NewOrchestrator returns an orchestrator over the given backends. The slice
// order defines the comparison reference and is preserved for the lifetime of
// the orchestrator.
func NewOrchestrator(adapters []vectordb.Adapter, logger Logger) *Orchestrator {
	return &Orchestrator{
		adapters:    adapters,
		logger:      logger,
		comparators: defaultComparators(),
	}
}

// WithCollectors attaches Prometheus collectors for per-call telemetry and
// returns the orchestrator for chaining.
func (o *Orchestrator) WithCollectors(collectors *metrics.Collectors) *Orchestrator {
	o.collectors = collectors
	return o
}

// RegisterComparator replaces the comparator for one operation. Intended for
// callers that need a stricter or looser notion of agreement than the
// defaults; safe to call only before the first RunTest.
func (o *Orchestrator) RegisterComparator(op Operation, compare CompareFunc) {
	o.comparators[op] = compare
}

// Adapters returns the adapter names in registration order.
func (o *Orchestrator) Adapters() []string {
	names := make([]string, len(o.adapters))
	for i, a := range o.adapters {
		names[i] = a.Name()
	}
	return names
}

// RunTest executes one test against every backend concurrently and returns
// the aggregated result. It never returns an error and never panics: adapter
// failures become failed per-backend entries, and a failure of the fan-out
// machinery itself degrades to a result in which every backend is marked
// failed. The returned maps always hold exactly one entry per adapter.
//
// RunTest blocks until every backend call has settled. It imposes no deadline
// of its own; per-call deadlines are the adapters' contract obligation.
func (o *Orchestrator) RunTest(ctx context.Context, testID string, op Operation, input TestInput) (result TestResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("orchestration failure: %v", r)
			o.logger.Error("test orchestration failed", err, map[string]interface{}{
				"test_id":   testID,
				"operation": string(op),
			})
			result = o.allFailed(testID, op, input, err)
		}
	}()

	outcomes := make([]DatabaseResult, len(o.adapters))
	start := time.Now()

	var group errgroup.Group
	for i, adapter := range o.adapters {
		group.Go(func() error {
			outcomes[i] = o.safeExecute(ctx, adapter, op, input)
			return nil
		})
	}
	// Branches never return errors; each outcome is contained in its slot.
	_ = group.Wait()

	// Every adapter is billed the shared batch duration: first call in, last
	// call out. Per-call latency lives in DatabaseResult.Elapsed and in the
	// duration histogram.
	batch := time.Since(start)

	result = TestResult{
		TestID:    testID,
		Operation: op,
		Input:     input,
		Results:   make(map[string]vectordb.Payload, len(outcomes)),
		Durations: make(map[string]time.Duration, len(outcomes)),
	}
	for _, outcome := range outcomes {
		result.Results[outcome.Adapter] = outcome.Data
		result.Durations[outcome.Adapter] = batch
		o.observeCall(op, outcome)
	}

	result.Inconsistencies = compareResults(o.comparators, op, outcomes)

	if o.collectors != nil {
		o.collectors.TestsTotal.WithLabelValues(string(op)).Inc()
		if n := len(result.Inconsistencies); n > 0 {
			o.collectors.InconsistenciesTotal.WithLabelValues(string(op)).Add(float64(n))
		}
	}
	if len(result.Inconsistencies) > 0 {
		o.logger.Warn("inconsistencies detected", nil, map[string]interface{}{
			"test_id":         testID,
			"operation":       string(op),
			"inconsistencies": result.Inconsistencies,
		})
	}
	return result
}

// safeExecute runs one adapter call and contains every failure mode,
// including panics, in the returned DatabaseResult.
func (o *Orchestrator) safeExecute(ctx context.Context, adapter vectordb.Adapter, op Operation, input TestInput) (res DatabaseResult) {
	name := adapter.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = DatabaseResult{
				Adapter: name,
				Error:   fmt.Sprintf("panic: %v", r),
				Elapsed: time.Since(start),
			}
		}
	}()

	payload, err := o.execute(ctx, adapter, op, input)
	elapsed := time.Since(start)
	if err != nil {
		o.logger.Debug("adapter call failed", err, map[string]interface{}{
			"adapter":   name,
			"operation": string(op),
		})
		return DatabaseResult{Adapter: name, Error: err.Error(), Elapsed: elapsed}
	}
	return DatabaseResult{Adapter: name, Success: true, Data: payload, Elapsed: elapsed}
}

// execute translates one operation onto the adapter's capability surface.
// Batch search runs the queries sequentially against the adapter and collects
// the per-query payloads; mixed operations execute their steps in order and
// stop at the first failing step.
func (o *Orchestrator) execute(ctx context.Context, adapter vectordb.Adapter, op Operation, input TestInput) (vectordb.Payload, error) {
	collection := input.CollectionName
	if collection == "" {
		collection = "test_collection"
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	metric := input.MetricType
	if metric == "" {
		metric = vectordb.MetricL2
	}

	switch op {
	case OpInsert, OpBatchInsert:
		return adapter.Insert(ctx, collection, input.Vectors, input.IDs, input.Metadata)

	case OpSearch:
		return adapter.Search(ctx, collection, input.QueryVector, limit, metric)

	case OpDelete:
		return adapter.Delete(ctx, collection, input.IDs)

	case OpBatchSearch:
		payloads := make([]any, 0, len(input.QueryVectors))
		for _, queryVector := range input.QueryVectors {
			payload, err := adapter.Search(ctx, collection, queryVector, limit, metric)
			if err != nil {
				return nil, err
			}
			payloads = append(payloads, payload)
		}
		return payloads, nil

	case OpMixed:
		executed := make([]any, 0, len(input.Operations))
		for _, sub := range input.Operations {
			var payload vectordb.Payload
			var err error
			switch sub.Type {
			case "insert":
				payload, err = adapter.Insert(ctx, collection, sub.Vectors, []string{sub.ID}, nil)
			case "search":
				subLimit := sub.Limit
				if subLimit <= 0 {
					subLimit = 10
				}
				payload, err = adapter.Search(ctx, collection, sub.QueryVector, subLimit, vectordb.MetricL2)
			case "delete":
				payload, err = adapter.Delete(ctx, collection, sub.IDs)
			default:
				continue
			}
			if err != nil {
				return nil, err
			}
			executed = append(executed, map[string]any{"operation": sub.Type, "result": payload})
		}
		return executed, nil

	default:
		return nil, fmt.Errorf("unknown operation: %s", op)
	}
}

// allFailed builds the degraded result used when the fan-out machinery itself
// fails: one failed entry per adapter, nothing comparable.
func (o *Orchestrator) allFailed(testID string, op Operation, input TestInput, failure error) TestResult {
	result := TestResult{
		TestID:    testID,
		Operation: op,
		Input:     input,
		Results:   make(map[string]vectordb.Payload, len(o.adapters)),
		Durations: make(map[string]time.Duration, len(o.adapters)),
	}
	outcomes := make([]DatabaseResult, 0, len(o.adapters))
	for _, adapter := range o.adapters {
		name := adapter.Name()
		result.Results[name] = nil
		result.Durations[name] = 0
		outcomes = append(outcomes, DatabaseResult{Adapter: name, Error: failure.Error()})
	}
	result.Inconsistencies = compareResults(o.comparators, op, outcomes)
	return result
}

func (o *Orchestrator) observeCall(op Operation, outcome DatabaseResult) {
	if o.collectors == nil {
		return
	}
	status := "ok"
	if !outcome.Success {
		status = "error"
	}
	o.collectors.AdapterCallsTotal.WithLabelValues(outcome.Adapter, string(op), status).Inc()
	o.collectors.AdapterCallDuration.WithLabelValues(outcome.Adapter, string(op)).Observe(outcome.Elapsed.Seconds())
}
