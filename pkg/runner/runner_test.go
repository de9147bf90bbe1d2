package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	traceSpan "go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/fuzz"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/metrics"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/tracer"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

func testLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

func newGenerator(seed int64) *fuzz.Generator {
	return fuzz.NewGenerator(fuzz.DefaultConfig().WithSeed(seed))
}

// healthyAdapter stubs a backend that accepts every data-path call.
func healthyAdapter(ctrl *gomock.Controller, name string) *vectordb.MockAdapter {
	adapter := vectordb.NewMockAdapter(ctrl)
	adapter.EXPECT().Name().Return(name).AnyTimes()
	adapter.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(map[string]any{"status": "ok"}, nil).AnyTimes()
	adapter.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]map[string]any{{"id": "vec_1", "score": 0.1}}, nil).AnyTimes()
	adapter.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(map[string]any{"status": "ok"}, nil).AnyTimes()
	return adapter
}

func TestRunnerSetupContinuesPastFailures(t *testing.T) {
	ctrl := gomock.NewController(t)

	healthy := vectordb.NewMockAdapter(ctrl)
	healthy.EXPECT().Name().Return("alpha").AnyTimes()
	healthy.EXPECT().Connect(gomock.Any()).Return(nil)
	healthy.EXPECT().SetupCollection(gomock.Any()).Return(nil)

	// No SetupCollection expectation: provisioning must not be attempted on
	// a backend that never connected.
	unreachable := vectordb.NewMockAdapter(ctrl)
	unreachable.EXPECT().Name().Return("beta").AnyTimes()
	unreachable.EXPECT().Connect(gomock.Any()).Return(errors.New("dial tcp: connection refused"))

	unprovisioned := vectordb.NewMockAdapter(ctrl)
	unprovisioned.EXPECT().Name().Return("gamma").AnyTimes()
	unprovisioned.EXPECT().Connect(gomock.Any()).Return(nil)
	unprovisioned.EXPECT().SetupCollection(gomock.Any()).Return(errors.New("index exists with a different schema"))

	adapters := []vectordb.Adapter{healthy, unreachable, unprovisioned}
	log := testLogger(t)
	runner := NewRunner(DefaultConfig(), "run-setup", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log)

	runner.Setup(context.Background())
}

func TestRunnerForwardsResultsToSinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := testLogger(t)

	adapter := healthyAdapter(ctrl, "qdrant")
	adapters := []vectordb.Adapter{adapter}

	sink := NewMockSink(ctrl)
	sink.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	runner := NewRunner(DefaultConfig(), "run-sinks", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log).
		WithSinks(sink)

	results, err := runner.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, result := range results {
		assert.Equal(t, fmt.Sprintf("test_%04d", i), result.TestID)
		assert.True(t, result.Consistent())
		assert.Len(t, result.Results, 1)
	}
}

func TestRunnerToleratesSinkFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := testLogger(t)

	adapter := healthyAdapter(ctrl, "qdrant")
	adapters := []vectordb.Adapter{adapter}

	sink := NewMockSink(ctrl)
	sink.EXPECT().Persist(gomock.Any(), gomock.Any()).
		Return(errors.New("pq: connection reset")).Times(3)

	runner := NewRunner(DefaultConfig(), "run-sink-down", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log).
		WithSinks(sink)

	results, err := runner.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	log := testLogger(t)
	adapters := []vectordb.Adapter{}
	runner := NewRunner(DefaultConfig(), "run-cancel", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := runner.Run(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunnerReproducibleCampaign(t *testing.T) {
	run := func() []*difftest.TestResult {
		ctrl := gomock.NewController(t)
		log := testLogger(t)
		adapter := healthyAdapter(ctrl, "qdrant")
		adapters := []vectordb.Adapter{adapter}

		cfg := DefaultConfig().WithEdgeCaseRatio(0.5)
		runner := NewRunner(cfg, "run-repro", newGenerator(7), difftest.NewOrchestrator(adapters, log), adapters, log)

		results, err := runner.Run(context.Background(), 8)
		require.NoError(t, err)
		return results
	}

	first := run()
	second := run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Operation, second[i].Operation, "test %d", i)
		// Compare the sanitized form: NaN components are never equal to
		// themselves under reflect.DeepEqual.
		assert.Equal(t, difftest.SanitizeInput(first[i].Input), difftest.SanitizeInput(second[i].Input), "test %d", i)
	}
}

func TestRunnerTracesEachTest(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := testLogger(t)

	adapter := healthyAdapter(ctrl, "qdrant")
	adapters := []vectordb.Adapter{adapter}

	tracerClient := tracer.NewClient(tracer.DefaultConfig(), log)

	var spanValid []bool
	sink := NewMockSink(ctrl)
	sink.EXPECT().Persist(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *difftest.TestResult) error {
			spanValid = append(spanValid, traceSpan.SpanContextFromContext(ctx).IsValid())
			return nil
		}).Times(3)

	runner := NewRunner(DefaultConfig(), "run-traced", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log).
		WithSinks(sink).
		WithTracer(tracerClient)

	_, err := runner.Run(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, spanValid, 3)
	for i, valid := range spanValid {
		assert.True(t, valid, "test %d delivered outside a span", i)
	}
}

func TestRunnerHealthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := testLogger(t)

	up := vectordb.NewMockAdapter(ctrl)
	up.EXPECT().Name().Return("alpha").AnyTimes()
	up.EXPECT().Health(gomock.Any()).Return(nil)

	down := vectordb.NewMockAdapter(ctrl)
	down.EXPECT().Name().Return("beta").AnyTimes()
	down.EXPECT().Health(gomock.Any()).Return(errors.New("dial tcp: connection refused"))

	adapters := []vectordb.Adapter{up, down}
	collectors := metrics.NewCollectors(prometheus.NewRegistry(), "vdbfuzz")

	runner := NewRunner(DefaultConfig(), "run-health", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log).
		WithCollectors(collectors)

	health := runner.HealthCheck(context.Background())
	assert.Equal(t, map[string]bool{"alpha": true, "beta": false}, health)
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.AdapterUp.WithLabelValues("alpha")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collectors.AdapterUp.WithLabelValues("beta")))
}

func TestRunnerCleanupBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := testLogger(t)

	stubborn := vectordb.NewMockAdapter(ctrl)
	stubborn.EXPECT().Name().Return("alpha").AnyTimes()
	stubborn.EXPECT().Cleanup(gomock.Any()).Return(errors.New("collection is locked"))
	stubborn.EXPECT().Disconnect(gomock.Any()).Return(nil)

	flaky := vectordb.NewMockAdapter(ctrl)
	flaky.EXPECT().Name().Return("beta").AnyTimes()
	flaky.EXPECT().Cleanup(gomock.Any()).Return(nil)
	flaky.EXPECT().Disconnect(gomock.Any()).Return(errors.New("connection already closed"))

	adapters := []vectordb.Adapter{stubborn, flaky}
	runner := NewRunner(DefaultConfig(), "run-cleanup", newGenerator(42), difftest.NewOrchestrator(adapters, log), adapters, log)

	runner.Cleanup(context.Background())
}

func TestRunnerRunID(t *testing.T) {
	log := testLogger(t)
	orchestrator := difftest.NewOrchestrator(nil, log)

	generated := NewRunner(DefaultConfig(), "", newGenerator(42), orchestrator, nil, log)
	assert.NotEmpty(t, generated.RunID())

	fixed := NewRunner(DefaultConfig(), "run-2024-review", newGenerator(42), orchestrator, nil, log)
	assert.Equal(t, "run-2024-review", fixed.RunID())
}
