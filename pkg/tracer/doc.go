// Package tracer provides distributed tracing for the fuzzing service using
// OpenTelemetry.
//
// It abstracts the OpenTelemetry SDK behind a small API: create a span per
// differential test, attach attributes describing the test and its outcome,
// record failures, and carry trace context into event sink messages.
//
// Basic Usage:
//
//	tracerClient := tracer.NewClient(tracer.Config{
//		ServiceName:  "vdbfuzz",
//		AppEnv:       "staging",
//		EnableExport: true,
//	}, log)
//
//	ctx, span := tracerClient.StartSpan(ctx, "vdbfuzz.test")
//	defer span.End()
//
//	result := orchestrator.RunTest(ctx, testID, op, input)
//	tracerClient.SetAttributes(span, map[string]interface{}{
//		"test.id":         result.TestID,
//		"test.operation":  string(result.Operation),
//		"inconsistencies": len(result.Inconsistencies),
//	})
//
// NewClient registers the provider and a W3C trace context propagator
// globally, so event sinks can stamp outgoing messages with the headers of
// the test span that produced them.
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		tracer.FXModule,
//		// ... other modules
//	)
//
// The module's OnStop hook shuts the provider down, flushing batched spans.
//
// Thread Safety:
//
// All methods on the Tracer type and Span interface are safe for concurrent
// use by multiple goroutines.
package tracer
