// Package logger provides structured logging for the fuzzing service.
//
// It wraps Uber's Zap logger behind a small API that every other package in
// this module consumes through its own local Logger interface: message first,
// an optional error, then any number of field maps. Output is JSON on stderr
// with ISO8601 timestamps, the process id and a fixed service field, which
// keeps a long fuzzing campaign's output greppable per test id.
//
// Basic Usage:
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	log.Info("campaign started", nil, map[string]interface{}{
//		"tests":    500,
//		"adapters": []string{"qdrant", "milvus"},
//	})
//
//	log.Error("insert failed", err, map[string]interface{}{
//		"adapter": "pgvector",
//		"test_id": "test_0007",
//	})
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		// ... other modules
//	)
//
// The module provides *Logger and registers an OnStop hook that syncs the
// underlying Zap core so buffered entries survive shutdown.
//
// Configuration:
//
//	VDBFUZZ_LOG_LEVEL=debug   # debug, info, warning, error
//
// Thread Safety:
//
// All methods on Logger are safe for concurrent use by multiple goroutines,
// which matters here because every test fans out one goroutine per backend.
package logger
