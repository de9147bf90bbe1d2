package logger

import "go.uber.org/zap"

// convertToZapFields turns an optional error plus any number of field maps
// into the zap.Field slice the underlying Zap logger expects. When several
// maps carry the same key, the later map wins.
func (l *Logger) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

// Info logs an informational message, along with an optional error and structured fields.
// Use Info for general progress and successful operations.
//
// Example:
//
//	logger.Info("test completed", nil, map[string]interface{}{
//	    "test_id":   "test_0042",
//	    "operation": "search",
//	})
func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Debug logs a debug-level message, useful for development and troubleshooting.
// Debug output is verbose; it carries the detail needed when diagnosing a
// single misbehaving test case.
func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs a warning message for situations that are not failures but might
// need attention, such as a backend that answered slowly or a cleanup step
// that had nothing to remove.
func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs an error message, including details of the error and additional context fields.
// Use Error when something has gone wrong that affects the current operation
// but does not require terminating the process.
//
// Example:
//
//	if err := adapter.Connect(ctx); err != nil {
//	    logger.Error("backend connection failed", err, map[string]interface{}{
//	        "adapter": adapter.Name(),
//	    })
//	}
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs a critical error message and terminates the application with
// os.Exit(1). Only the command entrypoint should use it; everything below
// reports errors as values.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}
